package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/velodesk/velodesk/internal/shared"
)

type memoryRepo struct {
	mechanics map[string]Mechanic
}

func (r *memoryRepo) GetByUsername(_ context.Context, username string) (Mechanic, error) {
	for _, m := range r.mechanics {
		if m.Username == username {
			return m, nil
		}
	}
	return Mechanic{}, shared.ErrNotFound
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (Mechanic, error) {
	m, ok := r.mechanics[id]
	if !ok {
		return Mechanic{}, shared.ErrNotFound
	}
	return m, nil
}

func testService(t *testing.T, ttl time.Duration) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	hash, err := bcrypt.GenerateFromPassword([]byte("taller123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &memoryRepo{mechanics: map[string]Mechanic{
		"m1": {ID: "m1", Username: "marco", Name: "Marco Ruiz", PasswordHash: string(hash), IsActive: true},
		"m2": {ID: "m2", Username: "inactive", Name: "Gone", PasswordHash: string(hash), IsActive: false},
	}}
	return NewService(repo, client, ttl), mr
}

func TestLoginAndValidate(t *testing.T) {
	svc, _ := testService(t, time.Hour)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Username: "marco", Password: "taller123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Empty(t, resp.Mechanic.PasswordHash)
	require.Equal(t, "m1", resp.Mechanic.ID)

	mechanicID, err := svc.Validate(ctx, resp.Token)
	require.NoError(t, err)
	require.Equal(t, "m1", mechanicID)
}

func TestLoginRejections(t *testing.T) {
	svc, _ := testService(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginRequest{Username: "marco", Password: "wrong"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Username: "nobody", Password: "taller123"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Username: "inactive", Password: "taller123"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestTokenExpiry(t *testing.T) {
	svc, mr := testService(t, time.Minute)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Username: "marco", Password: "taller123"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = svc.Validate(ctx, resp.Token)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := testService(t, time.Hour)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Username: "marco", Password: "taller123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, resp.Token))

	_, err = svc.Validate(ctx, resp.Token)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Validate(ctx, "")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
