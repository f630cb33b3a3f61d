package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/velodesk/velodesk/internal/shared"
)

const tokenKeyPrefix = "velodesk:token:"

// Service authenticates mechanics and manages session tokens. Tokens
// are opaque uuids stored in Redis with a TTL; a restart of the API
// does not invalidate live sessions.
type Service struct {
	repo     Repository
	sessions *redis.Client
	ttl      time.Duration
}

// NewService creates an auth service.
func NewService(repo Repository, sessions *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{repo: repo, sessions: sessions, ttl: ttl}
}

// Login verifies credentials and issues a bearer token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	mechanic, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return LoginResponse{}, shared.ErrInvalidCredentials
		}
		return LoginResponse{}, err
	}
	if !mechanic.IsActive {
		return LoginResponse{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(mechanic.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResponse{}, shared.ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.sessions.Set(ctx, tokenKeyPrefix+token, mechanic.ID, s.ttl).Err(); err != nil {
		return LoginResponse{}, err
	}

	mechanic.PasswordHash = ""
	return LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.ttl),
		Mechanic:  mechanic,
	}, nil
}

// Validate resolves a bearer token to the mechanic id it belongs to.
func (s *Service) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", shared.ErrInvalidCredentials
	}
	mechanicID, err := s.sessions.Get(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", shared.ErrInvalidCredentials
		}
		return "", err
	}
	return mechanicID, nil
}

// Logout revokes the token immediately.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Del(ctx, tokenKeyPrefix+token).Err()
}
