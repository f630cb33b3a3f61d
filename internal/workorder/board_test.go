package workorder

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func boardFixture(t *testing.T) (*Board, *memoryRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newMemoryRepo()
	return NewBoard(repo, client, 30*time.Second, nil), repo, mr
}

func TestBoardSummaryCountsAndCaches(t *testing.T) {
	board, repo, mr := boardFixture(t)
	ctx := context.Background()

	for _, status := range []Status{StatusOpen, StatusOpen, StatusInProgress} {
		id, err := repo.Create(ctx, WorkOrder{ClientID: 1, BicycleID: 1, Status: status})
		require.NoError(t, err)
		require.NotZero(t, id)
	}

	summary, err := board.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Counts[StatusOpen])
	require.Equal(t, 1, summary.Counts[StatusInProgress])
	require.Len(t, summary.Recent, 3)
	require.True(t, mr.Exists(boardCacheKey))

	// A new order does not show until the cache is invalidated.
	_, err = repo.Create(ctx, WorkOrder{ClientID: 1, BicycleID: 1, Status: StatusOpen})
	require.NoError(t, err)

	summary, err = board.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Counts[StatusOpen])

	board.Invalidate(ctx)
	summary, err = board.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Counts[StatusOpen])
}

func TestBoardSummaryWithoutCache(t *testing.T) {
	repo := newMemoryRepo()
	board := NewBoard(repo, nil, 0, nil)

	_, err := repo.Create(context.Background(), WorkOrder{ClientID: 1, BicycleID: 1, Status: StatusOpen})
	require.NoError(t, err)

	summary, err := board.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Counts[StatusOpen])
}
