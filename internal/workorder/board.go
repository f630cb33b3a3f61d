package workorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const boardCacheKey = "velodesk:workorder:board"

// Board serves the shop-floor summary: order counts per status plus the
// most recent orders. The summary is cached in Redis for a short TTL and
// rebuilt through singleflight so a cold cache triggers one rebuild no
// matter how many dashboards poll at once.
type Board struct {
	repo   Repository
	cache  *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewBoard creates the board view. A nil cache disables caching.
func NewBoard(repo Repository, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Board{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Summary returns the cached summary, rebuilding it on a miss.
func (b *Board) Summary(ctx context.Context) (BoardSummary, error) {
	if b.cache != nil {
		payload, err := b.cache.Get(ctx, boardCacheKey).Bytes()
		if err == nil {
			var summary BoardSummary
			if err := json.Unmarshal(payload, &summary); err == nil {
				return summary, nil
			}
		} else if err != redis.Nil {
			b.logger.Warn("board cache read failed", "error", err)
		}
	}

	result, err, _ := b.group.Do(boardCacheKey, func() (any, error) {
		return b.build(ctx)
	})
	if err != nil {
		return BoardSummary{}, err
	}
	return result.(BoardSummary), nil
}

// Invalidate drops the cached summary. Called after lifecycle writes.
func (b *Board) Invalidate(ctx context.Context) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Del(ctx, boardCacheKey).Err(); err != nil {
		b.logger.Warn("board cache invalidation failed", "error", err)
	}
}

func (b *Board) build(ctx context.Context) (BoardSummary, error) {
	counts, err := b.repo.CountByStatus(ctx)
	if err != nil {
		return BoardSummary{}, err
	}
	recent, _, err := b.repo.List(ctx, ListRequest{Limit: 10})
	if err != nil {
		return BoardSummary{}, err
	}
	summary := BoardSummary{Counts: counts, Recent: recent}

	if b.cache != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := b.cache.Set(ctx, boardCacheKey, payload, b.ttl).Err(); err != nil {
				b.logger.Warn("board cache write failed", "error", err)
			}
		}
	}
	return summary, nil
}
