package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ripplehq/ripple-api/internal/dto"
	"github.com/ripplehq/ripple-api/internal/repository"
)

// StatsService serves post aggregate counters read-through from a redis cache
// and exposes the recompute repair path.
type StatsService interface {
	PostStats(ctx context.Context, postID uint) (dto.PostStatsResponse, error)
	// RecomputePost rebuilds the counters from the ledger, overwrites the
	// cached summary row and drops the stale cache entry.
	RecomputePost(ctx context.Context, postID uint) (dto.PostStatsResponse, error)
}

type statsService struct {
	posts    repository.PostRepository
	counters CounterService
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewStatsService constructs the stats read layer.
func NewStatsService(posts repository.PostRepository, counters CounterService, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StatsService {
	return &statsService{
		posts:    posts,
		counters: counters,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "stats_service").Logger(),
	}
}

func (s *statsService) PostStats(ctx context.Context, postID uint) (dto.PostStatsResponse, error) {
	cacheKey := statsCacheKey(postID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var stats dto.PostStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &stats); unmarshalErr == nil {
				s.logger.Debug().Uint("post_id", postID).Msg("post stats cache hit")
				return stats, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read post stats cache")
		}
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return dto.PostStatsResponse{}, mapStorageErr("resolve post", err)
	}

	stats := dto.PostStatsResponse{
		PostID:   post.ID,
		Likes:    post.Likes,
		Comments: post.Comments,
		Shares:   post.Shares,
	}

	s.store(ctx, cacheKey, stats)

	return stats, nil
}

func (s *statsService) RecomputePost(ctx context.Context, postID uint) (dto.PostStatsResponse, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return dto.PostStatsResponse{}, mapStorageErr("resolve post", err)
	}

	stats, err := s.counters.RecomputePost(ctx, postID)
	if err != nil {
		return dto.PostStatsResponse{}, mapStorageErr("recompute post counters", err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, statsCacheKey(postID)).Err(); err != nil {
			s.logger.Warn().Err(err).Uint("post_id", postID).Msg("failed to drop stale stats cache")
		}
	}

	return stats, nil
}

func (s *statsService) store(ctx context.Context, key string, stats dto.PostStatsResponse) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store post stats cache")
	}
}

func statsCacheKey(postID uint) string {
	return fmt.Sprintf("stats:post:%d", postID)
}
