package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ripplehq/ripple-api/internal/domain"
	"github.com/ripplehq/ripple-api/internal/models"
)

func TestStatsServiceCachesReads(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	interactions := newInteractionRepoStub()
	posts := newPostRepoStub(models.Post{ID: 10, Likes: 3, Comments: 2, Shares: 1})
	counters := NewCounterService(interactions, posts, newUserRepoStub(), testLogger())
	svc := NewStatsService(posts, counters, redisClient, 30*time.Second, testLogger())

	stats, err := svc.PostStats(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Likes)
	require.True(t, server.Exists("stats:post:10"))

	// A cached read survives the summary row changing underneath.
	posts.posts[10].Likes = 99
	stats, err = svc.PostStats(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Likes)
}

func TestStatsServiceRecomputeDropsCache(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	interactions := newInteractionRepoStub()
	posts := newPostRepoStub(models.Post{ID: 10, Likes: 42})
	counters := NewCounterService(interactions, posts, newUserRepoStub(), testLogger())
	svc := NewStatsService(posts, counters, redisClient, 30*time.Second, testLogger())

	_, err = svc.PostStats(context.Background(), 10)
	require.NoError(t, err)
	require.True(t, server.Exists("stats:post:10"))

	// Only one active like exists in the ledger; recompute repairs the drift.
	_, _, err = interactions.Toggle(context.Background(), 2, models.TargetPost, 10, models.ActionLike)
	require.NoError(t, err)

	stats, err := svc.RecomputePost(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Likes)
	require.False(t, server.Exists("stats:post:10"))

	stats, err = svc.PostStats(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Likes)
}

func TestStatsServiceWithoutCache(t *testing.T) {
	posts := newPostRepoStub(models.Post{ID: 10, Likes: 5})
	counters := NewCounterService(newInteractionRepoStub(), posts, newUserRepoStub(), testLogger())
	svc := NewStatsService(posts, counters, nil, 0, testLogger())

	stats, err := svc.PostStats(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, int64(5), stats.Likes)

	_, err = svc.PostStats(context.Background(), 99)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
