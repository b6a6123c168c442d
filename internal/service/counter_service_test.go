package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ripplehq/ripple-api/internal/models"
)

func TestCounterServiceApplyByActionKind(t *testing.T) {
	interactions := newInteractionRepoStub()
	posts := newPostRepoStub(models.Post{ID: 10})
	users := newUserRepoStub(models.User{ID: 1}, models.User{ID: 2})
	svc := NewCounterService(interactions, posts, users, testLogger())

	require.NoError(t, svc.Apply(context.Background(), InteractionEvent{
		ActorID: 2, TargetType: models.TargetPost, TargetID: 10,
		ActionType: models.ActionLike, Activated: true,
	}))
	require.Equal(t, int64(1), posts.posts[10].Likes)

	require.NoError(t, svc.Apply(context.Background(), InteractionEvent{
		ActorID: 2, TargetType: models.TargetPost, TargetID: 10,
		ActionType: models.ActionLike, Activated: false,
	}))
	require.Zero(t, posts.posts[10].Likes)

	// Comment targets other than a post leave post counters untouched.
	require.NoError(t, svc.Apply(context.Background(), InteractionEvent{
		ActorID: 2, TargetType: models.TargetComment, TargetID: 5,
		ActionType: models.ActionComment, Activated: true,
	}))
	require.Zero(t, posts.posts[10].Comments)

	require.NoError(t, svc.Apply(context.Background(), InteractionEvent{
		ActorID: 1, TargetType: models.TargetUser, TargetID: 2,
		ActionType: models.ActionFollow, Activated: true,
	}))
	require.Equal(t, int64(1), users.users[1].Following)
	require.Equal(t, int64(1), users.users[2].Followers)

	// Reports never touch counters.
	require.NoError(t, svc.Apply(context.Background(), InteractionEvent{
		ActorID: 2, TargetType: models.TargetPost, TargetID: 10,
		ActionType: models.ActionReport, Activated: true,
	}))
	require.Zero(t, posts.posts[10].Likes)
}

func TestCounterServiceRecomputePostFromLedger(t *testing.T) {
	interactions := newInteractionRepoStub()
	// Drifted cached counters get replaced by the ledger-derived truth.
	posts := newPostRepoStub(models.Post{ID: 10, Likes: 99, Comments: 99, Shares: 99})
	svc := NewCounterService(interactions, posts, newUserRepoStub(), testLogger())

	_, _, err := interactions.Toggle(context.Background(), 2, models.TargetPost, 10, models.ActionLike)
	require.NoError(t, err)
	_, _, err = interactions.Toggle(context.Background(), 3, models.TargetPost, 10, models.ActionLike)
	require.NoError(t, err)
	require.NoError(t, interactions.Record(context.Background(), &models.Interaction{
		ActorID: 2, TargetType: models.TargetPost, TargetID: 10,
		ActionType: models.ActionComment, Active: true,
	}))

	stats, err := svc.RecomputePost(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Likes)
	require.Equal(t, int64(1), stats.Comments)
	require.Zero(t, stats.Shares)

	require.Equal(t, int64(2), posts.posts[10].Likes)
	require.Equal(t, int64(1), posts.posts[10].Comments)
	require.Zero(t, posts.posts[10].Shares)
}

func TestCounterServiceRecomputeUserFollows(t *testing.T) {
	interactions := newInteractionRepoStub()
	users := newUserRepoStub(models.User{ID: 1, Followers: 50, Following: 50}, models.User{ID: 2}, models.User{ID: 3})
	svc := NewCounterService(interactions, newPostRepoStub(), users, testLogger())

	_, _, err := interactions.Toggle(context.Background(), 2, models.TargetUser, 1, models.ActionFollow)
	require.NoError(t, err)
	_, _, err = interactions.Toggle(context.Background(), 3, models.TargetUser, 1, models.ActionFollow)
	require.NoError(t, err)
	_, _, err = interactions.Toggle(context.Background(), 1, models.TargetUser, 2, models.ActionFollow)
	require.NoError(t, err)

	followers, following, err := svc.RecomputeUserFollows(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), followers)
	require.Equal(t, int64(1), following)
	require.Equal(t, int64(2), users.users[1].Followers)
	require.Equal(t, int64(1), users.users[1].Following)
}
