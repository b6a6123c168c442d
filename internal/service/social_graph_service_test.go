package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ripplehq/ripple-api/internal/models"
)

func TestSocialGraphServiceQueries(t *testing.T) {
	interactions := newInteractionRepoStub()
	interactions.users[1] = models.User{ID: 1, Nickname: "alice"}
	interactions.users[2] = models.User{ID: 2, Nickname: "bob"}
	interactions.users[3] = models.User{ID: 3, Nickname: "carol"}
	svc := NewSocialGraphService(interactions, testLogger())

	follow := func(actor, target uint) {
		t.Helper()
		_, _, err := interactions.Toggle(context.Background(), actor, models.TargetUser, target, models.ActionFollow)
		require.NoError(t, err)
	}

	follow(1, 2)
	follow(2, 1)
	follow(3, 1)

	following, err := svc.ListFollowing(context.Background(), 1, 1, 20)
	require.NoError(t, err)
	require.Len(t, following, 1)
	require.Equal(t, "bob", following[0].Nickname)

	followers, err := svc.ListFollowers(context.Background(), 1, 1, 20)
	require.NoError(t, err)
	require.Len(t, followers, 2)

	mutuals, err := svc.MutualFollowers(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, mutuals, 1)
	require.Equal(t, "bob", mutuals[0].Nickname)

	isFollowing, err := svc.IsFollowing(context.Background(), 3, 1)
	require.NoError(t, err)
	require.True(t, isFollowing)

	isFollowing, err = svc.IsFollowing(context.Background(), 1, 3)
	require.NoError(t, err)
	require.False(t, isFollowing)
}
