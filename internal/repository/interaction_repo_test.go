package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ripplehq/ripple-api/internal/models"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Interaction{},
		&models.Notification{},
		&models.Conversation{},
		&models.Message{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, nickname string) models.User {
	t.Helper()
	user := models.User{Nickname: nickname}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedPost(t *testing.T, db *gorm.DB, authorID uint) models.Post {
	t.Helper()
	post := models.Post{AuthorID: authorID, Content: "hello"}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func TestInteractionRepositoryToggleFlipsActiveState(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewInteractionRepository(db)

	actor := seedUser(t, db, "actor")
	author := seedUser(t, db, "author")
	post := seedPost(t, db, author.ID)

	activated, row, err := repo.Toggle(context.Background(), actor.ID, models.TargetPost, post.ID, models.ActionLike)
	require.NoError(t, err)
	require.True(t, activated)
	require.True(t, row.Active)

	// Toggling again deactivates the same row instead of creating a second one.
	activated, _, err = repo.Toggle(context.Background(), actor.ID, models.TargetPost, post.ID, models.ActionLike)
	require.NoError(t, err)
	require.False(t, activated)

	activated, reactivated, err := repo.Toggle(context.Background(), actor.ID, models.TargetPost, post.ID, models.ActionLike)
	require.NoError(t, err)
	require.True(t, activated)
	require.Equal(t, row.ID, reactivated.ID, "toggle must reuse the existing tuple row")

	var total int64
	require.NoError(t, db.Model(&models.Interaction{}).
		Where("actor_id = ? AND target_type = ? AND target_id = ? AND action_type = ?",
			actor.ID, models.TargetPost, post.ID, models.ActionLike).
		Count(&total).Error)
	require.Equal(t, int64(1), total)
}

func TestInteractionRepositoryCountActiveIgnoresDeactivatedRows(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewInteractionRepository(db)

	author := seedUser(t, db, "author")
	post := seedPost(t, db, author.ID)
	first := seedUser(t, db, "first")
	second := seedUser(t, db, "second")

	_, _, err := repo.Toggle(context.Background(), first.ID, models.TargetPost, post.ID, models.ActionLike)
	require.NoError(t, err)
	_, _, err = repo.Toggle(context.Background(), second.ID, models.TargetPost, post.ID, models.ActionLike)
	require.NoError(t, err)

	// Deactivate one of the likes.
	_, _, err = repo.Toggle(context.Background(), second.ID, models.TargetPost, post.ID, models.ActionLike)
	require.NoError(t, err)

	count, err := repo.CountActive(context.Background(), models.TargetPost, post.ID, models.ActionLike)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestInteractionRepositoryFollowQueries(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewInteractionRepository(db)

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	follow := func(actor, target uint) {
		t.Helper()
		_, _, err := repo.Toggle(context.Background(), actor, models.TargetUser, target, models.ActionFollow)
		require.NoError(t, err)
	}

	follow(alice.ID, bob.ID)
	follow(bob.ID, alice.ID)
	follow(carol.ID, alice.ID)

	following, err := repo.ListFollowing(context.Background(), alice.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, following, 1)
	require.Equal(t, bob.ID, following[0].ID)

	followers, err := repo.ListFollowers(context.Background(), alice.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, followers, 2)

	mutuals, err := repo.MutualFollowers(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, mutuals, 1)
	require.Equal(t, bob.ID, mutuals[0].ID)

	isFollowing, err := repo.IsFollowing(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)
	require.True(t, isFollowing)

	// Unfollow removes the edge from every query.
	follow(alice.ID, bob.ID)

	isFollowing, err = repo.IsFollowing(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, isFollowing)

	mutuals, err = repo.MutualFollowers(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Empty(t, mutuals)
}

func TestInteractionRepositoryFollowListingsMostRecentFirst(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewInteractionRepository(db)

	target := seedUser(t, db, "target")
	first := seedUser(t, db, "first")
	second := seedUser(t, db, "second")
	third := seedUser(t, db, "third")

	base := time.Now().Add(-time.Hour)
	followAt := func(actor, followed uint, at time.Time) {
		t.Helper()
		row := models.Interaction{
			ActorID:    actor,
			TargetType: models.TargetUser,
			TargetID:   followed,
			ActionType: models.ActionFollow,
			Active:     true,
			CreatedAt:  at,
		}
		require.NoError(t, db.Create(&row).Error)
	}

	followAt(first.ID, target.ID, base)
	followAt(second.ID, target.ID, base.Add(time.Minute))
	followAt(third.ID, target.ID, base.Add(2*time.Minute))

	followAt(target.ID, first.ID, base)
	followAt(target.ID, third.ID, base.Add(time.Minute))
	followAt(target.ID, second.ID, base.Add(2*time.Minute))

	followers, err := repo.ListFollowers(context.Background(), target.ID, 20, 0)
	require.NoError(t, err)
	require.Equal(t, []uint{third.ID, second.ID, first.ID}, userIDs(followers))

	following, err := repo.ListFollowing(context.Background(), target.ID, 20, 0)
	require.NoError(t, err)
	require.Equal(t, []uint{second.ID, third.ID, first.ID}, userIDs(following))

	// Pagination walks the same recency order.
	page, err := repo.ListFollowers(context.Background(), target.ID, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []uint{second.ID}, userIDs(page))
}

func userIDs(users []models.User) []uint {
	ids := make([]uint, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	return ids
}

func TestInteractionRepositoryToggleTupleUnique(t *testing.T) {
	db := setupLedgerTestDB(t)

	actor := seedUser(t, db, "actor")
	author := seedUser(t, db, "author")
	post := seedPost(t, db, author.ID)

	like := func() models.Interaction {
		return models.Interaction{
			ActorID:    actor.ID,
			TargetType: models.TargetPost,
			TargetID:   post.ID,
			ActionType: models.ActionLike,
			Active:     true,
		}
	}

	row := like()
	require.NoError(t, db.Create(&row).Error)

	// A second active row for the same toggle tuple is rejected by the index,
	// even when two writers miss each other's uncommitted insert.
	duplicate := like()
	err := db.Create(&duplicate).Error
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// Append-only kinds stay outside the constraint.
	for _, content := range []string{"one", "two"} {
		comment := models.Interaction{
			ActorID:    actor.ID,
			TargetType: models.TargetPost,
			TargetID:   post.ID,
			ActionType: models.ActionComment,
			Content:    content,
			Active:     true,
		}
		require.NoError(t, db.Create(&comment).Error)
	}
}

func TestInteractionRepositoryListCommentsSkipsInactive(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewInteractionRepository(db)

	author := seedUser(t, db, "author")
	commenter := seedUser(t, db, "commenter")
	post := seedPost(t, db, author.ID)

	kept := models.Interaction{
		ActorID:    commenter.ID,
		TargetType: models.TargetPost,
		TargetID:   post.ID,
		ActionType: models.ActionComment,
		Content:    "kept",
		Active:     true,
	}
	removed := models.Interaction{
		ActorID:    commenter.ID,
		TargetType: models.TargetPost,
		TargetID:   post.ID,
		ActionType: models.ActionComment,
		Content:    "removed",
		Active:     false,
	}
	require.NoError(t, repo.Record(context.Background(), &kept))
	require.NoError(t, repo.Record(context.Background(), &removed))

	comments, err := repo.ListComments(context.Background(), models.TargetPost, post.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Equal(t, "kept", comments[0].Content)
}
