package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ripplehq/ripple-api/internal/models"
)

func TestNotificationRepositoryFindByIDAndMarkRead(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewNotificationRepository(db)

	recipient := seedUser(t, db, "recipient")
	stranger := seedUser(t, db, "stranger")

	notification := models.Notification{
		RecipientID: recipient.ID,
		Type:        models.NotificationLike,
		Title:       "New like",
	}
	require.NoError(t, repo.Create(context.Background(), &notification))

	// FindByID surfaces the row regardless of who asks; the service decides
	// whether the caller may act on it.
	found, err := repo.FindByID(context.Background(), notification.ID)
	require.NoError(t, err)
	require.Equal(t, recipient.ID, found.RecipientID)

	_, err = repo.FindByID(context.Background(), notification.ID+1000)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	// The recipient-scoped update never touches foreign rows.
	_, err = repo.MarkRead(context.Background(), notification.ID, stranger.ID)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	updated, err := repo.MarkRead(context.Background(), notification.ID, recipient.ID)
	require.NoError(t, err)
	require.True(t, updated.IsRead)

	// Marking an already read notification is a no-op.
	again, err := repo.MarkRead(context.Background(), notification.ID, recipient.ID)
	require.NoError(t, err)
	require.True(t, again.IsRead)
}

func TestNotificationRepositoryFindRecentUnreadWindow(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewNotificationRepository(db)

	recipient := seedUser(t, db, "recipient")
	actor := seedUser(t, db, "actor")

	notification := models.Notification{
		RecipientID: recipient.ID,
		Type:        models.NotificationLike,
		ActorID:     actor.ID,
		TargetType:  models.TargetPost,
		TargetID:    42,
	}
	require.NoError(t, repo.Create(context.Background(), &notification))

	found, err := repo.FindRecentUnread(context.Background(), recipient.ID,
		models.NotificationLike, actor.ID, models.TargetPost, 42, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Equal(t, notification.ID, found.ID)

	// Outside the window nothing matches.
	_, err = repo.FindRecentUnread(context.Background(), recipient.ID,
		models.NotificationLike, actor.ID, models.TargetPost, 42, time.Now().Add(time.Minute))
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	// Read notifications never collapse with new activity.
	_, err = repo.MarkRead(context.Background(), notification.ID, recipient.ID)
	require.NoError(t, err)

	_, err = repo.FindRecentUnread(context.Background(), recipient.ID,
		models.NotificationLike, actor.ID, models.TargetPost, 42, time.Now().Add(-time.Minute))
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestNotificationRepositoryMarkAllReadAndDeleteAll(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewNotificationRepository(db)

	recipient := seedUser(t, db, "recipient")
	other := seedUser(t, db, "other")

	for i := 0; i < 3; i++ {
		notification := models.Notification{RecipientID: recipient.ID, Type: models.NotificationFollow}
		require.NoError(t, repo.Create(context.Background(), &notification))
	}
	foreign := models.Notification{RecipientID: other.ID, Type: models.NotificationFollow}
	require.NoError(t, repo.Create(context.Background(), &foreign))

	updated, err := repo.MarkAllRead(context.Background(), recipient.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), updated)

	deleted, err := repo.DeleteAll(context.Background(), recipient.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), deleted)

	remaining, err := repo.ListByRecipient(context.Background(), other.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}
