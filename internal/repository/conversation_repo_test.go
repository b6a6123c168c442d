package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ripplehq/ripple-api/internal/models"
)

func TestConversationRepositoryGetOrCreateCanonicalPair(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewConversationRepository(db)

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	first, err := repo.GetOrCreate(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	// The reversed pair resolves to the same conversation row.
	second, err := repo.GetOrCreate(context.Background(), bob.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	low, high := models.NormalizePair(alice.ID, bob.ID)
	require.Equal(t, low, first.UserLowID)
	require.Equal(t, high, first.UserHighID)

	var total int64
	require.NoError(t, db.Model(&models.Conversation{}).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Count(&total).Error)
	require.Equal(t, int64(1), total)
}

func TestConversationRepositoryCreateMessageUpdatesPreview(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewConversationRepository(db)

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	conversation, err := repo.GetOrCreate(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	message := models.Message{ConversationID: conversation.ID, SenderID: alice.ID, Content: "hello bob"}
	require.NoError(t, repo.CreateMessage(context.Background(), &message, "hello bob"))

	stored, err := repo.FindByID(context.Background(), conversation.ID)
	require.NoError(t, err)
	require.Equal(t, "hello bob", stored.LastMessageBody)
	require.WithinDuration(t, message.CreatedAt, stored.LastMessageAt, time.Second)
}

func TestConversationRepositoryUnreadCountsAndMarkRead(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewConversationRepository(db)

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	conversation, err := repo.GetOrCreate(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	for _, content := range []string{"one", "two"} {
		message := models.Message{ConversationID: conversation.ID, SenderID: alice.ID, Content: content}
		require.NoError(t, repo.CreateMessage(context.Background(), &message, content))
	}
	reply := models.Message{ConversationID: conversation.ID, SenderID: bob.ID, Content: "reply"}
	require.NoError(t, repo.CreateMessage(context.Background(), &reply, "reply"))

	// Bob has two unread messages from Alice; his own reply does not count.
	counts, err := repo.UnreadCounts(context.Background(), bob.ID, []uint{conversation.ID})
	require.NoError(t, err)
	require.Equal(t, int64(2), counts[conversation.ID])

	counts, err = repo.UnreadCounts(context.Background(), alice.ID, []uint{conversation.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), counts[conversation.ID])

	updated, err := repo.MarkMessagesRead(context.Background(), conversation.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated)

	counts, err = repo.UnreadCounts(context.Background(), bob.ID, []uint{conversation.ID})
	require.NoError(t, err)
	require.Zero(t, counts[conversation.ID])

	// Marking again is a no-op.
	updated, err = repo.MarkMessagesRead(context.Background(), conversation.ID, bob.ID)
	require.NoError(t, err)
	require.Zero(t, updated)
}

func TestConversationRepositoryListMessagesOldestFirst(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewConversationRepository(db)

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	conversation, err := repo.GetOrCreate(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	for _, content := range []string{"first", "second", "third"} {
		message := models.Message{ConversationID: conversation.ID, SenderID: alice.ID, Content: content}
		require.NoError(t, repo.CreateMessage(context.Background(), &message, content))
	}

	messages, err := repo.ListMessages(context.Background(), conversation.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	require.Equal(t, "first", messages[0].Content)
	require.Equal(t, "third", messages[2].Content)
}
