package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ripplehq/ripple-api/internal/models"
)

// ConversationRepository persists conversations and their messages.
type ConversationRepository interface {
	// GetOrCreate resolves the conversation for an unordered participant pair,
	// creating it on first contact. Idempotent for (A, B) and (B, A).
	GetOrCreate(ctx context.Context, userA, userB uint) (models.Conversation, error)
	FindByID(ctx context.Context, id uint) (models.Conversation, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Conversation, error)
	// UnreadCounts returns, per conversation, how many messages addressed to the
	// viewer are still unread.
	UnreadCounts(ctx context.Context, viewerID uint, conversationIDs []uint) (map[uint]int64, error)
	CreateMessage(ctx context.Context, message *models.Message, summary string) error
	ListMessages(ctx context.Context, conversationID uint, limit, offset int) ([]models.Message, error)
	// MarkMessagesRead flips every unread message not sent by the reader.
	MarkMessagesRead(ctx context.Context, conversationID, readerID uint) (int64, error)
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository constructs a GORM-backed conversation repository.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) GetOrCreate(ctx context.Context, userA, userB uint) (models.Conversation, error) {
	low, high := models.NormalizePair(userA, userB)

	var conversation models.Conversation
	err := r.db.WithContext(ctx).
		Where(models.Conversation{UserLowID: low, UserHighID: high}).
		FirstOrCreate(&conversation).Error
	if err == nil {
		return conversation, nil
	}

	// A concurrent creator may have won the unique index; the pair row exists now.
	var existing models.Conversation
	if findErr := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&existing).Error; findErr == nil {
		return existing, nil
	}

	return models.Conversation{}, err
}

func (r *conversationRepository) FindByID(ctx context.Context, id uint) (models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).First(&conversation, id).Error; err != nil {
		return models.Conversation{}, err
	}
	return conversation, nil
}

func (r *conversationRepository) ListByUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var conversations []models.Conversation
	if err := r.db.WithContext(ctx).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&conversations).Error; err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *conversationRepository) UnreadCounts(ctx context.Context, viewerID uint, conversationIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return counts, nil
	}

	type row struct {
		ConversationID uint
		Total          int64
	}

	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS total").
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ?", conversationIDs, viewerID, false).
		Group("conversation_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, entry := range rows {
		counts[entry.ConversationID] = entry.Total
	}
	return counts, nil
}

func (r *conversationRepository) CreateMessage(ctx context.Context, message *models.Message, summary string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		return tx.Model(&models.Conversation{}).
			Where("id = ?", message.ConversationID).
			UpdateColumns(map[string]interface{}{
				"last_message_body": summary,
				"last_message_at":   message.CreatedAt,
			}).Error
	})
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID uint, limit, offset int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var messages []models.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *conversationRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
