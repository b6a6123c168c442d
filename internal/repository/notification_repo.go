package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ripplehq/ripple-api/internal/models"
)

// NotificationRepository handles persistence for notification entities.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	FindByID(ctx context.Context, id uint) (models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error)
	// MarkRead flips the read flag; the row must already be known to belong to
	// the recipient, ownership policy lives in the service.
	MarkRead(ctx context.Context, id, recipientID uint) (models.Notification, error)
	MarkAllRead(ctx context.Context, recipientID uint) (int64, error)
	DeleteAll(ctx context.Context, recipientID uint) (int64, error)
	// FindRecentUnread locates the latest unread notification for the same
	// underlying fact, used to collapse rapid re-toggles into one row.
	FindRecentUnread(ctx context.Context, recipientID uint, ntype string, actorID uint, targetType string, targetID uint, since time.Time) (models.Notification, error)
	Touch(ctx context.Context, notification *models.Notification) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository backed by GORM.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) FindByID(ctx context.Context, id uint) (models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).First(&notification, id).Error; err != nil {
		return models.Notification{}, err
	}
	return notification, nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var notifications []models.Notification
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uint) (models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		First(&notification).Error; err != nil {
		return models.Notification{}, err
	}

	if notification.IsRead {
		return notification, nil
	}

	notification.IsRead = true
	if err := r.db.WithContext(ctx).Model(&notification).Update("is_read", true).Error; err != nil {
		return models.Notification{}, err
	}

	return notification, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) DeleteAll(ctx context.Context, recipientID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) FindRecentUnread(ctx context.Context, recipientID uint, ntype string, actorID uint, targetType string, targetID uint, since time.Time) (models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND type = ? AND actor_id = ? AND target_type = ? AND target_id = ? AND is_read = ? AND created_at >= ?",
			recipientID, ntype, actorID, targetType, targetID, false, since).
		Order("created_at DESC").
		First(&notification).Error
	if err != nil {
		return models.Notification{}, err
	}
	return notification, nil
}

func (r *notificationRepository) Touch(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Model(notification).
		UpdateColumn("updated_at", time.Now()).Error
}
