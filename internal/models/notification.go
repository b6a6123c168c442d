package models

import "time"

// Notification kinds delivered by the fanout.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationShare   = "share"
	NotificationMessage = "message"
)

// Notification represents a delivered fact targeted at a single recipient.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RecipientID uint      `gorm:"index;not null" json:"recipient_id"`
	Type        string    `gorm:"size:32;not null;index" json:"type"`
	Title       string    `gorm:"size:255" json:"title"`
	Body        string    `gorm:"type:text" json:"body"`
	ActorID     uint      `gorm:"index" json:"actor_id"`
	TargetType  string    `gorm:"size:16" json:"target_type"`
	TargetID    uint      `json:"target_id"`
	IsRead      bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
