package models

import "time"

// Conversation is the canonical channel between exactly two users. UserLowID is
// always the smaller of the two participant IDs so the pair (A, B) and (B, A)
// resolve to the same row; the composite unique index enforces it.
type Conversation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserLowID       uint      `gorm:"not null;uniqueIndex:idx_conversations_pair,priority:1" json:"user_low_id"`
	UserHighID      uint      `gorm:"not null;uniqueIndex:idx_conversations_pair,priority:2" json:"user_high_id"`
	LastMessageBody string    `gorm:"size:255" json:"last_message_body"`
	LastMessageAt   time.Time `gorm:"index" json:"last_message_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Participants returns both member IDs.
func (c Conversation) Participants() (uint, uint) {
	return c.UserLowID, c.UserHighID
}

// HasParticipant reports whether the user belongs to the conversation.
func (c Conversation) HasParticipant(userID uint) bool {
	return c.UserLowID == userID || c.UserHighID == userID
}

// OtherParticipant returns the counterpart of the given member.
func (c Conversation) OtherParticipant(userID uint) uint {
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

// Message belongs to exactly one conversation. IsRead flips once the other
// participant has listed the conversation; content is never edited.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversation_id"`
	SenderID       uint      `gorm:"index;not null" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsRead         bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NormalizePair orders two user IDs into the canonical (low, high) form used by
// conversation identity.
func NormalizePair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}
