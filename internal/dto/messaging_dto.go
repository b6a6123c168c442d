package dto

import (
	"time"

	"github.com/ripplehq/ripple-api/internal/models"
)

// ConversationCreateRequest asks for the conversation with another user,
// creating it if the pair has never exchanged messages.
type ConversationCreateRequest struct {
	ParticipantID uint `json:"participant_id" validate:"required"`
}

// MessageSendRequest is the payload to append a message to a conversation.
type MessageSendRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

// ConversationResponse is one entry of a user's conversation listing.
type ConversationResponse struct {
	ID            uint      `json:"id"`
	ParticipantID uint      `json:"participant_id"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int64     `json:"unread_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// MessageResponse is the serialized representation of a direct message.
type MessageResponse struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       uint      `json:"sender_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewConversationResponse converts a conversation model into a DTO from the
// perspective of the given member.
func NewConversationResponse(conversation models.Conversation, viewerID uint, unread int64) ConversationResponse {
	return ConversationResponse{
		ID:            conversation.ID,
		ParticipantID: conversation.OtherParticipant(viewerID),
		LastMessage:   conversation.LastMessageBody,
		LastMessageAt: conversation.LastMessageAt,
		UnreadCount:   unread,
		CreatedAt:     conversation.CreatedAt,
	}
}

// NewMessageResponse converts a message model into a DTO.
func NewMessageResponse(message models.Message) MessageResponse {
	return MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		IsRead:         message.IsRead,
		CreatedAt:      message.CreatedAt,
	}
}

// NewMessageResponseSlice converts messages into DTOs.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewMessageResponse(message))
	}
	return out
}
