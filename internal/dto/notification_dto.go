package dto

import (
	"time"

	"github.com/ripplehq/ripple-api/internal/models"
)

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID          uint      `json:"id"`
	RecipientID uint      `json:"recipient_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	ActorID     uint      `json:"actor_id,omitempty"`
	TargetType  string    `json:"target_type,omitempty"`
	TargetID    uint      `json:"target_id,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewNotificationResponse converts a notification model to a DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          model.ID,
		RecipientID: model.RecipientID,
		Type:        model.Type,
		Title:       model.Title,
		Body:        model.Body,
		ActorID:     model.ActorID,
		TargetType:  model.TargetType,
		TargetID:    model.TargetID,
		IsRead:      model.IsRead,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}
