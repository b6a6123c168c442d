package dto

import (
	"time"

	"github.com/ripplehq/ripple-api/internal/models"
)

// ToggleLikeResponse reports the post-toggle state for a like.
type ToggleLikeResponse struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// ToggleFollowResponse reports the post-toggle state for a follow.
type ToggleFollowResponse struct {
	Following bool `json:"following"`
}

// ShareResponse reports the updated share counter after recording a share.
type ShareResponse struct {
	ShareCount int64 `json:"share_count"`
}

// CommentCreateRequest is the payload to record a comment against a target.
type CommentCreateRequest struct {
	TargetType string `json:"target_type" validate:"required,oneof=post comment"`
	TargetID   uint   `json:"target_id" validate:"required"`
	Content    string `json:"content" validate:"required,min=1"`
}

// CommentListQuery filters a page of comments for one target.
type CommentListQuery struct {
	TargetType string `query:"target_type" validate:"required,oneof=post comment"`
	TargetID   uint   `query:"target_id" validate:"required"`
	Page       int    `query:"page" validate:"omitempty,min=1"`
	Limit      int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// ReportCreateRequest is the payload to file a report against a target.
type ReportCreateRequest struct {
	TargetType string `json:"target_type" validate:"required,oneof=post user comment"`
	TargetID   uint   `json:"target_id" validate:"required"`
	Content    string `json:"content" validate:"omitempty,max=1000"`
}

// CommentResponse is the serialized representation of a comment ledger row.
type CommentResponse struct {
	ID         uint      `json:"id"`
	ActorID    uint      `json:"actor_id"`
	TargetType string    `json:"target_type"`
	TargetID   uint      `json:"target_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommentCreateResponse pairs the created comment with the updated counter.
type CommentCreateResponse struct {
	Comment      CommentResponse `json:"comment"`
	CommentCount int64           `json:"comment_count"`
}

// PostStatsResponse carries the derived aggregate counters for one post.
type PostStatsResponse struct {
	PostID   uint  `json:"post_id"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

// NewCommentResponse converts an interaction ledger row into a comment DTO.
func NewCommentResponse(interaction models.Interaction) CommentResponse {
	return CommentResponse{
		ID:         interaction.ID,
		ActorID:    interaction.ActorID,
		TargetType: interaction.TargetType,
		TargetID:   interaction.TargetID,
		Content:    interaction.Content,
		CreatedAt:  interaction.CreatedAt,
	}
}

// NewCommentResponseSlice converts a slice of ledger rows into comment DTOs.
func NewCommentResponseSlice(interactions []models.Interaction) []CommentResponse {
	out := make([]CommentResponse, 0, len(interactions))
	for _, interaction := range interactions {
		out = append(out, NewCommentResponse(interaction))
	}
	return out
}
