package dto

import (
	"time"

	"github.com/ripplehq/ripple-api/internal/models"
)

// UserSummaryResponse is the compact user representation used in follow listings.
type UserSummaryResponse struct {
	ID        uint      `json:"id"`
	Nickname  string    `json:"nickname"`
	Avatar    string    `json:"avatar,omitempty"`
	Followers int64     `json:"followers"`
	Following int64     `json:"following"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserSummaryResponse converts a user model into a summary DTO.
func NewUserSummaryResponse(user models.User) UserSummaryResponse {
	return UserSummaryResponse{
		ID:        user.ID,
		Nickname:  user.Nickname,
		Avatar:    user.Avatar,
		Followers: user.Followers,
		Following: user.Following,
		CreatedAt: user.CreatedAt,
	}
}

// NewUserSummaryResponseSlice converts users into summary DTOs.
func NewUserSummaryResponseSlice(users []models.User) []UserSummaryResponse {
	out := make([]UserSummaryResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserSummaryResponse(user))
	}
	return out
}
