package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ripplehq/ripple-api/internal/dto"
	"github.com/ripplehq/ripple-api/internal/repository"
)

// SocialGraphService answers follow-relationship queries. Strictly read-only
// over the ledger's active follow rows; all mutations go through the ledger.
type SocialGraphService interface {
	ListFollowing(ctx context.Context, userID uint, page, limit int) ([]dto.UserSummaryResponse, error)
	ListFollowers(ctx context.Context, userID uint, page, limit int) ([]dto.UserSummaryResponse, error)
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	MutualFollowers(ctx context.Context, userID uint) ([]dto.UserSummaryResponse, error)
}

type socialGraphService struct {
	interactions repository.InteractionRepository
	logger       zerolog.Logger
}

// NewSocialGraphService constructs the social graph query layer.
func NewSocialGraphService(interactions repository.InteractionRepository, logger zerolog.Logger) SocialGraphService {
	return &socialGraphService{
		interactions: interactions,
		logger:       logger.With().Str("component", "social_graph_service").Logger(),
	}
}

func (s *socialGraphService) ListFollowing(ctx context.Context, userID uint, page, limit int) ([]dto.UserSummaryResponse, error) {
	limit, offset := pageToOffset(page, limit)
	users, err := s.interactions.ListFollowing(ctx, userID, limit, offset)
	if err != nil {
		return nil, mapStorageErr("list following", err)
	}
	return dto.NewUserSummaryResponseSlice(users), nil
}

func (s *socialGraphService) ListFollowers(ctx context.Context, userID uint, page, limit int) ([]dto.UserSummaryResponse, error) {
	limit, offset := pageToOffset(page, limit)
	users, err := s.interactions.ListFollowers(ctx, userID, limit, offset)
	if err != nil {
		return nil, mapStorageErr("list followers", err)
	}
	return dto.NewUserSummaryResponseSlice(users), nil
}

func (s *socialGraphService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	following, err := s.interactions.IsFollowing(ctx, followerID, followedID)
	if err != nil {
		return false, mapStorageErr("check follow state", err)
	}
	return following, nil
}

func (s *socialGraphService) MutualFollowers(ctx context.Context, userID uint) ([]dto.UserSummaryResponse, error) {
	users, err := s.interactions.MutualFollowers(ctx, userID)
	if err != nil {
		return nil, mapStorageErr("list mutual followers", err)
	}
	return dto.NewUserSummaryResponseSlice(users), nil
}
