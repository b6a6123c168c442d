package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ripplehq/ripple-api/internal/dto"
	"github.com/ripplehq/ripple-api/internal/models"
	"github.com/ripplehq/ripple-api/internal/repository"
)

// CounterService projects committed ledger events onto the denormalized
// counters cached on post and user summary rows.
//
// The projector applies plain increments and decrements. That is sound because
// the ledger delivers each committed transition exactly once: the call happens
// synchronously under the per-tuple toggle lock, so no event is duplicated or
// dropped in-process. Recompute is the repair path when the cached value has
// drifted anyway (crash between ledger write and projection, manual edits).
type CounterService interface {
	CounterApplier
	RecomputePost(ctx context.Context, postID uint) (dto.PostStatsResponse, error)
	RecomputeUserFollows(ctx context.Context, userID uint) (followers, following int64, err error)
}

type counterService struct {
	interactions repository.InteractionRepository
	posts        repository.PostRepository
	users        repository.UserRepository
	logger       zerolog.Logger
}

// NewCounterService constructs the counter projector.
func NewCounterService(
	interactions repository.InteractionRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	logger zerolog.Logger,
) CounterService {
	return &counterService{
		interactions: interactions,
		posts:        posts,
		users:        users,
		logger:       logger.With().Str("component", "counter_service").Logger(),
	}
}

func (s *counterService) Apply(ctx context.Context, event InteractionEvent) error {
	delta := int64(1)
	if !event.Activated {
		delta = -1
	}

	switch event.ActionType {
	case models.ActionLike:
		if event.TargetType != models.TargetPost {
			return nil
		}
		return s.posts.AdjustCounter(ctx, event.TargetID, repository.PostCounterLikes, delta)
	case models.ActionComment:
		if event.TargetType != models.TargetPost || !event.Activated {
			// Comments are append-only; there is no decrement event.
			return nil
		}
		return s.posts.AdjustCounter(ctx, event.TargetID, repository.PostCounterComments, 1)
	case models.ActionShare:
		if event.TargetType != models.TargetPost || !event.Activated {
			return nil
		}
		return s.posts.AdjustCounter(ctx, event.TargetID, repository.PostCounterShares, 1)
	case models.ActionFollow:
		return s.users.AdjustFollowCounters(ctx, event.ActorID, event.TargetID, delta)
	default:
		return nil
	}
}

func (s *counterService) RecomputePost(ctx context.Context, postID uint) (dto.PostStatsResponse, error) {
	stats := dto.PostStatsResponse{PostID: postID}

	counters := []struct {
		action string
		column string
		dest   *int64
	}{
		{models.ActionLike, repository.PostCounterLikes, &stats.Likes},
		{models.ActionComment, repository.PostCounterComments, &stats.Comments},
		{models.ActionShare, repository.PostCounterShares, &stats.Shares},
	}

	for _, counter := range counters {
		count, err := s.interactions.CountActive(ctx, models.TargetPost, postID, counter.action)
		if err != nil {
			return dto.PostStatsResponse{}, fmt.Errorf("count %s interactions: %w", counter.action, err)
		}
		if err := s.posts.SetCounter(ctx, postID, counter.column, count); err != nil {
			return dto.PostStatsResponse{}, fmt.Errorf("store %s counter: %w", counter.column, err)
		}
		*counter.dest = count
	}

	s.logger.Debug().Uint("post_id", postID).
		Int64("likes", stats.Likes).
		Int64("comments", stats.Comments).
		Int64("shares", stats.Shares).
		Msg("post counters recomputed")

	return stats, nil
}

func (s *counterService) RecomputeUserFollows(ctx context.Context, userID uint) (int64, int64, error) {
	followers, err := s.interactions.CountActive(ctx, models.TargetUser, userID, models.ActionFollow)
	if err != nil {
		return 0, 0, fmt.Errorf("count followers: %w", err)
	}

	following, err := s.interactions.CountActiveByActor(ctx, userID, models.ActionFollow)
	if err != nil {
		return 0, 0, fmt.Errorf("count following: %w", err)
	}

	if err := s.users.SetFollowCounters(ctx, userID, followers, following); err != nil {
		return 0, 0, fmt.Errorf("store follow counters: %w", err)
	}

	return followers, following, nil
}
