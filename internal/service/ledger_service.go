package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/ripplehq/ripple-api/internal/domain"
	"github.com/ripplehq/ripple-api/internal/dto"
	"github.com/ripplehq/ripple-api/internal/models"
	"github.com/ripplehq/ripple-api/internal/observability"
	"github.com/ripplehq/ripple-api/internal/repository"
)

// NotificationFanout is the subset of the notification service the ledger
// drives. Fanout failures are logged by the caller and never fail the write.
type NotificationFanout interface {
	OnInteraction(ctx context.Context, event InteractionEvent) (*dto.NotificationResponse, error)
}

// CounterApplier is the projector interface consumed by the ledger.
type CounterApplier interface {
	Apply(ctx context.Context, event InteractionEvent) error
}

// LedgerService is the interaction ledger: the single write path for likes,
// follows, comments, shares and reports.
type LedgerService interface {
	ToggleLike(ctx context.Context, actorID, postID uint) (dto.ToggleLikeResponse, error)
	ToggleFollow(ctx context.Context, actorID, userID uint) (dto.ToggleFollowResponse, error)
	RecordComment(ctx context.Context, actorID uint, payload dto.CommentCreateRequest) (dto.CommentCreateResponse, error)
	RecordShare(ctx context.Context, actorID, postID uint) (dto.ShareResponse, error)
	RecordReport(ctx context.Context, actorID uint, payload dto.ReportCreateRequest) error
	ListComments(ctx context.Context, query dto.CommentListQuery) ([]dto.CommentResponse, error)
}

type ledgerService struct {
	interactions   repository.InteractionRepository
	posts          repository.PostRepository
	users          repository.UserRepository
	counters       CounterApplier
	fanout         NotificationFanout
	validator      *validator.Validate
	logger         zerolog.Logger
	tracer         trace.Tracer
	sanitizer      *bluemonday.Policy
	toggles        *keyedMutex
	commentMaxSize int
}

// NewLedgerService constructs the interaction ledger.
func NewLedgerService(
	interactions repository.InteractionRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	counters CounterApplier,
	fanout NotificationFanout,
	validate *validator.Validate,
	commentMaxSize int,
	logger zerolog.Logger,
) LedgerService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	if commentMaxSize <= 0 {
		commentMaxSize = 1000
	}

	return &ledgerService{
		interactions:   interactions,
		posts:          posts,
		users:          users,
		counters:       counters,
		fanout:         fanout,
		validator:      validate,
		logger:         logger.With().Str("component", "ledger_service").Logger(),
		tracer:         otel.Tracer("github.com/ripplehq/ripple-api/internal/service/ledger"),
		sanitizer:      policy,
		toggles:        newKeyedMutex(),
		commentMaxSize: commentMaxSize,
	}
}

func (s *ledgerService) ToggleLike(ctx context.Context, actorID, postID uint) (dto.ToggleLikeResponse, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return dto.ToggleLikeResponse{}, mapStorageErr("resolve post", err)
	}

	unlock := s.toggles.Lock(tupleKey(actorID, models.TargetPost, postID, models.ActionLike))
	defer unlock()

	spanCtx, span := s.tracer.Start(ctx, "ledger.toggle_like", trace.WithAttributes(
		attribute.Int("actor_id", int(actorID)),
		attribute.Int("post_id", int(postID)),
	))
	defer span.End()

	activated, row, err := s.interactions.Toggle(spanCtx, actorID, models.TargetPost, postID, models.ActionLike)
	if err != nil {
		span.RecordError(err)
		return dto.ToggleLikeResponse{}, mapStorageErr("toggle like", err)
	}

	event := InteractionEvent{
		InteractionID: row.ID,
		ActorID:       actorID,
		TargetType:    models.TargetPost,
		TargetID:      postID,
		ActionType:    models.ActionLike,
		Activated:     activated,
		OwnerID:       post.AuthorID,
	}

	s.project(spanCtx, event)
	s.notify(spanCtx, event)
	observability.InteractionsTotal().WithLabelValues(models.ActionLike, toggleState(activated)).Inc()

	likeCount := s.currentPostCounter(spanCtx, postID, repository.PostCounterLikes, post.Likes)

	return dto.ToggleLikeResponse{Liked: activated, LikeCount: likeCount}, nil
}

func (s *ledgerService) ToggleFollow(ctx context.Context, actorID, userID uint) (dto.ToggleFollowResponse, error) {
	if actorID == userID {
		return dto.ToggleFollowResponse{}, domain.InvalidOperationf("user %d cannot follow themselves", userID)
	}

	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return dto.ToggleFollowResponse{}, mapStorageErr("resolve user", err)
	}

	unlock := s.toggles.Lock(tupleKey(actorID, models.TargetUser, userID, models.ActionFollow))
	defer unlock()

	spanCtx, span := s.tracer.Start(ctx, "ledger.toggle_follow", trace.WithAttributes(
		attribute.Int("actor_id", int(actorID)),
		attribute.Int("user_id", int(userID)),
	))
	defer span.End()

	activated, row, err := s.interactions.Toggle(spanCtx, actorID, models.TargetUser, userID, models.ActionFollow)
	if err != nil {
		span.RecordError(err)
		return dto.ToggleFollowResponse{}, mapStorageErr("toggle follow", err)
	}

	event := InteractionEvent{
		InteractionID: row.ID,
		ActorID:       actorID,
		TargetType:    models.TargetUser,
		TargetID:      userID,
		ActionType:    models.ActionFollow,
		Activated:     activated,
		OwnerID:       target.ID,
	}

	s.project(spanCtx, event)
	s.notify(spanCtx, event)
	observability.InteractionsTotal().WithLabelValues(models.ActionFollow, toggleState(activated)).Inc()

	return dto.ToggleFollowResponse{Following: activated}, nil
}

func (s *ledgerService) RecordComment(ctx context.Context, actorID uint, payload dto.CommentCreateRequest) (dto.CommentCreateResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentCreateResponse{}, domain.Validationf("invalid comment payload")
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.CommentCreateResponse{}, domain.Validationf("comment content is empty")
	}
	if len(content) > s.commentMaxSize {
		return dto.CommentCreateResponse{}, domain.Validationf("comment exceeds %d characters", s.commentMaxSize)
	}

	ownerID := uint(0)
	if payload.TargetType == models.TargetPost {
		post, err := s.posts.FindByID(ctx, payload.TargetID)
		if err != nil {
			return dto.CommentCreateResponse{}, mapStorageErr("resolve post", err)
		}
		ownerID = post.AuthorID
	}

	spanCtx, span := s.tracer.Start(ctx, "ledger.record_comment", trace.WithAttributes(
		attribute.Int("actor_id", int(actorID)),
		attribute.String("target_type", payload.TargetType),
		attribute.Int("target_id", int(payload.TargetID)),
	))
	defer span.End()

	row := models.Interaction{
		ActorID:    actorID,
		TargetType: payload.TargetType,
		TargetID:   payload.TargetID,
		ActionType: models.ActionComment,
		Content:    content,
		Active:     true,
	}

	if err := s.interactions.Record(spanCtx, &row); err != nil {
		span.RecordError(err)
		return dto.CommentCreateResponse{}, mapStorageErr("record comment", err)
	}

	event := InteractionEvent{
		InteractionID: row.ID,
		ActorID:       actorID,
		TargetType:    payload.TargetType,
		TargetID:      payload.TargetID,
		ActionType:    models.ActionComment,
		Activated:     true,
		OwnerID:       ownerID,
	}

	s.project(spanCtx, event)
	s.notify(spanCtx, event)
	observability.InteractionsTotal().WithLabelValues(models.ActionComment, "recorded").Inc()

	commentCount := int64(0)
	if payload.TargetType == models.TargetPost {
		commentCount = s.currentPostCounter(spanCtx, payload.TargetID, repository.PostCounterComments, 0)
	}

	return dto.CommentCreateResponse{
		Comment:      dto.NewCommentResponse(row),
		CommentCount: commentCount,
	}, nil
}

func (s *ledgerService) RecordShare(ctx context.Context, actorID, postID uint) (dto.ShareResponse, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return dto.ShareResponse{}, mapStorageErr("resolve post", err)
	}

	spanCtx, span := s.tracer.Start(ctx, "ledger.record_share", trace.WithAttributes(
		attribute.Int("actor_id", int(actorID)),
		attribute.Int("post_id", int(postID)),
	))
	defer span.End()

	row := models.Interaction{
		ActorID:    actorID,
		TargetType: models.TargetPost,
		TargetID:   postID,
		ActionType: models.ActionShare,
		Active:     true,
	}

	if err := s.interactions.Record(spanCtx, &row); err != nil {
		span.RecordError(err)
		return dto.ShareResponse{}, mapStorageErr("record share", err)
	}

	event := InteractionEvent{
		InteractionID: row.ID,
		ActorID:       actorID,
		TargetType:    models.TargetPost,
		TargetID:      postID,
		ActionType:    models.ActionShare,
		Activated:     true,
		OwnerID:       post.AuthorID,
	}

	s.project(spanCtx, event)
	s.notify(spanCtx, event)
	observability.InteractionsTotal().WithLabelValues(models.ActionShare, "recorded").Inc()

	return dto.ShareResponse{
		ShareCount: s.currentPostCounter(spanCtx, postID, repository.PostCounterShares, post.Shares+1),
	}, nil
}

func (s *ledgerService) RecordReport(ctx context.Context, actorID uint, payload dto.ReportCreateRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return domain.Validationf("invalid report payload")
	}

	row := models.Interaction{
		ActorID:    actorID,
		TargetType: payload.TargetType,
		TargetID:   payload.TargetID,
		ActionType: models.ActionReport,
		Content:    strings.TrimSpace(s.sanitizer.Sanitize(payload.Content)),
		Active:     true,
	}

	if err := s.interactions.Record(ctx, &row); err != nil {
		return mapStorageErr("record report", err)
	}

	// Reports feed moderation tooling only: no counters, no notifications.
	observability.InteractionsTotal().WithLabelValues(models.ActionReport, "recorded").Inc()
	return nil
}

func (s *ledgerService) ListComments(ctx context.Context, query dto.CommentListQuery) ([]dto.CommentResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, domain.Validationf("invalid comment query")
	}

	limit, offset := pageToOffset(query.Page, query.Limit)
	comments, err := s.interactions.ListComments(ctx, query.TargetType, query.TargetID, limit, offset)
	if err != nil {
		return nil, mapStorageErr("list comments", err)
	}

	return dto.NewCommentResponseSlice(comments), nil
}

func (s *ledgerService) project(ctx context.Context, event InteractionEvent) {
	if s.counters == nil {
		return
	}
	if err := s.counters.Apply(ctx, event); err != nil {
		// Ledger truth wins; recompute repairs the cached counter later.
		s.logger.Warn().Err(err).
			Str("action_type", event.ActionType).
			Uint("target_id", event.TargetID).
			Msg("counter projection failed")
	}
}

func (s *ledgerService) notify(ctx context.Context, event InteractionEvent) {
	if s.fanout == nil {
		return
	}
	if _, err := s.fanout.OnInteraction(ctx, event); err != nil {
		s.logger.Warn().Err(err).
			Str("action_type", event.ActionType).
			Uint("recipient_id", event.OwnerID).
			Msg("notification fanout failed")
	}
}

func (s *ledgerService) currentPostCounter(ctx context.Context, postID uint, column string, fallback int64) int64 {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("post_id", postID).Msg("failed to reload post counters")
		return fallback
	}

	switch column {
	case repository.PostCounterLikes:
		return post.Likes
	case repository.PostCounterComments:
		return post.Comments
	case repository.PostCounterShares:
		return post.Shares
	default:
		return fallback
	}
}

func tupleKey(actorID uint, targetType string, targetID uint, actionType string) string {
	return fmt.Sprintf("%d:%s:%d:%s", actorID, targetType, targetID, actionType)
}

func toggleState(activated bool) string {
	if activated {
		return "activated"
	}
	return "deactivated"
}

func pageToOffset(page, limit int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

func mapStorageErr(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFoundf("%s", op)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	default:
		return domain.Storagef(op, err)
	}
}
