package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ripplehq/ripple-api/internal/domain"
	"github.com/ripplehq/ripple-api/internal/dto"
	"github.com/ripplehq/ripple-api/internal/models"
	"github.com/ripplehq/ripple-api/internal/observability"
	"github.com/ripplehq/ripple-api/internal/repository"
)

const notificationBufferSize = 16

// NotificationService turns committed interaction events into notification rows
// and streams them to connected recipients via SSE.
type NotificationService interface {
	NotificationFanout
	NotifyMessage(ctx context.Context, message models.Message, recipientID uint) (*dto.NotificationResponse, error)
	List(ctx context.Context, recipientID uint, page, limit int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, recipientID uint) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, recipientID uint) (int64, error)
	DeleteAll(ctx context.Context, recipientID uint) (int64, error)
	Subscribe(recipientID uint) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo        repository.NotificationRepository
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	dedupWindow time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	broker      *notificationBroker
	nodeID      string
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.NotificationResponse]struct{}
}

// NewNotificationService constructs the notification fanout.
func NewNotificationService(
	repo repository.NotificationRepository,
	redisClient *redis.Client,
	channelBase string,
	natsConn *nats.Conn,
	dedupWindow time.Duration,
	logger zerolog.Logger,
) NotificationService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:        repo,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		dedupWindow: dedupWindow,
		logger:      logger.With().Str("component", "notification_service").Logger(),
		tracer:      otel.Tracer("github.com/ripplehq/ripple-api/internal/service/notification"),
		broker: &notificationBroker{
			subscribers: make(map[uint]map[chan dto.NotificationResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// OnInteraction synthesizes the notification for a committed ledger event.
// Deactivations and self-interactions produce nothing; a rapid re-toggle within
// the dedup window refreshes the earlier unread row instead of inserting again.
func (s *notificationService) OnInteraction(ctx context.Context, event InteractionEvent) (*dto.NotificationResponse, error) {
	if !event.Activated {
		return nil, nil
	}
	if event.OwnerID == 0 || event.OwnerID == event.ActorID {
		return nil, nil
	}

	ntype, title, body := describeInteraction(event)
	if ntype == "" {
		return nil, nil
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.fanout", trace.WithAttributes(
		attribute.String("notification.type", ntype),
		attribute.Int("notification.recipient_id", int(event.OwnerID)),
	))
	defer span.End()

	// Dedup only collapses re-toggles of the same fact; every distinct comment
	// or share is new information and always lands.
	if s.dedupWindow > 0 && models.Toggleable(event.ActionType) {
		since := time.Now().Add(-s.dedupWindow)
		existing, err := s.repo.FindRecentUnread(spanCtx, event.OwnerID, ntype, event.ActorID, event.TargetType, event.TargetID, since)
		if err == nil {
			if touchErr := s.repo.Touch(spanCtx, &existing); touchErr != nil {
				s.logger.Warn().Err(touchErr).Uint("notification_id", existing.ID).Msg("failed to refresh deduplicated notification")
			}
			response := dto.NewNotificationResponse(existing)
			return &response, nil
		}
	}

	model := models.Notification{
		RecipientID: event.OwnerID,
		Type:        ntype,
		Title:       title,
		Body:        body,
		ActorID:     event.ActorID,
		TargetType:  event.TargetType,
		TargetID:    event.TargetID,
	}

	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return nil, mapStorageErr("create notification", err)
	}

	response := dto.NewNotificationResponse(model)
	s.deliver(spanCtx, response)

	return &response, nil
}

func (s *notificationService) NotifyMessage(ctx context.Context, message models.Message, recipientID uint) (*dto.NotificationResponse, error) {
	if recipientID == 0 || recipientID == message.SenderID {
		return nil, nil
	}

	model := models.Notification{
		RecipientID: recipientID,
		Type:        models.NotificationMessage,
		Title:       "New message",
		Body:        summarize(message.Content, 120),
		ActorID:     message.SenderID,
		TargetType:  "conversation",
		TargetID:    message.ConversationID,
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		return nil, mapStorageErr("create message notification", err)
	}

	response := dto.NewNotificationResponse(model)
	s.deliver(ctx, response)

	return &response, nil
}

func (s *notificationService) List(ctx context.Context, recipientID uint, page, limit int) ([]dto.NotificationResponse, error) {
	limit, offset := pageToOffset(page, limit)
	notifications, err := s.repo.ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, mapStorageErr("list notifications", err)
	}
	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, recipientID uint) (dto.NotificationResponse, error) {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.NotificationResponse{}, mapStorageErr("mark notification read", err)
	}
	if notification.RecipientID != recipientID {
		return dto.NotificationResponse{}, domain.Forbiddenf("notification %d does not belong to user %d", id, recipientID)
	}

	updated, err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return dto.NotificationResponse{}, mapStorageErr("mark notification read", err)
	}
	return dto.NewNotificationResponse(updated), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, mapStorageErr("mark all notifications read", err)
	}
	return updated, nil
}

func (s *notificationService) DeleteAll(ctx context.Context, recipientID uint) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx, recipientID)
	if err != nil {
		return 0, mapStorageErr("delete notifications", err)
	}
	return deleted, nil
}

func (s *notificationService) Subscribe(recipientID uint) (<-chan dto.NotificationResponse, func()) {
	channel := make(chan dto.NotificationResponse, notificationBufferSize)

	s.broker.subscribe(recipientID, channel)
	observability.SSEClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(recipientID, channel)
		observability.SSEClientsActive().Dec()
	}

	return channel, cleanup
}

func (s *notificationService) deliver(ctx context.Context, notification dto.NotificationResponse) {
	s.broker.broadcast(notification.RecipientID, notification)
	if err := s.publish(ctx, notification); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish notification event")
	}
	observability.NotificationsPublishedTotal().WithLabelValues(notification.Type).Inc()
}

func (s *notificationService) publish(ctx context.Context, notification dto.NotificationResponse) error {
	event := notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "ripple-notifications", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

func (s *notificationService) handleEvent(payload []byte) {
	var event notificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.broker.broadcast(event.Notification.RecipientID, event.Notification)
}

func describeInteraction(event InteractionEvent) (ntype, title, body string) {
	switch event.ActionType {
	case models.ActionLike:
		return models.NotificationLike, "New like",
			fmt.Sprintf("User %d liked your post", event.ActorID)
	case models.ActionComment:
		if event.TargetType != models.TargetPost {
			return "", "", ""
		}
		return models.NotificationComment, "New comment",
			fmt.Sprintf("User %d commented on your post", event.ActorID)
	case models.ActionFollow:
		return models.NotificationFollow, "New follower",
			fmt.Sprintf("User %d started following you", event.ActorID)
	case models.ActionShare:
		// Shares always notify the author; the policy is fixed here, not per call site.
		return models.NotificationShare, "Post shared",
			fmt.Sprintf("User %d shared your post", event.ActorID)
	default:
		return "", "", ""
	}
}

// summarize caps a preview at max runes, never splitting a multi-byte character.
func summarize(content string, max int) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max])
}

func (b *notificationBroker) subscribe(recipientID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[recipientID]; !exists {
		b.subscribers[recipientID] = make(map[chan dto.NotificationResponse]struct{})
	}
	b.subscribers[recipientID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(recipientID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[recipientID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, recipientID)
		}
	}
}

func (b *notificationBroker) broadcast(recipientID uint, notification dto.NotificationResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subscribers := b.subscribers[recipientID]
	for ch := range subscribers {
		select {
		case ch <- notification:
		default:
		}
	}
}
