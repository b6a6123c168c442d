package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
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

const lastMessageSummaryMax = 120

// MessagePusher delivers a freshly stored message to the recipient's live
// connections. Best-effort; delivery failures never fail the send.
type MessagePusher interface {
	Deliver(recipientID uint, message dto.MessageResponse)
}

// MessageNotifier is the subset of the notification service messaging drives.
type MessageNotifier interface {
	NotifyMessage(ctx context.Context, message models.Message, recipientID uint) (*dto.NotificationResponse, error)
}

// MessagingService groups direct messages into pair-canonical conversations
// and tracks per-participant unread state.
type MessagingService interface {
	GetOrCreateConversation(ctx context.Context, userID, participantID uint) (dto.ConversationResponse, error)
	ListConversations(ctx context.Context, userID uint) ([]dto.ConversationResponse, error)
	// ListMessages returns a chronological page and, as a side effect, marks
	// every message addressed to the reader in that conversation as read.
	ListMessages(ctx context.Context, conversationID, userID uint, page, limit int) ([]dto.MessageResponse, error)
	SendMessage(ctx context.Context, conversationID, senderID uint, payload dto.MessageSendRequest) (dto.MessageResponse, error)
}

type messagingService struct {
	conversations repository.ConversationRepository
	users         repository.UserRepository
	notifier      MessageNotifier
	pusher        MessagePusher
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	sanitizer     *bluemonday.Policy
}

// NewMessagingService constructs the conversation and messaging store.
func NewMessagingService(
	conversations repository.ConversationRepository,
	users repository.UserRepository,
	notifier MessageNotifier,
	pusher MessagePusher,
	validate *validator.Validate,
	logger zerolog.Logger,
) MessagingService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	return &messagingService{
		conversations: conversations,
		users:         users,
		notifier:      notifier,
		pusher:        pusher,
		validator:     validate,
		logger:        logger.With().Str("component", "messaging_service").Logger(),
		tracer:        otel.Tracer("github.com/ripplehq/ripple-api/internal/service/messaging"),
		sanitizer:     policy,
	}
}

func (s *messagingService) GetOrCreateConversation(ctx context.Context, userID, participantID uint) (dto.ConversationResponse, error) {
	if userID == participantID {
		return dto.ConversationResponse{}, domain.InvalidOperationf("cannot open a conversation with yourself")
	}

	if _, err := s.users.FindByID(ctx, participantID); err != nil {
		return dto.ConversationResponse{}, mapStorageErr("resolve participant", err)
	}

	conversation, err := s.conversations.GetOrCreate(ctx, userID, participantID)
	if err != nil {
		return dto.ConversationResponse{}, mapStorageErr("get or create conversation", err)
	}

	return dto.NewConversationResponse(conversation, userID, 0), nil
}

func (s *messagingService) ListConversations(ctx context.Context, userID uint) ([]dto.ConversationResponse, error) {
	conversations, err := s.conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, mapStorageErr("list conversations", err)
	}

	ids := make([]uint, 0, len(conversations))
	for _, conversation := range conversations {
		ids = append(ids, conversation.ID)
	}

	unread, err := s.conversations.UnreadCounts(ctx, userID, ids)
	if err != nil {
		return nil, mapStorageErr("count unread messages", err)
	}

	out := make([]dto.ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		out = append(out, dto.NewConversationResponse(conversation, userID, unread[conversation.ID]))
	}
	return out, nil
}

func (s *messagingService) ListMessages(ctx context.Context, conversationID, userID uint, page, limit int) ([]dto.MessageResponse, error) {
	conversation, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, mapStorageErr("resolve conversation", err)
	}
	if !conversation.HasParticipant(userID) {
		return nil, domain.Forbiddenf("user %d is not a participant of conversation %d", userID, conversationID)
	}

	// Listing doubles as the read receipt: everything addressed to the reader
	// flips to read before the page is fetched.
	if _, err := s.conversations.MarkMessagesRead(ctx, conversationID, userID); err != nil {
		return nil, mapStorageErr("mark messages read", err)
	}

	msgLimit, offset := pageToOffset(page, limit)
	messages, err := s.conversations.ListMessages(ctx, conversationID, msgLimit, offset)
	if err != nil {
		return nil, mapStorageErr("list messages", err)
	}

	return dto.NewMessageResponseSlice(messages), nil
}

func (s *messagingService) SendMessage(ctx context.Context, conversationID, senderID uint, payload dto.MessageSendRequest) (dto.MessageResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MessageResponse{}, domain.Validationf("invalid message payload")
	}

	conversation, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return dto.MessageResponse{}, mapStorageErr("resolve conversation", err)
	}
	if !conversation.HasParticipant(senderID) {
		return dto.MessageResponse{}, domain.Forbiddenf("user %d is not a participant of conversation %d", senderID, conversationID)
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.MessageResponse{}, domain.Validationf("message content is empty")
	}

	spanCtx, span := s.tracer.Start(ctx, "messaging.send", trace.WithAttributes(
		attribute.Int("conversation_id", int(conversationID)),
		attribute.Int("sender_id", int(senderID)),
	))
	defer span.End()

	message := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}

	if err := s.conversations.CreateMessage(spanCtx, &message, summarize(content, lastMessageSummaryMax)); err != nil {
		span.RecordError(err)
		return dto.MessageResponse{}, mapStorageErr("store message", err)
	}

	recipientID := conversation.OtherParticipant(senderID)
	response := dto.NewMessageResponse(message)

	if s.notifier != nil {
		if _, err := s.notifier.NotifyMessage(spanCtx, message, recipientID); err != nil {
			s.logger.Warn().Err(err).Uint("recipient_id", recipientID).Msg("message notification failed")
		}
	}
	if s.pusher != nil {
		s.pusher.Deliver(recipientID, response)
	}

	observability.MessagesSentTotal().Inc()

	return response, nil
}
