package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/ripplehq/ripple-api/internal/dto"
	"github.com/ripplehq/ripple-api/internal/service"
	"github.com/ripplehq/ripple-api/internal/utils"
)

// MessagingHandler serves direct conversations, their messages, and the
// websocket stream that delivers new messages live.
type MessagingHandler struct {
	messaging service.MessagingService
	stream    *service.MessageStream
	logger    zerolog.Logger
}

// NewMessagingHandler constructs a handler instance.
func NewMessagingHandler(messaging service.MessagingService, stream *service.MessageStream, logger zerolog.Logger) *MessagingHandler {
	return &MessagingHandler{
		messaging: messaging,
		stream:    stream,
		logger:    logger.With().Str("component", "messaging_handler").Logger(),
	}
}

// Register binds the messaging routes.
func (h *MessagingHandler) Register(router fiber.Router) {
	router.Get("/conversations", h.listConversations)
	router.Post("/conversations", h.openConversation)
	router.Get("/conversations/:id/messages", h.listMessages)
	router.Post("/conversations/:id/messages", h.sendMessage)

	router.Get("/stream", upgradeRequired, websocket.New(h.serveStream))
}

func (h *MessagingHandler) listConversations(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	conversations, err := h.messaging.ListConversations(requestContext(c), userID)
	if err != nil {
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "conversations", conversations)
}

func (h *MessagingHandler) openConversation(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.ConversationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	conversation, err := h.messaging.GetOrCreateConversation(requestContext(c), userID, payload.ParticipantID)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("participant_id", payload.ParticipantID).Msg("open conversation failed")
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "conversation ready", conversation)
}

func (h *MessagingHandler) listMessages(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	conversationID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid conversation id")
	}
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	messages, err := h.messaging.ListMessages(requestContext(c), conversationID, userID, page, limit)
	if err != nil {
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "messages", messages)
}

func (h *MessagingHandler) sendMessage(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	conversationID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid conversation id")
	}

	var payload dto.MessageSendRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	message, err := h.messaging.SendMessage(requestContext(c), conversationID, userID, payload)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("conversation_id", conversationID).Msg("send message failed")
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "message sent", message)
}

// upgradeRequired rejects plain HTTP requests on the websocket route and
// carries the authenticated user id across the upgrade.
func upgradeRequired(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals("stream_user_id", userIDFromContext(c))
	return c.Next()
}

func (h *MessagingHandler) serveStream(conn *websocket.Conn) {
	userID, _ := conn.Locals("stream_user_id").(uint)
	if userID == 0 {
		_ = conn.WriteJSON(fiber.Map{"error": "user not authenticated"})
		_ = conn.Close()
		return
	}

	h.stream.ServeConnection(conn, userID)
}
