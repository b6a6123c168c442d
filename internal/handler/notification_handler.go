package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ripplehq/ripple-api/internal/service"
	"github.com/ripplehq/ripple-api/internal/utils"
)

const streamKeepAlive = 25 * time.Second

// NotificationHandler serves the notification inbox and its live SSE stream.
type NotificationHandler struct {
	notifications service.NotificationService
	logger        zerolog.Logger
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(notifications service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/stream", h.stream)
	router.Patch("/:id/read", h.markRead)
	router.Post("/read-all", h.markAllRead)
	router.Delete("/", h.deleteAll)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	recipientID := userIDFromContext(c)
	if recipientID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	items, err := h.notifications.List(requestContext(c), recipientID, page, limit)
	if err != nil {
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "notifications", items)
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	recipientID := userIDFromContext(c)
	if recipientID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid notification id")
	}

	item, err := h.notifications.MarkRead(requestContext(c), id, recipientID)
	if err != nil {
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "notification marked read", item)
}

func (h *NotificationHandler) markAllRead(c *fiber.Ctx) error {
	recipientID := userIDFromContext(c)
	if recipientID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	updated, err := h.notifications.MarkAllRead(requestContext(c), recipientID)
	if err != nil {
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "notifications marked read", fiber.Map{"updated": updated})
}

func (h *NotificationHandler) deleteAll(c *fiber.Ctx) error {
	recipientID := userIDFromContext(c)
	if recipientID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	deleted, err := h.notifications.DeleteAll(requestContext(c), recipientID)
	if err != nil {
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "notifications cleared", fiber.Map{"deleted": deleted})
}

// stream pushes notifications to the client as server-sent events. The
// subscription is torn down when the client disconnects or the write fails.
func (h *NotificationHandler) stream(c *fiber.Ctx) error {
	recipientID := userIDFromContext(c)
	if recipientID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	events, cancel := h.notifications.Subscribe(recipientID)
	log := h.logger.With().Uint("recipient_id", recipientID).Logger()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		if err := writeStreamComment(w, "connected"); err != nil {
			return
		}

		ticker := time.NewTicker(streamKeepAlive)
		defer ticker.Stop()

		for {
			select {
			case item, ok := <-events:
				if !ok {
					return
				}
				if err := writeStreamEvent(w, item); err != nil {
					log.Debug().Err(err).Msg("sse write failed, closing stream")
					return
				}
			case <-ticker.C:
				if err := writeStreamComment(w, "keep-alive"); err != nil {
					return
				}
			}
		}
	})

	return nil
}

func writeStreamEvent(w *bufio.Writer, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: notification\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}

func writeStreamComment(w *bufio.Writer, text string) error {
	if _, err := fmt.Fprintf(w, ": %s %s\n\n", text, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
