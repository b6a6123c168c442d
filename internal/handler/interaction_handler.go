package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ripplehq/ripple-api/internal/dto"
	"github.com/ripplehq/ripple-api/internal/service"
	"github.com/ripplehq/ripple-api/internal/utils"
)

// InteractionHandler exposes the ledger write path and comment listings.
type InteractionHandler struct {
	ledger service.LedgerService
	stats  service.StatsService
	logger zerolog.Logger
}

// NewInteractionHandler constructs a handler instance.
func NewInteractionHandler(ledger service.LedgerService, stats service.StatsService, logger zerolog.Logger) *InteractionHandler {
	return &InteractionHandler{
		ledger: ledger,
		stats:  stats,
		logger: logger.With().Str("component", "interaction_handler").Logger(),
	}
}

// RegisterPosts binds the post-scoped interaction routes.
func (h *InteractionHandler) RegisterPosts(router fiber.Router) {
	router.Post("/:id/like", h.like)
	router.Post("/:id/share", h.share)
	router.Get("/:id/stats", h.postStats)
	router.Post("/:id/recompute", h.recompute)
}

// RegisterInteractions binds the target-agnostic interaction routes.
func (h *InteractionHandler) RegisterInteractions(router fiber.Router) {
	router.Post("/comments", h.comment)
	router.Get("/comments", h.listComments)
	router.Post("/reports", h.report)
}

func (h *InteractionHandler) like(c *fiber.Ctx) error {
	actorID := userIDFromContext(c)
	if actorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	postID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid post id")
	}

	result, err := h.ledger.ToggleLike(requestContext(c), actorID, postID)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("post_id", postID).Msg("like toggle failed")
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "like toggled", result)
}

func (h *InteractionHandler) share(c *fiber.Ctx) error {
	actorID := userIDFromContext(c)
	if actorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	postID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid post id")
	}

	result, err := h.ledger.RecordShare(requestContext(c), actorID, postID)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("post_id", postID).Msg("share failed")
		return sendDomainError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "post shared", result)
}

func (h *InteractionHandler) postStats(c *fiber.Ctx) error {
	postID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid post id")
	}

	stats, err := h.stats.PostStats(requestContext(c), postID)
	if err != nil {
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "post stats", stats)
}

func (h *InteractionHandler) recompute(c *fiber.Ctx) error {
	postID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid post id")
	}

	stats, err := h.stats.RecomputePost(requestContext(c), postID)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("post_id", postID).Msg("counter recompute failed")
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "post counters recomputed", stats)
}

func (h *InteractionHandler) comment(c *fiber.Ctx) error {
	actorID := userIDFromContext(c)
	if actorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.ledger.RecordComment(requestContext(c), actorID, payload)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("comment failed")
		return sendDomainError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment created", result)
}

func (h *InteractionHandler) listComments(c *fiber.Ctx) error {
	var query dto.CommentListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	comments, err := h.ledger.ListComments(requestContext(c), query)
	if err != nil {
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "comments", comments)
}

func (h *InteractionHandler) report(c *fiber.Ctx) error {
	actorID := userIDFromContext(c)
	if actorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.ReportCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.ledger.RecordReport(requestContext(c), actorID, payload); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("report failed")
		return sendDomainError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "report recorded", nil)
}
