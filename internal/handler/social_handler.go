package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ripplehq/ripple-api/internal/service"
	"github.com/ripplehq/ripple-api/internal/utils"
)

// SocialHandler exposes follow toggles and social graph queries.
type SocialHandler struct {
	ledger   service.LedgerService
	graph    service.SocialGraphService
	counters service.CounterService
	logger   zerolog.Logger
}

// NewSocialHandler constructs a handler instance.
func NewSocialHandler(ledger service.LedgerService, graph service.SocialGraphService, counters service.CounterService, logger zerolog.Logger) *SocialHandler {
	return &SocialHandler{
		ledger:   ledger,
		graph:    graph,
		counters: counters,
		logger:   logger.With().Str("component", "social_handler").Logger(),
	}
}

// Register binds the user-scoped social routes.
func (h *SocialHandler) Register(router fiber.Router) {
	router.Post("/:id/follow", h.follow)
	router.Get("/:id/followers", h.followers)
	router.Get("/:id/following", h.following)
	router.Get("/:id/mutuals", h.mutuals)
	router.Post("/:id/recompute-follows", h.recomputeFollows)
}

func (h *SocialHandler) follow(c *fiber.Ctx) error {
	actorID := userIDFromContext(c)
	if actorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	userID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	result, err := h.ledger.ToggleFollow(requestContext(c), actorID, userID)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("user_id", userID).Msg("follow toggle failed")
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "follow toggled", result)
}

func (h *SocialHandler) followers(c *fiber.Ctx) error {
	userID, page, limit, err := relationQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	users, err := h.graph.ListFollowers(requestContext(c), userID, page, limit)
	if err != nil {
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "followers", users)
}

func (h *SocialHandler) following(c *fiber.Ctx) error {
	userID, page, limit, err := relationQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	users, err := h.graph.ListFollowing(requestContext(c), userID, page, limit)
	if err != nil {
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "following", users)
}

func (h *SocialHandler) mutuals(c *fiber.Ctx) error {
	userID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	users, err := h.graph.MutualFollowers(requestContext(c), userID)
	if err != nil {
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "mutual followers", users)
}

func (h *SocialHandler) recomputeFollows(c *fiber.Ctx) error {
	userID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	followers, following, err := h.counters.RecomputeUserFollows(requestContext(c), userID)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("user_id", userID).Msg("follow recompute failed")
		return sendDomainError(c, err)
	}

	return utils.SendSuccess(c, "follow counters recomputed", fiber.Map{
		"followers": followers,
		"following": following,
	})
}

func relationQuery(c *fiber.Ctx) (userID uint, page, limit int, err error) {
	userID, err = parseParamID(c, "id")
	if err != nil {
		return 0, 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	page, err = parseQueryInt(c, "page")
	if err != nil {
		return 0, 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid page")
	}
	limit, err = parseQueryInt(c, "limit")
	if err != nil {
		return 0, 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid limit")
	}
	return userID, page, limit, nil
}
