package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ripplehq/ripple-api/internal/config"
	"github.com/ripplehq/ripple-api/internal/handler"
	"github.com/ripplehq/ripple-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	InteractionHandler  *handler.InteractionHandler
	SocialHandler       *handler.SocialHandler
	NotificationHandler *handler.NotificationHandler
	MessagingHandler    *handler.MessagingHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Interaction ledger (post reactions, comments, reports)
	if deps.InteractionHandler != nil {
		posts := app.Group("/api/v2/posts", jwtMiddleware)
		deps.InteractionHandler.RegisterPosts(posts)

		interactions := app.Group("/api/v2/interactions", jwtMiddleware)
		deps.InteractionHandler.RegisterInteractions(interactions)
	}

	// Social graph (follows and relationship queries)
	if deps.SocialHandler != nil {
		users := app.Group("/api/v2/users", jwtMiddleware)
		deps.SocialHandler.Register(users)
	}

	// Notification inbox and live stream
	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/v2/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	// Direct messaging
	if deps.MessagingHandler != nil {
		messages := app.Group("/api/v2/messages", jwtMiddleware)
		deps.MessagingHandler.Register(messages)
	}
}
