package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ripplehq/ripple-api/internal/config"
	"github.com/ripplehq/ripple-api/internal/database"
	"github.com/ripplehq/ripple-api/internal/handler"
	"github.com/ripplehq/ripple-api/internal/middleware"
	"github.com/ripplehq/ripple-api/internal/models"
	"github.com/ripplehq/ripple-api/internal/repository"
	"github.com/ripplehq/ripple-api/internal/router"
	"github.com/ripplehq/ripple-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Interaction{},
		&models.Notification{},
		&models.Conversation{},
		&models.Message{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis and NATS are optional; without them the node still works but
	// stats are uncached and live events stay node-local.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, running without cache or cross-node pubsub")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	interactionRepo := repository.NewInteractionRepository(db)
	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	conversationRepo := repository.NewConversationRepository(db)

	counterService := service.NewCounterService(interactionRepo, postRepo, userRepo, logger)
	notificationService := service.NewNotificationService(
		notificationRepo, redisClient, cfg.EventChannelBase, natsConn, cfg.DedupWindow, logger,
	)
	messageStream := service.NewMessageStream(logger)
	ledgerService := service.NewLedgerService(
		interactionRepo, postRepo, userRepo, counterService, notificationService,
		validate, cfg.CommentMaxLength, logger,
	)
	messagingService := service.NewMessagingService(
		conversationRepo, userRepo, notificationService, messageStream, validate, logger,
	)
	socialGraphService := service.NewSocialGraphService(interactionRepo, logger)
	statsService := service.NewStatsService(postRepo, counterService, redisClient, cfg.StatsCacheTTL, logger)

	rootCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()
	notificationService.Start(rootCtx)

	interactionHandler := handler.NewInteractionHandler(ledgerService, statsService, logger)
	socialHandler := handler.NewSocialHandler(ledgerService, socialGraphService, counterService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)
	messagingHandler := handler.NewMessagingHandler(messagingService, messageStream, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		InteractionHandler:  interactionHandler,
		SocialHandler:       socialHandler,
		NotificationHandler: notificationHandler,
		MessagingHandler:    messagingHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
