package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	JWTSecret        string
	EventChannelBase string
	CommentMaxLength int
	StatsCacheTTL    time.Duration
	DedupWindow      time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RIPPLE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Ripple API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel_base", "ripple")
	v.SetDefault("comment.max_length", 1000)
	v.SetDefault("stats.cache_ttl", "30s")
	v.SetDefault("notifications.dedup_window", "15m")

	statsTTL, err := time.ParseDuration(v.GetString("stats.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	dedupWindow, err := time.ParseDuration(v.GetString("notifications.dedup_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid notification dedup window: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		EventChannelBase: v.GetString("events.channel_base"),
		CommentMaxLength: v.GetInt("comment.max_length"),
		StatsCacheTTL:    statsTTL,
		DedupWindow:      dedupWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.CommentMaxLength <= 0 {
		cfg.CommentMaxLength = 1000
	}

	return cfg, nil
}
