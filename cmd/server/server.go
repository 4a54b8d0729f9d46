package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"codeberg.org/codepair/server/codepair/codeblocks"
	"codeberg.org/codepair/server/internal/config"
	"codeberg.org/codepair/server/internal/logger"
	"codeberg.org/codepair/server/internal/ratings"
	"codeberg.org/codepair/server/internal/sessions"
	ws "codeberg.org/codepair/server/internal/websocket"
)

// creates and configures a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	catalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := catalog.Seed(ctx, codeblocks.DefaultSeeds); err != nil {
		catalog.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to seed code blocks: %w", err)
	}

	var redisClient *redis.Client
	var ratingStore ratings.Store = ratings.NewCatalogStore(catalog)

	if cfg.RedisURL != "" {
		redisClient, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			catalog.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
			return nil, err
		}

		ratingStore = ratings.NewRedisStore(redisClient, catalog)

		logger.Info("using redis for ratings and rate limiting")
	}

	ratingLimit, err := NewRatingLimiter(cfg.RatingRateLimit, redisClient)
	if err != nil {
		closeAll(catalog, redisClient)
		return nil, fmt.Errorf("failed to create rating limiter: %w", err)
	}

	hub := ws.NewHub()

	coordinator := sessions.NewCoordinator(sessions.NewRegistry(catalog), hub, sessions.Options{
		MentorReadOnly:     cfg.MentorReadOnly,
		MentorReclaimGrace: cfg.MentorReclaimGrace,
		MaxCodeSize:        cfg.MaxCodeSize,
	})

	// joinCodeBlock / codeChange / ping, and the leave path on disconnect
	ws.RegisterSessionHandlers(hub, coordinator)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	server := &Server{
		config:      cfg,
		catalog:     catalog,
		redis:       redisClient,
		aggregator:  ratings.NewAggregator(ratingStore),
		coordinator: coordinator,
		hub:         hub,
		router:      router,
		ratingLimit: ratingLimit,
	}

	RegisterRoutes(router, server)

	return server, nil
}

// postgres when a connection string is configured, sqlite otherwise
func openCatalog(ctx context.Context, cfg *config.Config) (catalogStore, error) {
	if cfg.DatabaseURL != "" {
		repo, err := codeblocks.NewRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres catalog: %w", err)
		}

		logger.Info("using postgres code block catalog")

		return repo, nil
	}

	repo, err := codeblocks.NewSQLiteRepository(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
	}

	logger.Info("using sqlite code block catalog", "path", cfg.SQLitePath)

	return repo, nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// releases storage connections
func (s *Server) Close() {
	closeAll(s.catalog, s.redis)
}

func closeAll(catalog catalogStore, redisClient *redis.Client) {
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}

	if err := catalog.Close(); err != nil {
		logger.Warn("failed to close code block catalog", "error", err)
	}
}
