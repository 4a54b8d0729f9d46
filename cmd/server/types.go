package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"codeberg.org/codepair/server/codepair/codeblocks"
	"codeberg.org/codepair/server/internal/config"
	"codeberg.org/codepair/server/internal/ratings"
	"codeberg.org/codepair/server/internal/sessions"
	ws "codeberg.org/codepair/server/internal/websocket"
)

// holds all dependencies and state for the API server
type Server struct {
	config      *config.Config
	catalog     catalogStore
	redis       *redis.Client
	aggregator  *ratings.Aggregator
	coordinator *sessions.Coordinator
	hub         *ws.Hub
	router      *gin.Engine
	ratingLimit gin.HandlerFunc
}

// a code block store that can be seeded at startup
type catalogStore interface {
	codeblocks.Store
	Seed(ctx context.Context, seeds []codeblocks.Seed) error
}
