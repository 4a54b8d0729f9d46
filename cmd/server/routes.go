package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/codepair/server/api/rest/codeblocks"
	"codeberg.org/codepair/server/api/rest/health"
	"codeberg.org/codepair/server/api/websocket"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(CORSMiddleware(server.config))
	router.GET("/health", health.Handler(server.coordinator, server.hub))

	api := router.Group("/api")

	{
		api.GET("/ping", health.PingHandler)

		codeblocks.RegisterRoutes(api, server.catalog, server.aggregator, server.ratingLimit)
	}

	websocket.RegisterRoutes(router, server.hub, websocket.Options{
		AllowedOrigins:    server.config.AllowedOrigins,
		Production:        server.config.IsProduction(),
		MessagesPerSecond: server.config.WSMessagesPerSecond,
	})
}
