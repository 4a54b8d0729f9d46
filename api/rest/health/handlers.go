package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const version = "1.0.0"

// returns the server health status along with live session counts
func Handler(sessions SessionCounter, clients ClientCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Response{
			Status:   "healthy",
			Service:  "codepair",
			Version:  version,
			Sessions: sessions.SessionCount(),
			Clients:  clients.ClientCount(),
		})
	}
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{Message: "pong"})
}
