package websocket

import (
	"github.com/gin-gonic/gin"

	ws "codeberg.org/codepair/server/internal/websocket"
)

func RegisterRoutes(router gin.IRoutes, hub *ws.Hub, opts Options) {
	router.GET("/ws", WebSocketHandler(hub, opts))
}
