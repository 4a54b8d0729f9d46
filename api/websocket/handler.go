package websocket

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/codepair/server/internal/errors"
	"codeberg.org/codepair/server/internal/logger"
	ws "codeberg.org/codepair/server/internal/websocket"
)

type Options struct {
	// origins accepted in production
	AllowedOrigins []string

	Production bool

	// inbound messages allowed per connection per second, zero for no limit
	MessagesPerSecond int
}

// upgrades to a websocket connection for live code block sessions.
// a codeblock query parameter joins that block right away; otherwise the
// client sends joinCodeBlock itself.
func WebSocketHandler(hub *ws.Hub, opts Options) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     ws.NewOriginChecker(opts.AllowedOrigins, opts.Production),
	}

	return func(c *gin.Context) {
		var params ConnectParams
		if err := c.ShouldBindQuery(&params); err != nil {
			errors.BadRequest(c, "invalid parameters", err)
			return
		}

		ipAddress := c.ClientIP()

		// upgrade HTTP connection to WebSocket
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("failed to upgrade connection",
				"ip", ipAddress,
				"error", err,
			)

			return
		}

		clientID := ws.GenerateClientID()
		client := ws.NewClient(clientID, ipAddress, params.Identity, opts.MessagesPerSecond, conn, hub)

		if err := hub.Register(client); err != nil {
			conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck,gosec // G104: best-effort close
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server is shutting down"))
			conn.Close() //nolint:errcheck,gosec // G104: cleanup
			return
		}

		go client.WritePump()

		if params.CodeBlockID != "" {
			payload, _ := json.Marshal(params.CodeBlockID) //nolint:errchkjson // string always marshals
			hub.Dispatch(client, &ws.Message{
				Type:     ws.TypeJoinCodeBlock,
				Payload:  payload,
				ClientID: clientID,
			})
		}

		go client.ReadPump()

		logger.Info("websocket connection established",
			"client_id", clientID,
			"codeblock", params.CodeBlockID,
			"ip", ipAddress,
		)
	}
}
