package handlers

import (
	"context"
	"net/http"

	"coderanker/api/middleware"
	"coderanker/pkg/logger"
	"coderanker/pkg/messages"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// SocketServer takes over an upgraded websocket of an authenticated user.
type SocketServer interface {
	ServeWS(ctx context.Context, ws *websocket.Conn, userID string)
}

// WSHandler upgrades the realtime connections into the hub.
type WSHandler struct {
	server   SocketServer
	upgrader websocket.Upgrader
	log      logger.Logger
	Auth     *middleware.Auth
}

// NewWSHandler creates a new instance of the websocket handler.
func NewWSHandler(server SocketServer, auth *middleware.Auth, log logger.Logger) *WSHandler {
	return &WSHandler{
		server: server,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browsers connect from any origin, the token is checked before the upgrade.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:  log,
		Auth: auth,
	}
}

// Serve upgrades the request and blocks until the connection ends.
// Browsers can't set headers on a websocket, the token comes in the query.
func (h *WSHandler) Serve(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": messages.Unauthorized})
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already wrote the error response.
		h.log.Warnf("websocket upgrade failed: %v", err)
		return
	}

	// The request context ends with the handler, the hub gets a detached one.
	h.server.ServeWS(context.WithoutCancel(c.Request.Context()), ws, identity.UserID)
}
