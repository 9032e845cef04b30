package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/codewithme13/signai-server/internal/auth"
	"github.com/codewithme13/signai-server/internal/signal"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Gateway upgrades authenticated HTTP requests to WebSocket sessions and
// bridges them to the signaling router.
type Gateway struct {
	log      *slog.Logger
	router   *signal.Router
	tokens   *auth.Manager
	upgrader websocket.Upgrader
}

func New(router *signal.Router, tokens *auth.Manager, log *slog.Logger) *Gateway {
	return &Gateway{
		log:    log,
		router: router,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle authenticates and upgrades one connection, then runs its pumps for
// the connection's lifetime. Authentication failures are rejected with plain
// HTTP before any upgrade happens.
func (g *Gateway) Handle(c *gin.Context) {
	token := auth.TokenFromRequest(c.Request)
	claims, err := g.tokens.Verify(token, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	sock, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		g.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	cl := newClient(uuid.NewString(), sock, g.log)
	g.log.Info("websocket connected", "conn", cl.ID(), "user_id", claims.UserID)

	g.router.Attach(cl)

	go cl.writePump()
	cl.readPump(g.router)

	g.router.HandleDisconnect(cl)
	g.log.Info("websocket closed", "conn", cl.ID(), "user_id", claims.UserID)
}
