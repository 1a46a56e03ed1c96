package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"github.com/lizhongyi/aqiang-chat/internal/hub"
	"github.com/lizhongyi/aqiang-chat/internal/observability"
)

// Handler upgrades HTTP requests to websocket connections and hands them to
// the hub.
type Handler struct {
	hub *hub.Hub
}

// NewHandler constructs a Handler.
func NewHandler(h *hub.Hub) *Handler {
	return &Handler{hub: h}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and runs the client pumps until the peer
// goes away. Disconnect handling (grace period, partner notices) lives in
// the hub, not here.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("aqiang-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(h.hub, conn)
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	client.log.WithField("ip", c.ClientIP()).Info("client connected")

	go func() {
		defer func() {
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			client.log.Info("client disconnected")
		}()
		client.Run()
	}()
}
