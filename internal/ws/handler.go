package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
)

type TokenValidator interface {
	ValidateToken(token string) (int, error)
}

type UserLookup interface {
	AuthenticateLookup(ctx context.Context, userID int) (models.User, error)
}

// Handler upgrades authenticated requests and keeps the connection registered
// with the hub until the client goes away.
type Handler struct {
	hub    *Hub
	tokens TokenValidator
	users  UserLookup
	log    *slog.Logger
}

func NewHandler(hub *Hub, tokens TokenValidator, users UserLookup, log *slog.Logger) *Handler {
	return &Handler{hub: hub, tokens: tokens, users: users, log: log}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const maxInboundMessage = 4096

func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messenger-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.Query("token")
	if header := c.GetHeader("Authorization"); token == "" && strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimPrefix(header, "Bearer ")
	}

	userID, err := h.tokens.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if _, err := h.users.AuthenticateLookup(ctx, userID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}
	span.SetAttributes(attribute.Int("user.id", userID))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	connection, err := h.hub.Open(conn, info)
	if err != nil {
		h.log.Warn("websocket rejected", "user_id", userID, "error", err)
		return
	}
	h.log.Info("websocket opened", "conn_id", info.ConnID, "user_id", userID)
	publishLifecycle(ctx, "ws_connect", info, "")

	go h.readLoop(conn, connection)
}

// readLoop only services control frames; clients do not send data over the socket.
func (h *Handler) readLoop(conn *websocket.Conn, connection *Connection) {
	info := connection.Info()
	var reason string
	defer func() {
		h.hub.Close(connection)
		h.log.Info("websocket closed", "conn_id", info.ConnID, "user_id", info.UserID, "reason", reason)
		publishLifecycle(context.Background(), "ws_disconnect", info, reason)
	}()

	conn.SetReadLimit(maxInboundMessage)
	if wait := h.pongWait(); wait > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(wait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			reason = err.Error()
			if connection.State() != StateClosed && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishLifecycle(context.Background(), "ws_error", info, reason)
			}
			return
		}
	}
}

func (h *Handler) pongWait() time.Duration {
	return h.hub.opts.PingInterval * 2
}
