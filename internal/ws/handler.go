package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/safecity/backend/internal/auth"
)

type HandlerConfig struct {
	PingInterval    time.Duration
	WriteDeadline   time.Duration
	MaxMessageBytes int64
	EventsPerSecond float64
	EventBurst      int
}

type Handler struct {
	gateway  *Gateway
	verifier *auth.Verifier
	cfg      HandlerConfig
	log      *zap.SugaredLogger
}

func NewHandler(g *Gateway, v *auth.Verifier, cfg HandlerConfig, log *zap.SugaredLogger) *Handler {
	return &Handler{gateway: g, verifier: v, cfg: cfg, log: log}
}

// Handle runs for the lifetime of one upgraded connection:
// /ws?token=<jwt>. The connection is CONNECTED until the client announces
// user-online, IDENTIFIED until user-offline or transport close.
func (h *Handler) Handle(conn *websocket.Conn) {
	claims, err := h.verifier.Verify(conn.Query("token"))
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":"invalid token"}`))
		_ = conn.Close()
		return
	}
	userID := claims.UserID
	connID := uuid.New().String()

	c := newClient(conn, h.cfg.PingInterval, h.cfg.WriteDeadline)
	ctx := context.Background()
	h.gateway.register(ctx, connID, c)
	go c.writePump()

	defer func() {
		h.gateway.unregister(ctx, connID)
		c.close()
	}()

	readWindow := h.cfg.PingInterval * 2
	conn.SetReadLimit(h.cfg.MaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(readWindow))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWindow))
	})

	limiter := rate.NewLimiter(rate.Limit(h.cfg.EventsPerSecond), h.cfg.EventBurst)
	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage || !limiter.Allow() {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		h.handleEvent(ctx, userID, connID, env)
	}
}

func (h *Handler) handleEvent(ctx context.Context, userID, connID string, env Envelope) {
	switch env.Type {
	case EventUserOnline:
		// identity comes from the verified token, not the payload; a repeat
		// announcement is re-identification, not an error
		h.gateway.identify(ctx, userID, connID)
	case EventUserOffline:
		h.gateway.setOffline(ctx, userID)
	case EventSendMessage:
		// advisory echo path; the HTTP send endpoint is authoritative
		var p struct {
			ToUserID string          `json:"to_user_id"`
			Message  json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.ToUserID == "" {
			return
		}
		h.gateway.relayRaw(ctx, p.ToUserID, p.Message)
	default:
		h.log.Debugw("unknown ws event", "type", env.Type, "user", userID)
	}
}
