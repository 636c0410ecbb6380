// Package ws is the realtime gateway: it owns the websocket connections and
// routes presence broadcasts and message deliveries.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/safecity/backend/internal/models"
	"github.com/safecity/backend/internal/presence"
)

// Wire events. Client to server: user-online, user-offline, send-message.
// Server to client: update-online-users, new-message.
const (
	EventUserOnline  = "user-online"
	EventUserOffline = "user-offline"
	EventSendMessage = "send-message"
	EventOnlineUsers = "update-online-users"
	EventNewMessage  = "new-message"
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// sink is one connection's outbound queue. enqueue never blocks; it reports
// false when the frame was dropped (queue full or connection closing).
type sink interface {
	enqueue(b []byte) bool
}

type Gateway struct {
	mu       sync.RWMutex
	conns    map[string]sink // connID -> connection
	registry presence.Registry
	log      *zap.SugaredLogger
}

func NewGateway(registry presence.Registry, log *zap.SugaredLogger) *Gateway {
	return &Gateway{
		conns:    make(map[string]sink),
		registry: registry,
		log:      log,
	}
}

// register adds the connection and syncs the current presence snapshot to
// the late joiner. The connection is not yet present in the registry: that
// happens when the client announces itself with user-online.
func (g *Gateway) register(ctx context.Context, connID string, s sink) {
	g.mu.Lock()
	g.conns[connID] = s
	g.mu.Unlock()
	s.enqueue(marshalEnvelope(EventOnlineUsers, g.registry.Snapshot(ctx)))
}

func (g *Gateway) unregister(ctx context.Context, connID string) {
	g.mu.Lock()
	delete(g.conns, connID)
	g.mu.Unlock()
	g.registry.HandleDisconnect(ctx, connID)
	g.broadcastPresence(ctx)
}

func (g *Gateway) identify(ctx context.Context, userID, connID string) {
	g.registry.MarkOnline(ctx, userID, connID)
	g.broadcastPresence(ctx)
}

func (g *Gateway) setOffline(ctx context.Context, userID string) {
	g.registry.MarkOffline(ctx, userID)
	g.broadcastPresence(ctx)
}

// DeliverMessage unicasts a persisted message to the recipient's connection.
// An offline recipient is steady-state, not a fault: the message is already
// durable and will be seen on the next history fetch.
func (g *Gateway) DeliverMessage(userID string, msg *models.Message) {
	g.unicast(context.Background(), userID, marshalEnvelope(EventNewMessage, msg))
}

// relayRaw forwards an advisory client-side payload to the target user.
func (g *Gateway) relayRaw(ctx context.Context, userID string, payload json.RawMessage) {
	g.unicast(ctx, userID, marshalEnvelope(EventNewMessage, payload))
}

func (g *Gateway) unicast(ctx context.Context, userID string, frame []byte) {
	connID, ok := g.registry.Lookup(ctx, userID)
	if !ok {
		deliveryMisses.Inc()
		return
	}
	g.mu.RLock()
	s, ok := g.conns[connID]
	g.mu.RUnlock()
	if !ok || !s.enqueue(frame) {
		// connection gone or backed up: same as offline
		deliveryMisses.Inc()
		return
	}
	messagesDelivered.Inc()
}

// broadcastPresence fans the full snapshot out to every connection. Each
// target is best effort: a slow or broken connection only loses its own
// frame.
func (g *Gateway) broadcastPresence(ctx context.Context) {
	frame := marshalEnvelope(EventOnlineUsers, g.registry.Snapshot(ctx))
	g.mu.RLock()
	defer g.mu.RUnlock()
	for connID, s := range g.conns {
		if !s.enqueue(frame) {
			g.log.Debugw("presence frame dropped", "conn", connID)
		}
	}
	presenceBroadcasts.Inc()
}

func marshalEnvelope(typ string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("null")
	}
	b, _ := json.Marshal(Envelope{Type: typ, Payload: raw})
	return b
}
