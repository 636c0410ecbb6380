package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/safecity/backend/internal/models"
	"github.com/safecity/backend/internal/presence"
)

type fakeSink struct {
	frames [][]byte
	full   bool
}

func (f *fakeSink) enqueue(b []byte) bool {
	if f.full {
		return false
	}
	f.frames = append(f.frames, b)
	return true
}

func (f *fakeSink) last(t *testing.T) Envelope {
	t.Helper()
	if len(f.frames) == 0 {
		t.Fatalf("no frames enqueued")
	}
	var env Envelope
	if err := json.Unmarshal(f.frames[len(f.frames)-1], &env); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return env
}

func newTestGateway() *Gateway {
	return NewGateway(presence.NewMemoryRegistry(), zap.NewNop().Sugar())
}

func TestRegisterSendsInitialSnapshot(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	a := &fakeSink{}
	g.register(ctx, "c1", a)

	env := a.last(t)
	if env.Type != EventOnlineUsers {
		t.Fatalf("late joiner must get a presence snapshot, got %q", env.Type)
	}
}

func TestIdentifyBroadcastsToAllConnections(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	a, b := &fakeSink{}, &fakeSink{}
	g.register(ctx, "c1", a)
	g.register(ctx, "c2", b)

	g.identify(ctx, "u1", "c1")

	for _, s := range []*fakeSink{a, b} {
		env := s.last(t)
		if env.Type != EventOnlineUsers {
			t.Fatalf("expected presence broadcast, got %q", env.Type)
		}
		var snap map[string]string
		if err := json.Unmarshal(env.Payload, &snap); err != nil {
			t.Fatalf("unmarshal snapshot: %v", err)
		}
		if snap["u1"] != "c1" {
			t.Fatalf("snapshot missing u1: %v", snap)
		}
	}
}

func TestDeliverMessageToOnlineRecipient(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	b := &fakeSink{}
	g.register(ctx, "c2", b)
	g.identify(ctx, "bob", "c2")

	msg := &models.Message{
		ID:         "m1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Text:       "help",
		CreatedAt:  time.Now().UTC(),
	}
	g.DeliverMessage("bob", msg)

	env := b.last(t)
	if env.Type != EventNewMessage {
		t.Fatalf("expected new-message, got %q", env.Type)
	}
	var got models.Message
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.ID != "m1" || got.Text != "help" || got.SenderID != "alice" {
		t.Fatalf("delivered payload mutated: %+v", got)
	}
}

func TestDeliverMessageToOfflineRecipientIsSilent(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	a := &fakeSink{}
	g.register(ctx, "c1", a)
	g.identify(ctx, "alice", "c1")
	before := len(a.frames)

	g.DeliverMessage("nobody", &models.Message{ID: "m1", SenderID: "alice", ReceiverID: "nobody", Text: "x"})

	if len(a.frames) != before {
		t.Fatalf("offline delivery must not touch other connections")
	}
	if !g.registry.IsOnline(ctx, "alice") {
		t.Fatalf("offline delivery must not affect the registry")
	}
}

func TestBroadcastIsolatesBrokenConnections(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	healthy := &fakeSink{}
	broken := &fakeSink{full: true}
	g.register(ctx, "c1", healthy)
	g.register(ctx, "c2", broken)

	g.identify(ctx, "u1", "c1")

	env := healthy.last(t)
	if env.Type != EventOnlineUsers {
		t.Fatalf("healthy connection must still receive the broadcast")
	}
}

func TestUnregisterRemovesPresenceAndRebroadcasts(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	a, b := &fakeSink{}, &fakeSink{}
	g.register(ctx, "c1", a)
	g.register(ctx, "c2", b)
	g.identify(ctx, "u1", "c1")
	g.identify(ctx, "u2", "c2")

	g.unregister(ctx, "c1")

	if g.registry.IsOnline(ctx, "u1") {
		t.Fatalf("disconnect must clear presence")
	}
	env := b.last(t)
	if env.Type != EventOnlineUsers {
		t.Fatalf("disconnect must rebroadcast presence")
	}
	var snap map[string]string
	if err := json.Unmarshal(env.Payload, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if _, ok := snap["u1"]; ok {
		t.Fatalf("u1 still present after disconnect: %v", snap)
	}
	if snap["u2"] != "c2" {
		t.Fatalf("u2 lost on unrelated disconnect: %v", snap)
	}
}

func TestReidentifyUpdatesConnection(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	a, b := &fakeSink{}, &fakeSink{}
	g.register(ctx, "c1", a)
	g.register(ctx, "c2", b)
	g.identify(ctx, "u1", "c1")
	g.identify(ctx, "u1", "c2") // second tab wins

	g.DeliverMessage("u1", &models.Message{ID: "m1", SenderID: "x", ReceiverID: "u1", Text: "hi"})

	if env := b.last(t); env.Type != EventNewMessage {
		t.Fatalf("delivery must go to the latest connection")
	}
	if env := a.last(t); env.Type == EventNewMessage {
		t.Fatalf("stale connection must not receive unicast")
	}
}

func TestPerConnectionFIFO(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	b := &fakeSink{}
	g.register(ctx, "c2", b)
	g.identify(ctx, "bob", "c2")

	g.DeliverMessage("bob", &models.Message{ID: "m1", SenderID: "a", ReceiverID: "bob", Text: "one"})
	g.DeliverMessage("bob", &models.Message{ID: "m2", SenderID: "a", ReceiverID: "bob", Text: "two"})

	var texts []string
	for _, frame := range b.frames {
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if env.Type != EventNewMessage {
			continue
		}
		var m models.Message
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			t.Fatalf("unmarshal message: %v", err)
		}
		texts = append(texts, m.Text)
	}
	if len(texts) != 2 || texts[0] != "one" || texts[1] != "two" {
		t.Fatalf("deliveries out of order: %v", texts)
	}
}
