package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safecity/backend/internal/store"
)

func TestAppendThenHistory(t *testing.T) {
	s := NewMessageStore()
	ctx := context.Background()

	sent, err := s.Append(ctx, "alice", "bob", "hello", "")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if sent.ID == "" || sent.CreatedAt.IsZero() {
		t.Fatalf("append must assign id and timestamp: %+v", sent)
	}

	msgs, err := s.History(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	got := msgs[0]
	if got.ID != sent.ID || got.SenderID != "alice" || got.ReceiverID != "bob" || got.Text != "hello" {
		t.Fatalf("round-trip mutated the message: %+v", got)
	}
}

func TestHistorySymmetricAndAscending(t *testing.T) {
	s := NewMessageStore()
	ctx := context.Background()

	if _, err := s.Append(ctx, "alice", "bob", "one", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := s.Append(ctx, "bob", "alice", "two", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := s.Append(ctx, "alice", "carol", "other thread", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}

	msgs, err := s.History(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "one" || msgs[1].Text != "two" {
		t.Fatalf("history not ascending: %q, %q", msgs[0].Text, msgs[1].Text)
	}
	if msgs[1].CreatedAt.Before(msgs[0].CreatedAt) {
		t.Fatalf("timestamps must be monotonic")
	}
}

func TestAppendValidation(t *testing.T) {
	s := NewMessageStore()
	ctx := context.Background()

	cases := []struct {
		name                             string
		sender, receiver, text, imageURL string
	}{
		{"no content", "alice", "bob", "", ""},
		{"missing sender", "", "bob", "hi", ""},
		{"missing receiver", "alice", "", "hi", ""},
	}
	for _, tc := range cases {
		if _, err := s.Append(ctx, tc.sender, tc.receiver, tc.text, tc.imageURL); !errors.Is(err, store.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("failed appends must not mutate the store")
	}
}

func TestAppendImageOnlyIsValid(t *testing.T) {
	s := NewMessageStore()
	m, err := s.Append(context.Background(), "alice", "bob", "", "https://img.example/x.jpg")
	if err != nil {
		t.Fatalf("image-only message rejected: %v", err)
	}
	if m.ImageURL == "" {
		t.Fatalf("image url lost")
	}
}

func TestConversationsForGrouping(t *testing.T) {
	s := NewMessageStore()
	ctx := context.Background()

	// A->B, then B->A, then A->C
	if _, err := s.Append(ctx, "A", "B", "t1", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := s.Append(ctx, "B", "A", "t2", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := s.Append(ctx, "A", "C", "t3", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}

	grouped, err := s.ConversationsFor(ctx, "A")
	if err != nil {
		t.Fatalf("ConversationsFor: %v", err)
	}
	if len(grouped) != 2 {
		t.Fatalf("expected groups for B and C, got %d", len(grouped))
	}

	b := grouped["B"]
	if len(b) != 2 || b[0].Text != "t2" || b[1].Text != "t1" {
		t.Fatalf("group B must be most-recent-first, got %+v", b)
	}
	c := grouped["C"]
	if len(c) != 1 || c[0].Text != "t3" {
		t.Fatalf("group C wrong: %+v", c)
	}
}

func TestConversationsForEqualTimestampsKeepStoreOrder(t *testing.T) {
	s := NewMessageStore()
	ctx := context.Background()

	first, err := s.Append(ctx, "A", "B", "first", "")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	second, err := s.Append(ctx, "A", "B", "second", "")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	grouped, err := s.ConversationsFor(ctx, "A")
	if err != nil {
		t.Fatalf("ConversationsFor: %v", err)
	}
	b := grouped["B"]
	if len(b) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(b))
	}
	if first.CreatedAt.Equal(second.CreatedAt) {
		// stable sort: store order preserved among equals
		if b[0].Text != "first" || b[1].Text != "second" {
			t.Fatalf("equal timestamps must keep store order, got %q, %q", b[0].Text, b[1].Text)
		}
	} else if b[0].Text != "second" {
		t.Fatalf("later message must come first, got %q", b[0].Text)
	}
}

func TestCountSince(t *testing.T) {
	s := NewMessageStore()
	ctx := context.Background()

	if _, err := s.Append(ctx, "A", "B", "x", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}
	n, err := s.CountSince(ctx, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
	n, err = s.CountSince(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}
