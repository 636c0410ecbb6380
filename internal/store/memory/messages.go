// Package memory holds in-process store implementations used for single-node
// development runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/safecity/backend/internal/models"
	"github.com/safecity/backend/internal/store"
)

type MessageStore struct {
	mu       sync.RWMutex
	messages []*models.Message
	lastTS   time.Time
}

func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

func (s *MessageStore) Append(ctx context.Context, senderID, receiverID, text, imageURL string) (*models.Message, error) {
	if err := store.ValidateMessage(senderID, receiverID, text, imageURL); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	// timestamps are strictly monotonic per store
	if !now.After(s.lastTS) {
		now = s.lastTS.Add(time.Nanosecond)
	}
	s.lastTS = now

	m := &models.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		ImageURL:   imageURL,
		CreatedAt:  now,
	}
	s.messages = append(s.messages, m)
	return m, nil
}

func (s *MessageStore) History(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Message, 0)
	for _, m := range s.messages {
		if between(m, userA, userB) {
			out = append(out, m)
		}
	}
	// insertion order is already ascending by timestamp
	return out, nil
}

func (s *MessageStore) ConversationsFor(ctx context.Context, userID string) (map[string][]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grouped := make(map[string][]*models.Message)
	for _, m := range s.messages {
		var counterpart string
		switch userID {
		case m.SenderID:
			counterpart = m.ReceiverID
		case m.ReceiverID:
			counterpart = m.SenderID
		default:
			continue
		}
		grouped[counterpart] = append(grouped[counterpart], m)
	}
	// most-recent-first per group; stable so equal timestamps keep store order
	for _, msgs := range grouped {
		sort.SliceStable(msgs, func(i, j int) bool {
			return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
		})
	}
	return grouped, nil
}

func (s *MessageStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, m := range s.messages {
		if !m.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// Len is used by tests to assert that failed appends leave no trace.
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func between(m *models.Message, a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}
