package chat

import (
	"context"
	"sort"

	"github.com/safecity/backend/internal/models"
)

// Conversations derives the per-counterpart thread list for a user. It is a
// pure read model over the message store: nothing here is persisted. The
// list is ordered by most recent activity, newest conversation first.
func (s *Service) Conversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	grouped, err := s.messages.ConversationsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Conversation, 0, len(grouped))
	for counterpart, msgs := range grouped {
		if len(msgs) == 0 {
			continue
		}
		conv := &models.Conversation{
			CounterpartID: counterpart,
			LastAt:        msgs[0].CreatedAt,
			Messages:      msgs,
		}
		if s.users != nil {
			if u, err := s.users.Get(ctx, counterpart); err == nil {
				conv.CounterpartName = u.Name
			}
		}
		out = append(out, conv)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastAt.Equal(out[j].LastAt) {
			return out[i].CounterpartID < out[j].CounterpartID
		}
		return out[i].LastAt.After(out[j].LastAt)
	})
	return out, nil
}
