// Package store defines the persistence interfaces of the backend and the
// validation rules shared by their implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/safecity/backend/internal/models"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

// MessageStore is append-only: messages are never edited or deleted.
type MessageStore interface {
	// Append validates the message, assigns id and server timestamp and
	// persists it. Returns ErrValidation when sender/receiver is missing or
	// both text and imageURL are empty.
	Append(ctx context.Context, senderID, receiverID, text, imageURL string) (*models.Message, error)

	// History returns every message exchanged between the two users, oldest
	// first. Unbounded: pagination is a documented limitation.
	History(ctx context.Context, userA, userB string) ([]*models.Message, error)

	// ConversationsFor groups all messages involving userID by the other
	// party. Each group is most-recent-first; equal timestamps keep store
	// order.
	ConversationsFor(ctx context.Context, userID string) (map[string][]*models.Message, error)

	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type ReportStore interface {
	Create(ctx context.Context, r *models.Report) error
	ListByReporter(ctx context.Context, reporterID string) ([]*models.Report, error)
	ListAll(ctx context.Context) ([]*models.Report, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByCategory(ctx context.Context, since time.Time) (map[string]int64, error)
	CountByUrgency(ctx context.Context, since time.Time) (map[string]int64, error)
}

// UserStore is read-only: users are managed by the registration flow.
type UserStore interface {
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, limit int64) ([]*models.Notification, error)
}

// ValidateMessage enforces the append invariants: both parties present and
// at least one of text/imageURL non-empty.
func ValidateMessage(senderID, receiverID, text, imageURL string) error {
	if senderID == "" || receiverID == "" {
		return ErrValidation
	}
	if text == "" && imageURL == "" {
		return ErrValidation
	}
	return nil
}
