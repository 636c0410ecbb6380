// Package chat orchestrates the send path: upload, persist, deliver,
// notify. Persistence is authoritative; delivery and notification are best
// effort and never affect the caller's response.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safecity/backend/internal/models"
	"github.com/safecity/backend/internal/store"
)

// ErrForbidden is returned when a caller asks for a thread it may not read.
var ErrForbidden = errors.New("forbidden")

type Deliverer interface {
	DeliverMessage(userID string, msg *models.Message)
}

type Notifier interface {
	MessageSent(ctx context.Context, msg *models.Message) error
}

type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Service struct {
	messages store.MessageStore
	users    store.UserStore // optional, decorates conversation lists
	images   ImageStore
	gateway  Deliverer
	notifier Notifier
	log      *zap.SugaredLogger
}

func NewService(messages store.MessageStore, users store.UserStore, images ImageStore, gateway Deliverer, notifier Notifier, log *zap.SugaredLogger) *Service {
	return &Service{
		messages: messages,
		users:    users,
		images:   images,
		gateway:  gateway,
		notifier: notifier,
		log:      log,
	}
}

// SendMessage uploads the attachment first so a failed upload leaves no
// persisted trace, appends the message, then pushes it to the recipient if
// online and emits the notification event. Returns the persisted message
// regardless of delivery outcome.
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID, text string, img *Attachment) (*models.Message, error) {
	var imageURL string
	if img != nil && len(img.Data) > 0 {
		if s.images == nil {
			return nil, fmt.Errorf("%w: image uploads disabled", store.ErrValidation)
		}
		key := senderID + "/" + uuid.New().String() + "_" + img.Filename
		url, err := s.images.Upload(ctx, key, img.ContentType, img.Data)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	msg, err := s.messages.Append(ctx, senderID, receiverID, text, imageURL)
	if err != nil {
		return nil, err
	}

	s.gateway.DeliverMessage(receiverID, msg)

	if s.notifier != nil {
		if err := s.notifier.MessageSent(ctx, msg); err != nil {
			s.log.Warnw("notification publish", "message", msg.ID, "err", err)
		}
	}
	return msg, nil
}

// History returns the thread between userID and counterpartID, oldest
// first. The caller must be userID or hold a staff role.
func (s *Service) History(ctx context.Context, callerID string, callerRole models.Role, userID, counterpartID string) ([]*models.Message, error) {
	if callerID != userID && !callerRole.Staff() {
		return nil, ErrForbidden
	}
	return s.messages.History(ctx, userID, counterpartID)
}
