package handlers

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/safecity/backend/internal/auth"
	"github.com/safecity/backend/internal/chat"
	"github.com/safecity/backend/internal/httputil"
	"github.com/safecity/backend/internal/models"
	"github.com/safecity/backend/internal/storage"
	"github.com/safecity/backend/internal/store"
)

const requestTimeout = 15 * time.Second

type MessageHandler struct {
	svc *chat.Service
	log *zap.SugaredLogger
}

func NewMessageHandler(svc *chat.Service, log *zap.SugaredLogger) *MessageHandler {
	return &MessageHandler{svc: svc, log: log}
}

// Send handles POST /messages (multipart: receiver_id, text?, image?). The
// sender is the authenticated caller, never a form field.
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	claims := auth.ClaimsFrom(c)
	receiverID := c.FormValue("receiver_id")
	text := c.FormValue("text")

	var img *chat.Attachment
	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			return httputil.JSONError(c, fiber.StatusInternalServerError, "cannot open upload")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return httputil.JSONError(c, fiber.StatusInternalServerError, "cannot read upload")
		}
		img = &chat.Attachment{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	msg, err := h.svc.SendMessage(ctx, claims.UserID, receiverID, text, img)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrValidation):
			return httputil.JSONError(c, fiber.StatusBadRequest, "message needs text or an image, and a receiver")
		case errors.Is(err, storage.ErrUpload):
			h.log.Errorw("image upload", "sender", claims.UserID, "err", err)
			return httputil.JSONError(c, fiber.StatusInternalServerError, "image upload failed")
		default:
			h.log.Errorw("send message", "sender", claims.UserID, "err", err)
			return httputil.JSONError(c, fiber.StatusInternalServerError, "could not send message")
		}
	}
	return httputil.JSONSuccess(c, fiber.StatusCreated, msg)
}

// History handles GET /messages/:counterpartId. Staff may inspect another
// user's thread with ?user_id=.
func (h *MessageHandler) History(c *fiber.Ctx) error {
	claims := auth.ClaimsFrom(c)
	counterpartID := c.Params("counterpartId")

	userID := claims.UserID
	if q := c.Query("user_id"); q != "" {
		userID = q
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	msgs, err := h.svc.History(ctx, claims.UserID, claims.UserRole(), userID, counterpartID)
	if err != nil {
		if errors.Is(err, chat.ErrForbidden) {
			return httputil.JSONError(c, fiber.StatusForbidden, "not your conversation")
		}
		h.log.Errorw("fetch history", "user", userID, "counterpart", counterpartID, "err", err)
		return httputil.JSONError(c, fiber.StatusInternalServerError, "could not fetch history")
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return httputil.JSONSuccess(c, fiber.StatusOK, msgs)
}

// Conversations handles GET /conversations for the authenticated caller.
func (h *MessageHandler) Conversations(c *fiber.Ctx) error {
	claims := auth.ClaimsFrom(c)
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	convs, err := h.svc.Conversations(ctx, claims.UserID)
	if err != nil {
		h.log.Errorw("list conversations", "user", claims.UserID, "err", err)
		return httputil.JSONError(c, fiber.StatusInternalServerError, "could not list conversations")
	}
	return c.JSON(fiber.Map{"success": true, "conversations": convs})
}
