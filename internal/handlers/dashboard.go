package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/safecity/backend/internal/dashboard"
	"github.com/safecity/backend/internal/httputil"
	"github.com/safecity/backend/internal/models"
	"github.com/safecity/backend/internal/store"
)

type AdminHandler struct {
	stats *dashboard.Service
	users store.UserStore
	log   *zap.SugaredLogger
}

func NewAdminHandler(stats *dashboard.Service, users store.UserStore, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{stats: stats, users: users, log: log}
}

// Dashboard handles GET /admin/dashboard?days=7.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	stats, err := h.stats.Stats(ctx, days)
	if err != nil {
		h.log.Errorw("dashboard stats", "err", err)
		return httputil.JSONError(c, fiber.StatusInternalServerError, "could not compute stats")
	}
	return httputil.JSONSuccess(c, fiber.StatusOK, stats)
}

// Users handles GET /admin/users.
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	users, err := h.users.List(ctx)
	if err != nil {
		h.log.Errorw("list users", "err", err)
		return httputil.JSONError(c, fiber.StatusInternalServerError, "could not list users")
	}
	if users == nil {
		users = []*models.User{}
	}
	return httputil.JSONSuccess(c, fiber.StatusOK, users)
}
