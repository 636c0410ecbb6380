package handlers

import (
	"context"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safecity/backend/internal/auth"
	"github.com/safecity/backend/internal/chat"
	"github.com/safecity/backend/internal/httputil"
	"github.com/safecity/backend/internal/models"
	"github.com/safecity/backend/internal/store"
)

type ReportHandler struct {
	reports store.ReportStore
	images  chat.ImageStore
	log     *zap.SugaredLogger
}

func NewReportHandler(reports store.ReportStore, images chat.ImageStore, log *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{reports: reports, images: images, log: log}
}

// Create handles POST /reports (multipart: category, urgency, description,
// lat, lng, photo?).
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	claims := auth.ClaimsFrom(c)

	category := c.FormValue("category")
	urgency := c.FormValue("urgency")
	description := c.FormValue("description")
	if category == "" || urgency == "" || description == "" {
		return httputil.JSONError(c, fiber.StatusBadRequest, "category, urgency and description are required")
	}
	lat, _ := strconv.ParseFloat(c.FormValue("lat"), 64)
	lng, _ := strconv.ParseFloat(c.FormValue("lng"), 64)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var photoURL string
	if fh, err := c.FormFile("photo"); err == nil && fh != nil {
		if h.images == nil {
			return httputil.JSONError(c, fiber.StatusBadRequest, "photo uploads disabled")
		}
		f, err := fh.Open()
		if err != nil {
			return httputil.JSONError(c, fiber.StatusInternalServerError, "cannot open upload")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return httputil.JSONError(c, fiber.StatusInternalServerError, "cannot read upload")
		}
		key := "reports/" + claims.UserID + "/" + uuid.New().String() + "_" + fh.Filename
		photoURL, err = h.images.Upload(ctx, key, fh.Header.Get("Content-Type"), data)
		if err != nil {
			h.log.Errorw("report photo upload", "reporter", claims.UserID, "err", err)
			return httputil.JSONError(c, fiber.StatusInternalServerError, "photo upload failed")
		}
	}

	r := &models.Report{
		ReporterID:  claims.UserID,
		Category:    category,
		Urgency:     urgency,
		Description: description,
		PhotoURL:    photoURL,
		Lat:         lat,
		Lng:         lng,
	}
	if err := h.reports.Create(ctx, r); err != nil {
		h.log.Errorw("create report", "reporter", claims.UserID, "err", err)
		return httputil.JSONError(c, fiber.StatusInternalServerError, "could not save report")
	}
	return httputil.JSONSuccess(c, fiber.StatusCreated, r)
}

// ListOwn handles GET /reports for the authenticated citizen.
func (h *ReportHandler) ListOwn(c *fiber.Ctx) error {
	claims := auth.ClaimsFrom(c)
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	reports, err := h.reports.ListByReporter(ctx, claims.UserID)
	if err != nil {
		h.log.Errorw("list reports", "reporter", claims.UserID, "err", err)
		return httputil.JSONError(c, fiber.StatusInternalServerError, "could not list reports")
	}
	if reports == nil {
		reports = []*models.Report{}
	}
	return httputil.JSONSuccess(c, fiber.StatusOK, reports)
}

// ListAll handles GET /admin/reports.
func (h *ReportHandler) ListAll(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	reports, err := h.reports.ListAll(ctx)
	if err != nil {
		h.log.Errorw("list all reports", "err", err)
		return httputil.JSONError(c, fiber.StatusInternalServerError, "could not list reports")
	}
	if reports == nil {
		reports = []*models.Report{}
	}
	return httputil.JSONSuccess(c, fiber.StatusOK, reports)
}
