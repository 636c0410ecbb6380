// Package api assembles the fiber app: middleware, routes and the websocket
// upgrade path.
package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/safecity/backend/internal/auth"
	"github.com/safecity/backend/internal/config"
	"github.com/safecity/backend/internal/handlers"
	"github.com/safecity/backend/internal/middleware"
	"github.com/safecity/backend/internal/models"
	"github.com/safecity/backend/internal/ws"
)

type Deps struct {
	Verifier  *auth.Verifier
	Messages  *handlers.MessageHandler
	Reports   *handlers.ReportHandler
	Admin     *handlers.AdminHandler
	WS        *ws.Handler
	RateLimit *middleware.RateLimiter // optional
}

func NewServer(cfg *config.Config, d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    cfg.App.BodyLimitMB * 1024 * 1024,
	})

	app.Use(fiberlogger.New())
	if len(cfg.CORS.Origins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.CORS.Origins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		}))
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// realtime: token is checked inside the ws handler (query param)
	app.Get("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(d.WS.Handle))

	v1 := app.Group("/api/v1", auth.Middleware(d.Verifier))

	sendHandlers := []fiber.Handler{}
	if d.RateLimit != nil {
		sendHandlers = append(sendHandlers, d.RateLimit.MiddlewareByKey(func(c *fiber.Ctx) string {
			if claims := auth.ClaimsFrom(c); claims != nil {
				return claims.UserID
			}
			return c.IP()
		}))
	}
	sendHandlers = append(sendHandlers, d.Messages.Send)
	v1.Post("/messages", sendHandlers...)
	v1.Get("/messages/:counterpartId", d.Messages.History)
	v1.Get("/conversations", d.Messages.Conversations)

	v1.Post("/reports", d.Reports.Create)
	v1.Get("/reports", d.Reports.ListOwn)

	admin := v1.Group("/admin", auth.RequireRole(models.RoleAdmin))
	admin.Get("/reports", d.Reports.ListAll)
	admin.Get("/dashboard", d.Admin.Dashboard)
	admin.Get("/users", d.Admin.Users)

	return app
}
