package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// AppConfig holds the optional parts of the HTTP app.
type AppConfig struct {
	// Metrics is mounted on GET /metrics when set.
	Metrics   http.Handler
	AccessLog bool
}

// NewApp creates a Fiber app with middleware and all routes registered.
func NewApp(h *Handler, cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "destek",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				message = e.Message
			}
			return jsonError(c, code, message)
		},
	})

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New())
	}

	h.Register(app)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}
	return app
}

// Register registers the API routes on app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/healthz", h.Health)

	v1 := app.Group("/api/v1")
	v1.Post("/analyze", h.Analyze)
	v1.Post("/analyze/explain", h.Explain)
	v1.Post("/learn", h.Learn)
	v1.Post("/entities/suggest", h.SuggestEntity)
	v1.Post("/entities", h.CreateEntity)
	v1.Get("/entities/:kind", h.ListEntities)
	v1.Get("/stats", h.Stats)
}
