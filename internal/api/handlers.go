// Package api exposes the classification engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/cognicore/destek/pkg/destek"
	"github.com/cognicore/destek/pkg/destek/analytics"
	"github.com/cognicore/destek/pkg/destek/explain"
	"github.com/cognicore/destek/pkg/destek/recognize"
	"github.com/cognicore/destek/pkg/destek/store"
)

// Classifier is the part of *destek.Engine the handlers call.
type Classifier interface {
	Analyze(ctx context.Context, text string) (destek.Result, error)
	Explain(ctx context.Context, text string) (explain.Report, error)
	Learn(ctx context.Context, req destek.LearnRequest) (destek.Feedback, error)
	SuggestNewEntity(ctx context.Context, kind store.Kind, text string) (destek.EntitySuggestion, error)
	CreateEntity(ctx context.Context, kind store.Kind, name string) (store.Entity, error)
	Entities(ctx context.Context, kind store.Kind) ([]store.Entity, error)
	Stats(ctx context.Context) (analytics.Report, error)
	Ping(ctx context.Context) error
}

var _ Classifier = (*destek.Engine)(nil)

// Handler serves the classification API.
type Handler struct {
	engine Classifier
	logger *slog.Logger
}

// NewHandler creates a new API handler. A nil logger means slog.Default().
func NewHandler(engine Classifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

type textRequest struct {
	Text string `json:"text"`
}

type entityRequest struct {
	Kind *store.Kind `json:"kind"`
	Name string      `json:"name"`
	Text string      `json:"text"`
}

// kindSummary is the compact per-kind view returned while typing.
type kindSummary struct {
	BestID      *int64            `json:"best_id"`
	Suggestions []int64           `json:"suggestions"`
	Scores      map[int64]float64 `json:"scores"`
	Recognized  []recognize.Match `json:"recognized,omitempty"`
}

type analyzeResponse struct {
	ID         string      `json:"id"`
	Keywords   []string    `json:"keywords"`
	Category   kindSummary `json:"category"`
	Department kindSummary `json:"department"`
	Personnel  kindSummary `json:"personnel"`
}

func summarize(kr destek.KindResult) kindSummary {
	return kindSummary{
		BestID:      kr.BestID,
		Suggestions: kr.Suggestions,
		Scores:      kr.Scores,
		Recognized:  kr.Recognized,
	}
}

// fail logs server-side failures and writes the error envelope.
func (h *Handler) fail(c fiber.Ctx, op string, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		h.logger.Error("request failed", "op", op, "error", err)
		return jsonError(c, status, op+" failed")
	}
	return jsonError(c, status, err.Error())
}

// Analyze returns best matches and suggestions for a ticket text.
func (h *Handler) Analyze(c fiber.Ctx) error {
	var body textRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	res, err := h.engine.Analyze(c.Context(), body.Text)
	if err != nil {
		return h.fail(c, "analyze", err)
	}

	return jsonSuccess(c, analyzeResponse{
		ID:         res.ID,
		Keywords:   res.Keywords,
		Category:   summarize(res.Category),
		Department: summarize(res.Department),
		Personnel:  summarize(res.Personnel),
	})
}

// Explain returns the full scoring report for a ticket text.
func (h *Handler) Explain(c fiber.Ctx) error {
	var body textRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	report, err := h.engine.Explain(c.Context(), body.Text)
	if err != nil {
		return h.fail(c, "explain", err)
	}
	return jsonSuccess(c, report)
}

// Learn records a confirmed classification.
func (h *Handler) Learn(c fiber.Ctx) error {
	var body destek.LearnRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	fb, err := h.engine.Learn(c.Context(), body)
	if err != nil {
		return h.fail(c, "learn", err)
	}
	return jsonSuccess(c, fb)
}

// SuggestEntity proposes a new entity name when nothing existing fits.
func (h *Handler) SuggestEntity(c fiber.Ctx) error {
	var body entityRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Kind == nil {
		return jsonError(c, fiber.StatusBadRequest, "kind is required")
	}

	s, err := h.engine.SuggestNewEntity(c.Context(), *body.Kind, body.Text)
	if err != nil {
		return h.fail(c, "suggest", err)
	}
	return jsonSuccess(c, s)
}

// CreateEntity adds a category, department or staff member.
func (h *Handler) CreateEntity(c fiber.Ctx) error {
	var body entityRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Kind == nil {
		return jsonError(c, fiber.StatusBadRequest, "kind is required")
	}

	ent, err := h.engine.CreateEntity(c.Context(), *body.Kind, body.Name)
	if err != nil {
		return h.fail(c, "create entity", err)
	}
	return jsonCreated(c, ent)
}

// ListEntities lists the entities of the kind named in the path.
func (h *Handler) ListEntities(c fiber.Ctx) error {
	kind, err := store.ParseKind(c.Params("kind"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	list, err := h.engine.Entities(c.Context(), kind)
	if err != nil {
		return h.fail(c, "list entities", err)
	}
	return jsonSuccess(c, list)
}

// Stats returns the association analytics report.
func (h *Handler) Stats(c fiber.Ctx) error {
	report, err := h.engine.Stats(c.Context())
	if err != nil {
		return h.fail(c, "stats", err)
	}
	return jsonSuccess(c, report)
}

// Health reports whether the store answers.
func (h *Handler) Health(c fiber.Ctx) error {
	if err := h.engine.Ping(c.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		return jsonError(c, fiber.StatusServiceUnavailable, "store unavailable")
	}
	return jsonSuccess(c, fiber.Map{"healthy": true})
}
