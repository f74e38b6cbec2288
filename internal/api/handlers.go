package api

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"anayasa/internal/domain"
	"anayasa/internal/service"
)

// Engine is the subset of the answering engine the HTTP surface needs.
type Engine interface {
	Ask(ctx context.Context, question string) (*service.Answer, error)
	Units() []domain.Unit
	Ready() bool
	Fingerprint() string
}

// Handler holds dependencies for the HTTP handlers.
type Handler struct {
	engine Engine
}

func NewHandler(engine Engine) *Handler {
	return &Handler{engine: engine}
}

type askRequest struct {
	Question string `json:"question"`
}

type source struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type askResponse struct {
	Answer  string   `json:"answer"`
	Sources []source `json:"sources"`
}

type article struct {
	Label   string `json:"label"`
	Ordinal int    `json:"ordinal"`
	Body    string `json:"body"`
}

// Health reports readiness and the corpus fingerprint.
func (h *Handler) Health(c *fiber.Ctx) error {
	if !h.engine.Ready() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "building"})
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"articles": len(h.engine.Units()),
		"corpus":   h.engine.Fingerprint(),
	})
}

// Articles lists the indexed articles in document order.
func (h *Handler) Articles(c *fiber.Ctx) error {
	units := h.engine.Units()
	out := make([]article, len(units))
	for i, u := range units {
		out[i] = article{Label: u.Label, Ordinal: u.Ordinal, Body: u.Body}
	}
	return c.JSON(out)
}

// Ask answers one question; each request is independent of the others.
func (h *Handler) Ask(c *fiber.Ctx) error {
	var req askRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request, expected JSON: {\"question\":\"...\"}"})
	}
	ans, err := h.engine.Ask(c.UserContext(), req.Question)
	if err != nil {
		log.Printf("ask error: %v", err)
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	resp := askResponse{Answer: ans.Text, Sources: make([]source, len(ans.Sources))}
	for i, s := range ans.Sources {
		resp.Sources[i] = source{Label: s.Unit.Label, Score: s.Score}
	}
	return c.JSON(resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotReady):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRetrieval), errors.Is(err, domain.ErrGeneration):
		return fiber.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}
