package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rentradar/backend/internal/metrics"
	"github.com/rentradar/backend/internal/recommend"
	"github.com/rentradar/backend/pkg/logger"
)

type recommendService interface {
	Recommend(ctx context.Context, userID string, prefs recommend.Preferences, limit int) *recommend.Result
	Loaded() bool
}

type RecommendHandler struct {
	service recommendService
}

func NewRecommendHandler(service recommendService) *RecommendHandler {
	return &RecommendHandler{
		service: service,
	}
}

func (h *RecommendHandler) GetRecommendations(c *fiber.Ctx) error {
	start := time.Now()

	var req struct {
		UserID      string                 `json:"user_id"`
		Preferences *recommend.Preferences `json:"preferences"`
		Limit       int                    `json:"limit"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var missing []string
	if req.UserID == "" {
		missing = append(missing, "user_id")
	}
	if req.Preferences == nil {
		missing = append(missing, "preferences")
	}
	if len(missing) > 0 {
		metrics.RequestTotal.WithLabelValues("recommend", "invalid").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":          "Missing required fields",
			"missing_fields": missing,
		})
	}

	result := h.service.Recommend(c.Context(), req.UserID, *req.Preferences, req.Limit)

	metrics.RequestDuration.WithLabelValues("recommend").Observe(time.Since(start).Seconds())
	metrics.RequestTotal.WithLabelValues("recommend", "ok").Inc()

	properties := make([]interface{}, 0, len(result.Recommendations))
	scores := make([]float64, 0, len(result.Recommendations))
	reasoning := make([]string, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		properties = append(properties, rec.Property)
		scores = append(scores, rec.Score)
		reasoning = append(reasoning, rec.Reason)
	}

	return c.JSON(fiber.Map{
		"properties": properties,
		"scores":     scores,
		"reasoning":  reasoning,
		"degraded":   result.Degraded,
	})
}

func (h *RecommendHandler) Health(c *fiber.Ctx) error {
	status := "active"
	if !h.service.Loaded() {
		status = "not_found"
	}

	return c.JSON(fiber.Map{
		"status": status,
		"model":  "hybrid_recommendation",
	})
}
