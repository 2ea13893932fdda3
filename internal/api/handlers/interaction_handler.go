package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rentradar/backend/internal/metrics"
	"github.com/rentradar/backend/internal/storage/models"
	"github.com/rentradar/backend/pkg/logger"
)

type interactionStore interface {
	InsertInteraction(ctx context.Context, interaction *models.Interaction) error
}

var allowedActions = map[string]bool{
	"view":    true,
	"save":    true,
	"enquire": true,
}

// InteractionHandler records user-property events. These rows feed the
// collaborative signal in the recommendation engine.
type InteractionHandler struct {
	store interactionStore
}

func NewInteractionHandler(store interactionStore) *InteractionHandler {
	return &InteractionHandler{store: store}
}

func (h *InteractionHandler) RecordInteraction(c *fiber.Ctx) error {
	var req struct {
		UserID     string `json:"user_id"`
		PropertyID string `json:"property_id"`
		Action     string `json:"action"`
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
	if req.PropertyID == "" {
		missing = append(missing, "property_id")
	}
	if req.Action == "" {
		missing = append(missing, "action")
	}
	if len(missing) > 0 {
		metrics.RequestTotal.WithLabelValues("interaction", "invalid").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":          "Missing required fields",
			"missing_fields": missing,
		})
	}

	if !allowedActions[req.Action] {
		metrics.RequestTotal.WithLabelValues("interaction", "invalid").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "action must be one of: view, save, enquire",
		})
	}

	interaction := &models.Interaction{
		UserID:     req.UserID,
		PropertyID: req.PropertyID,
		Action:     req.Action,
		CreatedAt:  time.Now(),
	}

	if err := h.store.InsertInteraction(c.Context(), interaction); err != nil {
		logger.Error("Failed to record interaction",
			zap.Error(err),
			zap.String("user_id", req.UserID),
			zap.String("property_id", req.PropertyID),
		)
		metrics.RequestTotal.WithLabelValues("interaction", "error").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record interaction",
		})
	}

	metrics.RequestTotal.WithLabelValues("interaction", "ok").Inc()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"recorded": true,
	})
}
