package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rentradar/backend/internal/metrics"
	"github.com/rentradar/backend/internal/pricing"
	"github.com/rentradar/backend/pkg/logger"
)

type priceService interface {
	Estimate(ctx context.Context, features pricing.Features) *pricing.Result
	Loaded() bool
}

type marketInfo interface {
	SegmentCount() int
	RowCount() int
}

type PriceHandler struct {
	service priceService
	market  marketInfo
}

func NewPriceHandler(service priceService, market marketInfo) *PriceHandler {
	return &PriceHandler{
		service: service,
		market:  market,
	}
}

func (h *PriceHandler) EstimatePrice(c *fiber.Ctx) error {
	start := time.Now()

	var req struct {
		Postcode         *string `json:"postcode"`
		City             string  `json:"city"`
		PropertyType     *string `json:"property_type"`
		Bedrooms         *int    `json:"bedrooms"`
		Bathrooms        *int    `json:"bathrooms"`
		FurnishingStatus *string `json:"furnishing_status"`
		SquareFeet       int     `json:"square_feet"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var missing []string
	if req.Postcode == nil || *req.Postcode == "" {
		missing = append(missing, "postcode")
	}
	if req.PropertyType == nil || *req.PropertyType == "" {
		missing = append(missing, "property_type")
	}
	if req.Bedrooms == nil {
		missing = append(missing, "bedrooms")
	}
	if req.Bathrooms == nil {
		missing = append(missing, "bathrooms")
	}
	if req.FurnishingStatus == nil || *req.FurnishingStatus == "" {
		missing = append(missing, "furnishing_status")
	}
	if len(missing) > 0 {
		metrics.RequestTotal.WithLabelValues("price", "invalid").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":          "Missing required fields",
			"missing_fields": missing,
		})
	}

	if *req.Bedrooms < 0 || *req.Bathrooms < 0 {
		metrics.RequestTotal.WithLabelValues("price", "invalid").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "bedrooms and bathrooms must not be negative",
		})
	}

	features := pricing.Features{
		Postcode:         *req.Postcode,
		City:             req.City,
		PropertyType:     *req.PropertyType,
		Bedrooms:         *req.Bedrooms,
		Bathrooms:        *req.Bathrooms,
		FurnishingStatus: *req.FurnishingStatus,
		SquareFeet:       req.SquareFeet,
	}

	result := h.service.Estimate(c.Context(), features)

	metrics.RequestDuration.WithLabelValues("price").Observe(time.Since(start).Seconds())
	metrics.RequestTotal.WithLabelValues("price", "ok").Inc()

	response := fiber.Map{
		"estimated_price": result.EstimatedPrice,
		"confidence":      result.Confidence,
		"price_range":     result.PriceRange,
		"market_insights": result.MarketInsights,
		"degraded":        result.Degraded,
	}
	if result.Degraded {
		response["message"] = "Estimate produced by rule-based fallback; model path unavailable"
	}

	return c.JSON(response)
}

// Health reports whether the model artifact is loadable. It never errors:
// a missing model is reported as not_found, not a failure.
func (h *PriceHandler) Health(c *fiber.Ctx) error {
	status := "active"
	if !h.service.Loaded() {
		status = "not_found"
	}

	return c.JSON(fiber.Map{
		"status":          status,
		"model":           "price_estimation",
		"market_segments": h.market.SegmentCount(),
		"dataset_rows":    h.market.RowCount(),
	})
}
