package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rentradar/backend/internal/fraud"
	"github.com/rentradar/backend/internal/market"
	"github.com/rentradar/backend/internal/metrics"
	"github.com/rentradar/backend/pkg/logger"
)

type fraudService interface {
	Check(ctx context.Context, in fraud.Input) (*fraud.Result, fraud.SideEffect)
	Scorer() *fraud.Scorer
}

type statsSource interface {
	Get(city, propertyType string) market.Statistics
}

type landlordSource interface {
	CountLandlordListings(ctx context.Context, landlordID string) (int, error)
}

type FraudHandler struct {
	service       fraudService
	stats         statsSource
	landlords     landlordSource
	lookupTimeout time.Duration
}

func NewFraudHandler(service fraudService, stats statsSource, landlords landlordSource, lookupTimeout time.Duration) *FraudHandler {
	if lookupTimeout <= 0 {
		lookupTimeout = 5 * time.Second
	}

	return &FraudHandler{
		service:       service,
		stats:         stats,
		landlords:     landlords,
		lookupTimeout: lookupTimeout,
	}
}

type fraudPropertyData struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	City          string  `json:"city"`
	PropertyType  string  `json:"property_type"`
	PricePerMonth float64 `json:"price_per_month"`
}

func (h *FraudHandler) CheckFraud(c *fiber.Ctx) error {
	start := time.Now()

	var req struct {
		PropertyData *fraudPropertyData `json:"property_data"`
		LandlordID   string             `json:"landlord_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var missing []string
	if req.PropertyData == nil {
		missing = append(missing, "property_data")
	}
	if req.LandlordID == "" {
		missing = append(missing, "landlord_id")
	}
	if len(missing) > 0 {
		metrics.RequestTotal.WithLabelValues("fraud", "invalid").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":          "Missing required fields",
			"missing_fields": missing,
		})
	}

	stats := h.stats.Get(req.PropertyData.City, req.PropertyData.PropertyType)

	// The landlord count lookup is best-effort: a storage failure
	// degrades that signal to zero rather than failing the check.
	lookupCtx, cancel := context.WithTimeout(c.Context(), h.lookupTimeout)
	defer cancel()

	listingCount, err := h.landlords.CountLandlordListings(lookupCtx, req.LandlordID)
	if err != nil {
		logger.Warn("Failed to count landlord listings",
			zap.Error(err),
			zap.String("landlord_id", req.LandlordID),
		)
		listingCount = 0
	}

	input := fraud.Input{
		PropertyID:           req.PropertyData.ID,
		LandlordID:           req.LandlordID,
		Title:                req.PropertyData.Title,
		Description:          req.PropertyData.Description,
		City:                 req.PropertyData.City,
		PropertyType:         req.PropertyData.PropertyType,
		PricePerMonth:        req.PropertyData.PricePerMonth,
		MarketAverage:        stats.AveragePrice,
		LandlordListingCount: listingCount,
	}

	result, effect := h.service.Check(c.Context(), input)

	metrics.RequestDuration.WithLabelValues("fraud").Observe(time.Since(start).Seconds())
	metrics.RequestTotal.WithLabelValues("fraud", "ok").Inc()

	response := fiber.Map{
		"fraud_score":   result.FraudScore,
		"is_fraudulent": result.IsFraudulent,
		"risk_level":    result.RiskLevel,
		"reasons":       result.Reasons,
		"risk_factors":  result.RiskFactors,
	}
	if effect.Attempted && effect.Err == nil {
		response["report_id"] = effect.ReportID
	}

	return c.JSON(response)
}

func (h *FraudHandler) Health(c *fiber.Ctx) error {
	scorer := h.service.Scorer()

	status := "active"
	if !scorer.Loaded() {
		status = "not_found"
	}

	return c.JSON(fiber.Map{
		"status":        status,
		"model":         "fraud_detection",
		"keyword_count": scorer.KeywordCount(),
	})
}
