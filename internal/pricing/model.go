package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/rentradar/backend/internal/market"
	"github.com/rentradar/backend/pkg/logger"
)

// modelArtifact is the trained linear model shipped as a JSON file. The
// region weights are keyed by postcode outward-area letters ("SW", "M").
type modelArtifact struct {
	Version               string             `json:"version"`
	Intercept             float64            `json:"intercept"`
	RegionWeights         map[string]float64 `json:"region_weights"`
	TypeWeights           map[string]float64 `json:"type_weights"`
	BedroomCoef           float64            `json:"bedroom_coef"`
	BathroomCoef          float64            `json:"bathroom_coef"`
	SqftCoef              float64            `json:"sqft_coef"`
	FurnishingAdjustments map[string]float64 `json:"furnishing_adjustments"`
	MarketBlend           float64            `json:"market_blend"`
}

// ModelEstimator is the primary estimation path. When the artifact is
// absent or malformed the estimator reports not loaded and every call
// errors, which the service turns into a fallback estimate.
type ModelEstimator struct {
	artifact *modelArtifact
	loaded   bool
}

func NewModelEstimator(path string) *ModelEstimator {
	m := &ModelEstimator{}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Price model artifact not available, fallback estimates only",
			zap.String("path", path),
			zap.Error(err),
		)
		return m
	}

	var artifact modelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		logger.Warn("Price model artifact malformed, fallback estimates only",
			zap.String("path", path),
			zap.Error(err),
		)
		return m
	}

	if artifact.MarketBlend < 0 || artifact.MarketBlend > 1 {
		artifact.MarketBlend = 0.3
	}

	m.artifact = &artifact
	m.loaded = true

	logger.Info("Price model loaded",
		zap.String("path", path),
		zap.String("version", artifact.Version),
		zap.Int("regions", len(artifact.RegionWeights)),
	)

	return m
}

func (m *ModelEstimator) Loaded() bool {
	return m.loaded
}

func (m *ModelEstimator) Version() string {
	if !m.loaded {
		return ""
	}
	return m.artifact.Version
}

func (m *ModelEstimator) Estimate(features Features, stats market.Statistics) (*Estimate, error) {
	if !m.loaded {
		return nil, ErrModelNotLoaded
	}

	a := m.artifact

	raw := a.Intercept
	raw += a.RegionWeights[outwardArea(features.Postcode)]
	raw += a.TypeWeights[CanonicalType(features.PropertyType)]
	raw += a.BedroomCoef * float64(features.Bedrooms)
	raw += a.BathroomCoef * float64(features.Bathrooms)
	if features.SquareFeet > 0 {
		raw += a.SqftCoef * float64(features.SquareFeet)
	}
	raw += a.FurnishingAdjustments[canonicalFurnishing(features.FurnishingStatus)]

	if raw <= 0 {
		return nil, fmt.Errorf("model produced non-positive estimate %.2f", raw)
	}

	estimate := raw
	insights := MarketInsights{
		AveragePrice:         math.Round(raw),
		MedianPrice:          math.Round(raw),
		ComparableProperties: 0,
	}

	if stats.SampleCount > 0 {
		estimate = raw*(1-a.MarketBlend) + stats.AveragePrice*a.MarketBlend
		insights = MarketInsights{
			AveragePrice:         math.Round(stats.AveragePrice),
			MedianPrice:          math.Round(stats.MedianPrice),
			ComparableProperties: stats.SampleCount,
		}
	}

	return &Estimate{
		EstimatedPrice: int(math.Round(estimate)),
		Confidence:     modelConfidence(stats.SampleCount),
		PriceRange: PriceRange{
			Min: int(math.Round(estimate * 0.9)),
			Max: int(math.Round(estimate * 1.1)),
		},
		MarketInsights: insights,
	}, nil
}

// modelConfidence grows with the number of comparable listings backing the
// segment statistics, from 0.6 with no comparables to a 0.95 cap.
func modelConfidence(sampleCount int) float64 {
	scale := float64(sampleCount) / 50.0
	if scale > 1 {
		scale = 1
	}
	return math.Min(0.6+0.35*scale, 0.95)
}
