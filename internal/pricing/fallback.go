package pricing

import (
	"math"

	"github.com/rentradar/backend/internal/market"
)

const fallbackConfidence = 0.5

var basePriceByType = map[string]float64{
	TypeStudio:     900,
	TypeFlat:       1200,
	TypeHouse:      1800,
	TypeBungalow:   1500,
	TypeMaisonette: 1300,
}

const unknownTypeBase = 1200

// RuleEstimator is the deterministic fallback path. It never fails for
// syntactically valid input and carries a fixed reduced confidence to
// signal that the model path did not run.
type RuleEstimator struct{}

func NewRuleEstimator() *RuleEstimator {
	return &RuleEstimator{}
}

func (r *RuleEstimator) Loaded() bool {
	return true
}

func (r *RuleEstimator) Estimate(features Features, stats market.Statistics) (*Estimate, error) {
	base, ok := basePriceByType[CanonicalType(features.PropertyType)]
	if !ok {
		base = unknownTypeBase
	}

	estimate := base
	if features.Bedrooms > 1 {
		estimate += 300 * float64(features.Bedrooms-1)
	}
	if features.Bathrooms > 1 {
		estimate += 150 * float64(features.Bathrooms-1)
	}

	switch canonicalFurnishing(features.FurnishingStatus) {
	case FurnishingFurnished:
		estimate += 200
	case FurnishingPartFurnished:
		estimate += 100
	}

	insights := MarketInsights{
		AveragePrice:         estimate,
		MedianPrice:          estimate,
		ComparableProperties: 0,
	}
	if stats.SampleCount > 0 {
		insights = MarketInsights{
			AveragePrice:         math.Round(stats.AveragePrice),
			MedianPrice:          math.Round(stats.MedianPrice),
			ComparableProperties: stats.SampleCount,
		}
	}

	return &Estimate{
		EstimatedPrice: int(math.Round(estimate)),
		Confidence:     fallbackConfidence,
		PriceRange: PriceRange{
			Min: int(math.Round(estimate * 0.85)),
			Max: int(math.Round(estimate * 1.15)),
		},
		MarketInsights: insights,
	}, nil
}
