package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/rentradar/backend/internal/market"
	"github.com/rentradar/backend/pkg/config"
)

type stubEstimator struct {
	loaded bool
	calls  int
	est    *Estimate
	err    error
}

func (s *stubEstimator) Estimate(features Features, stats market.Statistics) (*Estimate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.est, nil
}

func (s *stubEstimator) Loaded() bool {
	return s.loaded
}

type stubStats struct {
	stats market.Statistics
}

func (s *stubStats) Get(city, propertyType string) market.Statistics {
	return s.stats
}

func validFeatures() Features {
	return Features{
		Postcode:         "SW1A 1AA",
		City:             "London",
		PropertyType:     "Flat",
		Bedrooms:         2,
		Bathrooms:        1,
		FurnishingStatus: "Furnished",
	}
}

func TestServicePrimarySuccess(t *testing.T) {
	primary := &stubEstimator{
		loaded: true,
		est: &Estimate{
			EstimatedPrice: 1850,
			Confidence:     0.9,
			PriceRange:     PriceRange{Min: 1665, Max: 2035},
		},
	}
	svc := NewService(primary, &stubStats{}, nil, config.PricingConfig{})

	result := svc.Estimate(context.Background(), validFeatures())
	if result.Degraded {
		t.Error("expected primary result not to be degraded")
	}
	if result.EstimatedPrice != 1850 {
		t.Errorf("EstimatedPrice: got %d, want 1850", result.EstimatedPrice)
	}
	if primary.calls != 1 {
		t.Errorf("primary calls: got %d, want 1", primary.calls)
	}
}

func TestServiceDegradesToFallback(t *testing.T) {
	primary := &stubEstimator{loaded: true, err: errors.New("artifact corrupt")}
	svc := NewService(primary, &stubStats{}, nil, config.PricingConfig{})

	result := svc.Estimate(context.Background(), validFeatures())
	if !result.Degraded {
		t.Error("expected degraded result when primary fails")
	}
	// Rule fallback: 1200 + 300 + 200.
	if result.EstimatedPrice != 1700 {
		t.Errorf("EstimatedPrice: got %d, want 1700", result.EstimatedPrice)
	}
}

func TestServiceUnloadedPrimarySkipsModel(t *testing.T) {
	primary := &stubEstimator{loaded: false}
	svc := NewService(primary, &stubStats{}, nil, config.PricingConfig{})

	result := svc.Estimate(context.Background(), validFeatures())
	if !result.Degraded {
		t.Error("expected degraded result for unloaded primary")
	}
	if primary.calls != 0 {
		t.Errorf("primary calls: got %d, want 0", primary.calls)
	}
	if svc.Loaded() {
		t.Error("Loaded: got true, want false")
	}
}

func TestServiceBreakerStopsCallingBrokenPrimary(t *testing.T) {
	primary := &stubEstimator{loaded: true, err: errors.New("model exploded")}
	svc := NewService(primary, &stubStats{}, nil, config.PricingConfig{})

	for i := 0; i < 8; i++ {
		result := svc.Estimate(context.Background(), validFeatures())
		if !result.Degraded {
			t.Fatalf("request %d: expected degraded result", i)
		}
	}

	// The breaker opens after five consecutive failures, so later requests
	// go straight to the fallback without touching the primary.
	if primary.calls != 5 {
		t.Errorf("primary calls: got %d, want 5", primary.calls)
	}
}

func TestServiceFallbackUsesMarketStats(t *testing.T) {
	stats := market.Statistics{AveragePrice: 1600, MedianPrice: 1550, SampleCount: 20, Basis: market.BasisExact}
	svc := NewService(nil, &stubStats{stats: stats}, nil, config.PricingConfig{})

	result := svc.Estimate(context.Background(), validFeatures())
	if !result.Degraded {
		t.Error("expected degraded result with no primary")
	}
	if result.MarketInsights.ComparableProperties != 20 {
		t.Errorf("ComparableProperties: got %d, want 20", result.MarketInsights.ComparableProperties)
	}
	if result.MarketInsights.AveragePrice != 1600 {
		t.Errorf("AveragePrice: got %.2f, want 1600", result.MarketInsights.AveragePrice)
	}
}
