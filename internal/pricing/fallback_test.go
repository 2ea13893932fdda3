package pricing

import (
	"testing"

	"github.com/rentradar/backend/internal/market"
)

func TestRuleEstimateKnownExamples(t *testing.T) {
	tests := []struct {
		name     string
		features Features
		want     int
		wantMin  int
		wantMax  int
	}{
		{
			name: "furnished two-bed flat",
			features: Features{
				PropertyType:     "Flat",
				Bedrooms:         2,
				Bathrooms:        1,
				FurnishingStatus: "Furnished",
			},
			want:    1700,
			wantMin: 1445,
			wantMax: 1955,
		},
		{
			name: "unfurnished studio",
			features: Features{
				PropertyType:     "Studio",
				Bedrooms:         1,
				Bathrooms:        1,
				FurnishingStatus: "Unfurnished",
			},
			want:    900,
			wantMin: 765,
			wantMax: 1035,
		},
		{
			name: "part-furnished three-bed house with two bathrooms",
			features: Features{
				PropertyType:     "House",
				Bedrooms:         3,
				Bathrooms:        2,
				FurnishingStatus: "Part-Furnished",
			},
			// 1800 + 600 + 150 + 100
			want:    2650,
			wantMin: 2253,
			wantMax: 3048,
		},
		{
			name: "unknown property type uses default base",
			features: Features{
				PropertyType:     "Castle",
				Bedrooms:         1,
				Bathrooms:        1,
				FurnishingStatus: "Unfurnished",
			},
			want:    1200,
			wantMin: 1020,
			wantMax: 1380,
		},
	}

	r := NewRuleEstimator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := r.Estimate(tt.features, market.Statistics{})
			if err != nil {
				t.Fatalf("Estimate: %v", err)
			}
			if est.EstimatedPrice != tt.want {
				t.Errorf("EstimatedPrice: got %d, want %d", est.EstimatedPrice, tt.want)
			}
			if est.PriceRange.Min != tt.wantMin {
				t.Errorf("PriceRange.Min: got %d, want %d", est.PriceRange.Min, tt.wantMin)
			}
			if est.PriceRange.Max != tt.wantMax {
				t.Errorf("PriceRange.Max: got %d, want %d", est.PriceRange.Max, tt.wantMax)
			}
			if est.Confidence != 0.5 {
				t.Errorf("Confidence: got %.2f, want 0.5", est.Confidence)
			}
		})
	}
}

func TestRuleEstimateDeterministic(t *testing.T) {
	r := NewRuleEstimator()
	features := Features{
		PropertyType:     "Maisonette",
		Bedrooms:         4,
		Bathrooms:        2,
		FurnishingStatus: "Furnished",
	}

	first, err := r.Estimate(features, market.Statistics{})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := r.Estimate(features, market.Statistics{})
		if err != nil {
			t.Fatalf("Estimate: %v", err)
		}
		if *got != *first {
			t.Fatalf("run %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestRuleEstimateRangeInvariant(t *testing.T) {
	r := NewRuleEstimator()
	types := []string{"Studio", "Flat", "House", "Bungalow", "Maisonette", "Houseboat"}
	furnishings := []string{"Furnished", "Unfurnished", "Part-Furnished"}

	for _, propertyType := range types {
		for _, furnishing := range furnishings {
			for bedrooms := 0; bedrooms <= 6; bedrooms++ {
				for bathrooms := 0; bathrooms <= 4; bathrooms++ {
					est, err := r.Estimate(Features{
						PropertyType:     propertyType,
						Bedrooms:         bedrooms,
						Bathrooms:        bathrooms,
						FurnishingStatus: furnishing,
					}, market.Statistics{})
					if err != nil {
						t.Fatalf("Estimate: %v", err)
					}
					if est.PriceRange.Min > est.EstimatedPrice || est.EstimatedPrice > est.PriceRange.Max {
						t.Errorf("%s/%s %dbed %dbath: range [%d,%d] does not bracket %d",
							propertyType, furnishing, bedrooms, bathrooms,
							est.PriceRange.Min, est.PriceRange.Max, est.EstimatedPrice)
					}
				}
			}
		}
	}
}

func TestRuleEstimateSynthesizedInsights(t *testing.T) {
	r := NewRuleEstimator()
	est, err := r.Estimate(Features{
		PropertyType:     "Flat",
		Bedrooms:         1,
		Bathrooms:        1,
		FurnishingStatus: "Unfurnished",
	}, market.Statistics{})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	if est.MarketInsights.ComparableProperties != 0 {
		t.Errorf("ComparableProperties: got %d, want 0", est.MarketInsights.ComparableProperties)
	}
	if est.MarketInsights.AveragePrice != float64(est.EstimatedPrice) {
		t.Errorf("synthesized average: got %.2f, want %d", est.MarketInsights.AveragePrice, est.EstimatedPrice)
	}
	if est.MarketInsights.MedianPrice != float64(est.EstimatedPrice) {
		t.Errorf("synthesized median: got %.2f, want %d", est.MarketInsights.MedianPrice, est.EstimatedPrice)
	}
}

func TestRuleEstimateUsesRealComparables(t *testing.T) {
	r := NewRuleEstimator()
	stats := market.Statistics{AveragePrice: 1500, MedianPrice: 1450, SampleCount: 12, Basis: market.BasisExact}

	est, err := r.Estimate(Features{
		PropertyType:     "Flat",
		Bedrooms:         1,
		Bathrooms:        1,
		FurnishingStatus: "Unfurnished",
	}, stats)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	if est.MarketInsights.ComparableProperties != 12 {
		t.Errorf("ComparableProperties: got %d, want 12", est.MarketInsights.ComparableProperties)
	}
	if est.MarketInsights.AveragePrice != 1500 {
		t.Errorf("AveragePrice: got %.2f, want 1500", est.MarketInsights.AveragePrice)
	}
}

func TestCanonicalType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"flat", "Flat"},
		{"FLAT", "Flat"},
		{"apartment", "Flat"},
		{" studio ", "Studio"},
		{"maisonette", "Maisonette"},
		{"Castle", "Castle"},
	}
	for _, tt := range tests {
		if got := CanonicalType(tt.in); got != tt.want {
			t.Errorf("CanonicalType(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutwardArea(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SW1A 1AA", "SW"},
		{"m1 4bt", "M"},
		{"EC2V 7HN", "EC"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := outwardArea(tt.in); got != tt.want {
			t.Errorf("outwardArea(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}
