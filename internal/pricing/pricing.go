package pricing

import (
	"errors"
	"strings"

	"github.com/rentradar/backend/internal/market"
)

var ErrModelNotLoaded = errors.New("price model not loaded")

// Canonical property types accepted by the marketplace.
const (
	TypeStudio     = "Studio"
	TypeFlat       = "Flat"
	TypeHouse      = "House"
	TypeBungalow   = "Bungalow"
	TypeMaisonette = "Maisonette"
)

const (
	FurnishingFurnished     = "Furnished"
	FurnishingUnfurnished   = "Unfurnished"
	FurnishingPartFurnished = "Part-Furnished"
)

type Features struct {
	Postcode         string  `json:"postcode"`
	City             string  `json:"city,omitempty"`
	PropertyType     string  `json:"property_type"`
	Bedrooms         int     `json:"bedrooms"`
	Bathrooms        int     `json:"bathrooms"`
	FurnishingStatus string  `json:"furnishing_status"`
	SquareFeet       int     `json:"square_feet,omitempty"`
	PricePerMonth    float64 `json:"price_per_month,omitempty"`
}

type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type MarketInsights struct {
	AveragePrice         float64 `json:"average_price"`
	MedianPrice          float64 `json:"median_price"`
	ComparableProperties int     `json:"comparable_properties"`
}

type Estimate struct {
	EstimatedPrice int            `json:"estimated_price"`
	Confidence     float64        `json:"confidence"`
	PriceRange     PriceRange     `json:"price_range"`
	MarketInsights MarketInsights `json:"market_insights"`
}

// Estimator produces a monthly rent estimate from listing features and the
// market statistics for the listing's segment. Implementations must be
// stateless per call.
type Estimator interface {
	Estimate(features Features, stats market.Statistics) (*Estimate, error)
	Loaded() bool
}

// CanonicalType maps free-form property type input onto the canonical
// enum, returning the input unchanged when unknown.
func CanonicalType(propertyType string) string {
	switch strings.ToLower(strings.TrimSpace(propertyType)) {
	case "studio":
		return TypeStudio
	case "flat", "apartment":
		return TypeFlat
	case "house":
		return TypeHouse
	case "bungalow":
		return TypeBungalow
	case "maisonette":
		return TypeMaisonette
	default:
		return propertyType
	}
}

func canonicalFurnishing(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "furnished":
		return FurnishingFurnished
	case "unfurnished":
		return FurnishingUnfurnished
	case "part-furnished", "part furnished", "partly furnished":
		return FurnishingPartFurnished
	default:
		return status
	}
}

// outwardArea extracts the letter prefix of a UK postcode's outward code,
// e.g. "SW1A 1AA" -> "SW". Used as the region encoding for the model.
func outwardArea(postcode string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(postcode))
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] >= '0' && trimmed[i] <= '9' {
			return trimmed[:i]
		}
	}
	return trimmed
}
