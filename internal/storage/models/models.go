package models

import "time"

// Property is an active marketplace listing.
type Property struct {
	ID               string
	LandlordID       string
	Title            string
	Description      string
	City             string
	Postcode         string
	PropertyType     string
	Bedrooms         int
	Bathrooms        int
	FurnishingStatus string
	SquareFeet       int
	PricePerMonth    float64
	Status           string
	CreatedAt        time.Time
}

// HistoricalListing is one row of the market dataset that statistics
// are aggregated from.
type HistoricalListing struct {
	ID            string
	City          string
	PropertyType  string
	Bedrooms      int
	Bathrooms     int
	PricePerMonth float64
	ListedAt      time.Time
}

type FraudReport struct {
	ID         string
	PropertyID string
	LandlordID string
	ReportType string
	FraudScore float64
	RiskLevel  string
	Reasons    []string
	CreatedAt  time.Time
}

// UserPreferences is keyed by user; writes replace the previous record.
type UserPreferences struct {
	UserID           string
	City             string
	PropertyType     string
	PriceMin         float64
	PriceMax         float64
	MinBedrooms      int
	FurnishingStatus string
	UpdatedAt        time.Time
}

type Interaction struct {
	ID         int
	UserID     string
	PropertyID string
	Action     string
	CreatedAt  time.Time
}
