package fraud

import (
	"fmt"
	"math"
	"strings"

	"github.com/rentradar/backend/pkg/config"
)

// Risk level buckets over the composite score.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Per-signal thresholds above which a sub-score contributes a reason.
const (
	contentReasonThreshold  = 0.3
	priceReasonThreshold    = 0.4
	landlordReasonThreshold = 0.5
)

const keywordIncrement = 0.15

// Input carries the listing under examination plus the two enrichment
// values callers resolve beforehand: the market average for the listing's
// segment and the landlord's active listing count.
type Input struct {
	PropertyID           string  `json:"property_id"`
	LandlordID           string  `json:"landlord_id"`
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	City                 string  `json:"city"`
	PropertyType         string  `json:"property_type"`
	PricePerMonth        float64 `json:"price_per_month"`
	MarketAverage        float64 `json:"market_average"`
	LandlordListingCount int     `json:"landlord_listing_count"`
}

type RiskFactors struct {
	PriceDeviation    float64 `json:"price_deviation"`
	LandlordHistory   float64 `json:"landlord_history"`
	ContentSimilarity float64 `json:"content_similarity"`
}

type Result struct {
	FraudScore   float64     `json:"fraud_score"`
	IsFraudulent bool        `json:"is_fraudulent"`
	RiskLevel    string      `json:"risk_level"`
	Reasons      []string    `json:"reasons"`
	RiskFactors  RiskFactors `json:"risk_factors"`
}

// Scorer combines three independent signals into a composite fraud score.
// Scoring is a pure function of the input, so one Scorer serves concurrent
// requests without locking.
type Scorer struct {
	classificationThreshold float64
	contentWeight           float64
	priceWeight             float64
	landlordWeight          float64
	patterns                []string
}

func NewScorer(cfg config.FraudConfig) *Scorer {
	patterns := cfg.KeywordPatterns
	if len(patterns) == 0 {
		patterns = defaultKeywordPatterns
	}

	contentWeight := cfg.ContentWeight
	priceWeight := cfg.PriceWeight
	landlordWeight := cfg.LandlordWeight
	if contentWeight+priceWeight+landlordWeight <= 0 {
		contentWeight, priceWeight, landlordWeight = 0.40, 0.35, 0.25
	}

	threshold := cfg.ClassificationThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.55
	}

	return &Scorer{
		classificationThreshold: threshold,
		contentWeight:           contentWeight,
		priceWeight:             priceWeight,
		landlordWeight:          landlordWeight,
		patterns:                patterns,
	}
}

func (s *Scorer) Score(in Input) *Result {
	contentScore, matched := s.contentScore(in.Title, in.Description)
	priceScore, deviation := priceDeviationScore(in.PricePerMonth, in.MarketAverage)
	landlordScore := landlordHistoryScore(in.LandlordListingCount)

	totalWeight := s.contentWeight + s.priceWeight + s.landlordWeight
	composite := (contentScore*s.contentWeight + priceScore*s.priceWeight + landlordScore*s.landlordWeight) / totalWeight
	composite = math.Min(composite, 1.0)

	// Reason ordering is fixed (content > price anomaly > landlord
	// history) so identical input always yields identical output.
	var reasons []string
	if contentScore >= contentReasonThreshold {
		reasons = append(reasons, fmt.Sprintf("Description contains suspicious language (%d flagged phrases)", len(matched)))
	}
	if priceScore >= priceReasonThreshold {
		if deviation < 0 {
			reasons = append(reasons, fmt.Sprintf("Price is %.0f%% below the market average for this area", -deviation*100))
		} else {
			reasons = append(reasons, fmt.Sprintf("Price is %.0f%% above the market average for this area", deviation*100))
		}
	}
	if landlordScore >= landlordReasonThreshold {
		reasons = append(reasons, fmt.Sprintf("Landlord has an unusually high number of active listings (%d)", in.LandlordListingCount))
	}

	return &Result{
		FraudScore:   composite,
		IsFraudulent: composite >= s.classificationThreshold,
		RiskLevel:    riskLevel(composite),
		Reasons:      reasons,
		RiskFactors: RiskFactors{
			PriceDeviation:    priceScore,
			LandlordHistory:   landlordScore,
			ContentSimilarity: contentScore,
		},
	}
}

// KeywordCount reports the size of the active pattern list for the health
// surface.
func (s *Scorer) KeywordCount() int {
	return len(s.patterns)
}

func (s *Scorer) Loaded() bool {
	return len(s.patterns) > 0
}

func (s *Scorer) contentScore(title, description string) (float64, []string) {
	text := normalizeContent(strings.TrimSpace(title + " " + description))
	if text == "" {
		return 0, nil
	}

	var matched []string
	for _, pattern := range s.patterns {
		if strings.Contains(text, pattern) {
			matched = append(matched, pattern)
		}
	}

	return math.Min(float64(len(matched))*keywordIncrement, 1.0), matched
}

// priceDeviationScore returns the sub-score and the fractional deviation.
// Underpricing is the stronger fraud signal in this domain, so negative
// deviation is weighted heavier than positive.
func priceDeviationScore(price, marketAverage float64) (float64, float64) {
	if price <= 0 || marketAverage <= 0 {
		return 0, 0
	}

	deviation := (price - marketAverage) / marketAverage
	if deviation < 0 {
		return math.Min(-deviation*2.0, 1.0), deviation
	}
	return math.Min(deviation*0.75, 1.0), deviation
}

// landlordHistoryScore saturates toward 1 as the active listing count
// grows; counts up to five are treated as normal. Monotonically
// non-decreasing in count.
func landlordHistoryScore(count int) float64 {
	excess := float64(count - 5)
	if excess <= 0 {
		return 0
	}
	return 1 - math.Exp(-excess/10)
}

func riskLevel(score float64) string {
	switch {
	case score >= 0.8:
		return RiskCritical
	case score >= 0.55:
		return RiskHigh
	case score >= 0.3:
		return RiskMedium
	default:
		return RiskLow
	}
}
