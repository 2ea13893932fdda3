package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rentradar/backend/internal/storage/models"
)

type Preferences struct {
	City             string  `json:"city,omitempty"`
	PropertyType     string  `json:"property_type,omitempty"`
	PriceMin         float64 `json:"price_min,omitempty"`
	PriceMax         float64 `json:"price_max,omitempty"`
	MinBedrooms      int     `json:"min_bedrooms,omitempty"`
	FurnishingStatus string  `json:"furnishing_status,omitempty"`
}

type Recommendation struct {
	Property models.Property `json:"property"`
	Score    float64         `json:"score"`
	Reason   string          `json:"reason"`
}

type Recommender interface {
	Recommend(ctx context.Context, userID string, prefs Preferences, candidates []models.Property, limit int) ([]Recommendation, error)
}

// ApplyFilters drops candidates that fail any stated hard filter. Failing
// properties are excluded outright, never merely down-ranked. Input order
// is preserved.
func ApplyFilters(candidates []models.Property, prefs Preferences) []models.Property {
	filtered := make([]models.Property, 0, len(candidates))
	for _, p := range candidates {
		if prefs.PriceMin > 0 && p.PricePerMonth < prefs.PriceMin {
			continue
		}
		if prefs.PriceMax > 0 && p.PricePerMonth > prefs.PriceMax {
			continue
		}
		if prefs.PropertyType != "" && !strings.EqualFold(p.PropertyType, prefs.PropertyType) {
			continue
		}
		if prefs.MinBedrooms > 0 && p.Bedrooms < prefs.MinBedrooms {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

type interactionSource interface {
	CountUserInteractions(ctx context.Context, userID string) (int, error)
	CoInteractionWeights(ctx context.Context, userID string) (map[string]int, error)
}

// HybridRecommender blends content similarity against stated preferences
// with a collaborative co-interaction signal. With no interaction history
// (cold start) the blend shifts almost entirely to content.
type HybridRecommender struct {
	interactions           interactionSource
	contentWeight          float64
	coldStartContentWeight float64
}

func NewHybridRecommender(interactions interactionSource, contentWeight, coldStartContentWeight float64) *HybridRecommender {
	if contentWeight <= 0 || contentWeight > 1 {
		contentWeight = 0.6
	}
	if coldStartContentWeight <= 0 || coldStartContentWeight > 1 {
		coldStartContentWeight = 0.9
	}

	return &HybridRecommender{
		interactions:           interactions,
		contentWeight:          contentWeight,
		coldStartContentWeight: coldStartContentWeight,
	}
}

func (r *HybridRecommender) Recommend(ctx context.Context, userID string, prefs Preferences, candidates []models.Property, limit int) ([]Recommendation, error) {
	historyCount, err := r.interactions.CountUserInteractions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load interaction history: %w", err)
	}

	contentWeight := r.coldStartContentWeight
	weights := map[string]int{}
	if historyCount > 0 {
		weights, err = r.interactions.CoInteractionWeights(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load collaborative signal: %w", err)
		}
		contentWeight = r.contentWeight
	}

	maxWeight := 0
	for _, w := range weights {
		if w > maxWeight {
			maxWeight = w
		}
	}

	recs := make([]Recommendation, 0, len(candidates))
	for _, p := range candidates {
		content := contentSimilarity(p, prefs)

		collab := 0.0
		if maxWeight > 0 {
			collab = float64(weights[p.ID]) / float64(maxWeight)
		}

		score := contentWeight*content + (1-contentWeight)*collab

		recs = append(recs, Recommendation{
			Property: p,
			Score:    score,
			Reason:   reason(p, prefs, contentWeight*content, (1-contentWeight)*collab),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}

	return recs, nil
}

func contentSimilarity(p models.Property, prefs Preferences) float64 {
	score := 0.0
	if prefs.PropertyType != "" && strings.EqualFold(p.PropertyType, prefs.PropertyType) {
		score += 0.35
	}
	if prefs.City != "" && strings.EqualFold(p.City, prefs.City) {
		score += 0.25
	}
	if prefs.MinBedrooms > 0 && p.Bedrooms >= prefs.MinBedrooms {
		score += 0.15
	}
	if prefs.FurnishingStatus != "" && strings.EqualFold(p.FurnishingStatus, prefs.FurnishingStatus) {
		score += 0.05
	}
	score += 0.2 * priceFit(p.PricePerMonth, prefs)

	return math.Min(score, 1.0)
}

// priceFit rewards prices near the middle of the preferred band; hard
// filtering already removed anything outside it.
func priceFit(price float64, prefs Preferences) float64 {
	low, high := prefs.PriceMin, prefs.PriceMax
	if low <= 0 && high <= 0 {
		return 0.5
	}
	if high <= 0 {
		high = low * 2
	}
	if low >= high {
		return 1
	}

	mid := (low + high) / 2
	half := (high - low) / 2
	distance := math.Abs(price-mid) / half
	if distance > 1 {
		distance = 1
	}
	return 1 - distance
}

func reason(p models.Property, prefs Preferences, contentPart, collabPart float64) string {
	if collabPart > contentPart && collabPart > 0 {
		return "Popular with renters who viewed similar properties"
	}
	if prefs.PropertyType != "" && strings.EqualFold(p.PropertyType, prefs.PropertyType) {
		if prefs.City != "" && strings.EqualFold(p.City, prefs.City) {
			return fmt.Sprintf("%s in %s matching your preferences", p.PropertyType, p.City)
		}
		return fmt.Sprintf("%s matching your preferences", p.PropertyType)
	}
	return "Strong match for your stated preferences"
}

// NaiveRecommender is the fallback path: the first limit filtered
// candidates in their original order, each with a neutral fixed score. It
// cannot fail, so the caller always gets a usable bounded result.
type NaiveRecommender struct{}

func NewNaiveRecommender() *NaiveRecommender {
	return &NaiveRecommender{}
}

func (r *NaiveRecommender) Recommend(_ context.Context, _ string, _ Preferences, candidates []models.Property, limit int) ([]Recommendation, error) {
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	recs := make([]Recommendation, 0, len(candidates))
	for _, p := range candidates {
		recs = append(recs, Recommendation{
			Property: p,
			Score:    0.5,
			Reason:   "Matches your search criteria",
		})
	}

	return recs, nil
}
