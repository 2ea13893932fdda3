package recommend

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rentradar/backend/internal/cache/redis"
	"github.com/rentradar/backend/internal/metrics"
	"github.com/rentradar/backend/internal/storage/models"
	"github.com/rentradar/backend/pkg/config"
	"github.com/rentradar/backend/pkg/logger"
	"github.com/rentradar/backend/pkg/utils"
)

type candidateSource interface {
	GetActiveProperties(ctx context.Context, limit int) ([]models.Property, error)
}

type preferenceStore interface {
	UpsertUserPreferences(ctx context.Context, prefs *models.UserPreferences) error
}

// Result is the cacheable response shape: the recommendations plus whether
// the fallback path produced them.
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	Degraded        bool             `json:"degraded"`
}

type Service struct {
	primary      Recommender
	fallback     Recommender
	candidates   candidateSource
	prefsStore   preferenceStore
	cache        *redis.Client
	candidateCap int
	defaultLimit int
	cacheTTL     time.Duration
}

func NewService(primary Recommender, candidates candidateSource, prefsStore preferenceStore, cache *redis.Client, cfg config.RecommendConfig) *Service {
	candidateCap := cfg.CandidateCap
	if candidateCap <= 0 {
		candidateCap = 500
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 10
	}

	return &Service{
		primary:      primary,
		fallback:     NewNaiveRecommender(),
		candidates:   candidates,
		prefsStore:   prefsStore,
		cache:        cache,
		candidateCap: candidateCap,
		defaultLimit: defaultLimit,
		cacheTTL:     time.Duration(cfg.CacheTTLSec) * time.Second,
	}
}

// Recommend filters the bounded candidate set, scores it with the primary
// recommender, and degrades to naive preference filtering when the primary
// path is unavailable. It never returns an error: the worst case is an
// empty degraded result.
func (s *Service) Recommend(ctx context.Context, userID string, prefs Preferences, limit int) *Result {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	cacheKey := utils.HashJSON(struct {
		UserID string      `json:"user_id"`
		Prefs  Preferences `json:"prefs"`
		Limit  int         `json:"limit"`
	}{userID, prefs, limit})

	var cached Result
	hit, err := s.cache.GetRecommendations(ctx, cacheKey, &cached)
	if err != nil {
		logger.Warn("Recommendation cache lookup failed", zap.Error(err))
	}
	if hit {
		metrics.CacheHits.WithLabelValues("recommend").Inc()
		return &cached
	}
	metrics.CacheMisses.WithLabelValues("recommend").Inc()

	s.persistPreferences(ctx, userID, prefs)

	result := s.recommend(ctx, userID, prefs, limit)
	metrics.RecommendationsReturned.Observe(float64(len(result.Recommendations)))

	if err := s.cache.SetRecommendations(ctx, cacheKey, result, s.cacheTTL); err != nil {
		logger.Warn("Failed to cache recommendations", zap.Error(err))
	}

	return result
}

func (s *Service) recommend(ctx context.Context, userID string, prefs Preferences, limit int) *Result {
	candidates, err := s.candidates.GetActiveProperties(ctx, s.candidateCap)
	if err != nil {
		logger.Error("Failed to fetch candidate properties", zap.Error(err))
		metrics.FallbackTotal.WithLabelValues("recommend").Inc()
		return &Result{Recommendations: []Recommendation{}, Degraded: true}
	}

	filtered := ApplyFilters(candidates, prefs)

	if s.primary != nil {
		recs, err := s.primary.Recommend(ctx, userID, prefs, filtered, limit)
		if err == nil {
			return &Result{Recommendations: recs, Degraded: false}
		}
		logger.Warn("Primary recommender failed, using naive filtering",
			zap.Error(err),
			zap.String("user_id", userID),
		)
	}

	metrics.FallbackTotal.WithLabelValues("recommend").Inc()

	// The naive recommender cannot fail.
	recs, _ := s.fallback.Recommend(ctx, userID, prefs, filtered, limit)
	return &Result{Recommendations: recs, Degraded: true}
}

// persistPreferences upserts the stated preferences for future
// personalization. Failure is logged and never blocks the response.
func (s *Service) persistPreferences(ctx context.Context, userID string, prefs Preferences) {
	record := &models.UserPreferences{
		UserID:           userID,
		City:             prefs.City,
		PropertyType:     prefs.PropertyType,
		PriceMin:         prefs.PriceMin,
		PriceMax:         prefs.PriceMax,
		MinBedrooms:      prefs.MinBedrooms,
		FurnishingStatus: prefs.FurnishingStatus,
		UpdatedAt:        time.Now(),
	}

	if err := s.prefsStore.UpsertUserPreferences(ctx, record); err != nil {
		logger.Warn("Failed to persist user preferences",
			zap.Error(err),
			zap.String("user_id", userID),
		)
	}
}

func (s *Service) Loaded() bool {
	return s.primary != nil
}
