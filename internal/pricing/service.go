package pricing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rentradar/backend/internal/cache/redis"
	"github.com/rentradar/backend/internal/market"
	"github.com/rentradar/backend/internal/metrics"
	"github.com/rentradar/backend/pkg/circuitbreaker"
	"github.com/rentradar/backend/pkg/config"
	"github.com/rentradar/backend/pkg/logger"
	"github.com/rentradar/backend/pkg/utils"
)

type statsProvider interface {
	Get(city, propertyType string) market.Statistics
}

// Result wraps an estimate with the degraded-mode flag so callers can tell
// a model-backed answer from the rule fallback without conflating either
// with an error.
type Result struct {
	Estimate
	Degraded bool `json:"degraded"`
}

// Service selects between the primary model path and the rule fallback per
// request. Primary failures trip a circuit breaker so a broken artifact
// does not pay its cost on every call.
type Service struct {
	primary  Estimator
	fallback Estimator
	stats    statsProvider
	cache    *redis.Client
	breaker  *circuitbreaker.CircuitBreaker
	cacheTTL time.Duration
}

func NewService(primary Estimator, stats statsProvider, cache *redis.Client, cfg config.PricingConfig) *Service {
	breaker := circuitbreaker.New("price-model", circuitbreaker.Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          time.Duration(cfg.BreakerTimeoutSec) * time.Second,
		Logger:           logger.GetLogger(),
	})

	return &Service{
		primary:  primary,
		fallback: NewRuleEstimator(),
		stats:    stats,
		cache:    cache,
		breaker:  breaker,
		cacheTTL: time.Duration(cfg.CacheTTLSec) * time.Second,
	}
}

// Estimate assumes features already passed request validation. It never
// returns an error for valid input: any primary-path failure degrades to
// the deterministic fallback.
func (s *Service) Estimate(ctx context.Context, features Features) *Result {
	cacheKey := utils.HashJSON(features)

	var cached Result
	hit, err := s.cache.GetEstimate(ctx, cacheKey, &cached)
	if err != nil {
		logger.Warn("Estimate cache lookup failed", zap.Error(err))
	}
	if hit {
		metrics.CacheHits.WithLabelValues("estimate").Inc()
		return &cached
	}
	metrics.CacheMisses.WithLabelValues("estimate").Inc()

	stats := s.stats.Get(features.City, features.PropertyType)

	result := s.estimate(features, stats)

	if err := s.cache.SetEstimate(ctx, cacheKey, result, s.cacheTTL); err != nil {
		logger.Warn("Failed to cache estimate", zap.Error(err))
	}

	return result
}

func (s *Service) estimate(features Features, stats market.Statistics) *Result {
	if s.primary != nil && s.primary.Loaded() {
		var est *Estimate
		err := s.breaker.Execute(func() error {
			var estimateErr error
			est, estimateErr = s.primary.Estimate(features, stats)
			return estimateErr
		})
		if err == nil {
			return &Result{Estimate: *est, Degraded: false}
		}

		logger.Warn("Primary price estimation failed, using fallback",
			zap.Error(err),
			zap.String("property_type", features.PropertyType),
		)
	}

	metrics.FallbackTotal.WithLabelValues("price").Inc()

	// The rule estimator cannot fail for validated input.
	est, _ := s.fallback.Estimate(features, stats)
	return &Result{Estimate: *est, Degraded: true}
}

func (s *Service) Loaded() bool {
	return s.primary != nil && s.primary.Loaded()
}
