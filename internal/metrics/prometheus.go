package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentradar_ml_request_duration_seconds",
			Help:    "Scoring request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"engine"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentradar_ml_request_total",
			Help: "Total scoring requests processed",
		},
		[]string{"engine", "status"},
	)

	FallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentradar_ml_fallback_total",
			Help: "Total requests served by a fallback path",
		},
		[]string{"engine"},
	)

	FraudScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rentradar_ml_fraud_score",
			Help:    "Distribution of composite fraud scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	FraudReportsPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentradar_ml_fraud_reports_persisted_total",
			Help: "Fraud report rows written, by outcome",
		},
		[]string{"outcome"},
	)

	RecommendationsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rentradar_ml_recommendations_returned",
			Help:    "Number of recommendations returned per request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentradar_ml_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentradar_ml_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	MarketSegments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rentradar_ml_market_segments",
			Help: "Number of (city, property type) segments in the market snapshot",
		},
	)

	MarketDatasetRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rentradar_ml_market_dataset_rows",
			Help: "Historical listings backing the market snapshot",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(RequestTotal)
	prometheus.MustRegister(FallbackTotal)
	prometheus.MustRegister(FraudScores)
	prometheus.MustRegister(FraudReportsPersisted)
	prometheus.MustRegister(RecommendationsReturned)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(MarketSegments)
	prometheus.MustRegister(MarketDatasetRows)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
