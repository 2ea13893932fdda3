package market

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rentradar/backend/internal/storage/models"
	"github.com/rentradar/backend/pkg/config"
	"github.com/rentradar/backend/pkg/logger"
)

// Basis markers describe which aggregation level satisfied a lookup, so
// callers can tell an exact segment match from a degraded default band.
const (
	BasisExact    = "exact"
	BasisCity     = "city"
	BasisNational = "national"
	BasisDefault  = "default"
)

type Statistics struct {
	AveragePrice float64 `json:"average_price"`
	MedianPrice  float64 `json:"median_price"`
	SampleCount  int     `json:"sample_count"`
	Basis        string  `json:"basis"`
}

type segment struct {
	average float64
	median  float64
	count   int
}

type snapshot struct {
	bySegment map[string]segment
	byCity    map[string]segment
	national  segment
	rows      int
}

type datasetSource interface {
	LoadHistoricalListings(ctx context.Context) ([]models.HistoricalListing, error)
}

// Provider aggregates the historical dataset once and answers lookups from
// an immutable snapshot. Get never fails: lookups degrade through citywide
// and nationwide aggregates down to a fixed default band.
type Provider struct {
	source   datasetSource
	defaults Statistics

	mu   sync.RWMutex
	snap *snapshot
}

func NewProvider(source datasetSource, cfg config.MarketConfig) *Provider {
	return &Provider{
		source: source,
		defaults: Statistics{
			AveragePrice: cfg.DefaultAverage,
			MedianPrice:  cfg.DefaultMedian,
			SampleCount:  0,
			Basis:        BasisDefault,
		},
		snap: &snapshot{
			bySegment: make(map[string]segment),
			byCity:    make(map[string]segment),
		},
	}
}

// Refresh loads the full dataset and swaps in a freshly built snapshot.
// This is the only expensive operation; it runs once at startup and on
// explicit invalidation, never per request.
func (p *Provider) Refresh(ctx context.Context) error {
	rows, err := p.source.LoadHistoricalListings(ctx)
	if err != nil {
		return err
	}

	snap := buildSnapshot(rows)

	p.mu.Lock()
	p.snap = snap
	p.mu.Unlock()

	logger.Info("Market statistics rebuilt",
		zap.Int("rows", snap.rows),
		zap.Int("segments", len(snap.bySegment)),
		zap.Int("cities", len(snap.byCity)),
	)

	return nil
}

func (p *Provider) Get(city, propertyType string) Statistics {
	p.mu.RLock()
	snap := p.snap
	p.mu.RUnlock()

	if seg, ok := snap.bySegment[segmentKey(city, propertyType)]; ok {
		return Statistics{
			AveragePrice: seg.average,
			MedianPrice:  seg.median,
			SampleCount:  seg.count,
			Basis:        BasisExact,
		}
	}

	if seg, ok := snap.byCity[normalize(city)]; ok {
		return Statistics{
			AveragePrice: seg.average,
			MedianPrice:  seg.median,
			SampleCount:  seg.count,
			Basis:        BasisCity,
		}
	}

	if snap.national.count > 0 {
		return Statistics{
			AveragePrice: snap.national.average,
			MedianPrice:  snap.national.median,
			SampleCount:  snap.national.count,
			Basis:        BasisNational,
		}
	}

	return p.defaults
}

// SegmentCount reports how many (city, property type) segments the current
// snapshot holds, for the health and metrics surfaces.
func (p *Provider) SegmentCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.snap.bySegment)
}

func (p *Provider) RowCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap.rows
}

func buildSnapshot(rows []models.HistoricalListing) *snapshot {
	segmentPrices := make(map[string][]float64)
	cityPrices := make(map[string][]float64)
	var allPrices []float64

	for _, row := range rows {
		if row.PricePerMonth <= 0 {
			continue
		}

		key := segmentKey(row.City, row.PropertyType)
		segmentPrices[key] = append(segmentPrices[key], row.PricePerMonth)
		cityPrices[normalize(row.City)] = append(cityPrices[normalize(row.City)], row.PricePerMonth)
		allPrices = append(allPrices, row.PricePerMonth)
	}

	snap := &snapshot{
		bySegment: make(map[string]segment, len(segmentPrices)),
		byCity:    make(map[string]segment, len(cityPrices)),
		rows:      len(allPrices),
	}

	for key, prices := range segmentPrices {
		snap.bySegment[key] = summarize(prices)
	}
	for city, prices := range cityPrices {
		snap.byCity[city] = summarize(prices)
	}
	if len(allPrices) > 0 {
		snap.national = summarize(allPrices)
	}

	return snap
}

func summarize(prices []float64) segment {
	var total float64
	for _, p := range prices {
		total += p
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	return segment{
		average: total / float64(len(prices)),
		median:  median(sorted),
		count:   len(prices),
	}
}

// median expects a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func segmentKey(city, propertyType string) string {
	return normalize(city) + "|" + normalize(propertyType)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
