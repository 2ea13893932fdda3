package fraud

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rentradar/backend/internal/metrics"
	"github.com/rentradar/backend/internal/storage/models"
	"github.com/rentradar/backend/pkg/config"
	"github.com/rentradar/backend/pkg/logger"
	"github.com/rentradar/backend/pkg/retry"
)

const reportTypeMLDetection = "ml_detection"

type reportStore interface {
	InsertFraudReport(ctx context.Context, report *models.FraudReport) error
}

// SideEffect records whether a detection attempted to persist a report and
// how that attempt ended. It is separate from the scoring result: a failed
// write never fails the scoring response.
type SideEffect struct {
	Attempted bool
	ReportID  string
	Err       error
}

type Service struct {
	scorer           *Scorer
	store            reportStore
	storageThreshold float64
	retryCfg         retry.Config
}

func NewService(scorer *Scorer, store reportStore, cfg config.FraudConfig) *Service {
	threshold := cfg.StorageThreshold
	if threshold <= 0 {
		threshold = 0.3
	}

	retryCfg := retry.DefaultConfig()
	if cfg.PersistMaxAttempts > 0 {
		retryCfg.MaxAttempts = cfg.PersistMaxAttempts
	}
	retryCfg.Logger = logger.GetLogger()

	return &Service{
		scorer:           scorer,
		store:            store,
		storageThreshold: threshold,
		retryCfg:         retryCfg,
	}
}

// Check scores the listing and, when the score exceeds the storage
// threshold, writes a fraud report best-effort. The scoring result is
// returned regardless of the write outcome.
func (s *Service) Check(ctx context.Context, in Input) (*Result, SideEffect) {
	result := s.scorer.Score(in)
	metrics.FraudScores.Observe(result.FraudScore)

	if result.FraudScore <= s.storageThreshold {
		return result, SideEffect{}
	}

	report := &models.FraudReport{
		ID:         uuid.New().String(),
		PropertyID: in.PropertyID,
		LandlordID: in.LandlordID,
		ReportType: reportTypeMLDetection,
		FraudScore: result.FraudScore,
		RiskLevel:  result.RiskLevel,
		Reasons:    result.Reasons,
		CreatedAt:  time.Now(),
	}

	effect := SideEffect{Attempted: true, ReportID: report.ID}
	effect.Err = retry.Do(ctx, s.retryCfg, func() error {
		return s.store.InsertFraudReport(ctx, report)
	})

	if effect.Err != nil {
		metrics.FraudReportsPersisted.WithLabelValues("error").Inc()
		logger.Error("Failed to persist fraud report",
			zap.Error(effect.Err),
			zap.String("property_id", in.PropertyID),
			zap.Float64("fraud_score", result.FraudScore),
		)
	} else {
		metrics.FraudReportsPersisted.WithLabelValues("ok").Inc()
	}

	return result, effect
}

func (s *Service) Scorer() *Scorer {
	return s.scorer
}
