package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/rentradar/backend/internal/storage/models"
	"github.com/rentradar/backend/pkg/config"
)

type stubCandidates struct {
	properties []models.Property
	err        error
	lastLimit  int
}

func (s *stubCandidates) GetActiveProperties(ctx context.Context, limit int) ([]models.Property, error) {
	s.lastLimit = limit
	return s.properties, s.err
}

type stubPrefsStore struct {
	upserts []*models.UserPreferences
	err     error
}

func (s *stubPrefsStore) UpsertUserPreferences(ctx context.Context, prefs *models.UserPreferences) error {
	s.upserts = append(s.upserts, prefs)
	return s.err
}

type failingRecommender struct{}

func (failingRecommender) Recommend(context.Context, string, Preferences, []models.Property, int) ([]Recommendation, error) {
	return nil, errors.New("model unavailable")
}

func TestServiceHybridPath(t *testing.T) {
	candidates := &stubCandidates{properties: testCandidates()}
	prefsStore := &stubPrefsStore{}
	primary := NewHybridRecommender(&stubInteractions{count: 0}, 0.6, 0.9)
	svc := NewService(primary, candidates, prefsStore, nil, config.RecommendConfig{})

	prefs := Preferences{City: "London", PropertyType: "Flat"}
	result := svc.Recommend(context.Background(), "u1", prefs, 5)

	if result.Degraded {
		t.Error("hybrid path should not report degraded")
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	for _, rec := range result.Recommendations {
		if rec.Property.PropertyType != "Flat" {
			t.Errorf("hard filter leaked %q into results", rec.Property.PropertyType)
		}
	}
}

func TestServicePersistsPreferences(t *testing.T) {
	prefsStore := &stubPrefsStore{}
	svc := NewService(NewNaiveRecommender(), &stubCandidates{properties: testCandidates()}, prefsStore, nil, config.RecommendConfig{})

	prefs := Preferences{City: "London", PriceMin: 1000, PriceMax: 2000, MinBedrooms: 2}
	svc.Recommend(context.Background(), "u42", prefs, 5)

	if len(prefsStore.upserts) != 1 {
		t.Fatalf("upserts: got %d, want 1", len(prefsStore.upserts))
	}
	record := prefsStore.upserts[0]
	if record.UserID != "u42" || record.City != "London" || record.PriceMax != 2000 || record.MinBedrooms != 2 {
		t.Errorf("persisted record mismatch: %+v", record)
	}
}

func TestServicePreferenceWriteFailureIgnored(t *testing.T) {
	prefsStore := &stubPrefsStore{err: errors.New("disk full")}
	svc := NewService(NewNaiveRecommender(), &stubCandidates{properties: testCandidates()}, prefsStore, nil, config.RecommendConfig{})

	result := svc.Recommend(context.Background(), "u1", Preferences{}, 5)
	if len(result.Recommendations) == 0 {
		t.Error("failed preference write must not affect recommendations")
	}
}

func TestServiceCandidateFetchFailure(t *testing.T) {
	candidates := &stubCandidates{err: errors.New("db locked")}
	svc := NewService(NewNaiveRecommender(), candidates, &stubPrefsStore{}, nil, config.RecommendConfig{})

	result := svc.Recommend(context.Background(), "u1", Preferences{}, 5)
	if !result.Degraded {
		t.Error("candidate fetch failure should report degraded")
	}
	if result.Recommendations == nil {
		t.Error("recommendations should be an empty slice, not nil")
	}
	if len(result.Recommendations) != 0 {
		t.Errorf("got %d recommendations, want 0", len(result.Recommendations))
	}
}

func TestServicePrimaryFailureFallsBackToNaive(t *testing.T) {
	svc := NewService(failingRecommender{}, &stubCandidates{properties: testCandidates()}, &stubPrefsStore{}, nil, config.RecommendConfig{})

	result := svc.Recommend(context.Background(), "u1", Preferences{PropertyType: "Flat"}, 2)
	if !result.Degraded {
		t.Error("primary failure should report degraded")
	}
	if len(result.Recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(result.Recommendations))
	}
	for _, rec := range result.Recommendations {
		if rec.Score != 0.5 {
			t.Errorf("naive score: got %.2f, want 0.5", rec.Score)
		}
		if rec.Reason != "Matches your search criteria" {
			t.Errorf("naive reason: got %q", rec.Reason)
		}
	}
}

func TestServiceAppliesCandidateCapAndDefaultLimit(t *testing.T) {
	candidates := &stubCandidates{properties: testCandidates()}
	svc := NewService(NewNaiveRecommender(), candidates, &stubPrefsStore{}, nil, config.RecommendConfig{
		CandidateCap: 3,
	})

	result := svc.Recommend(context.Background(), "u1", Preferences{}, 0)
	if candidates.lastLimit != 3 {
		t.Errorf("candidate cap: got %d, want 3", candidates.lastLimit)
	}
	// Default limit (10) exceeds the candidate count, so all pass through.
	if len(result.Recommendations) != len(testCandidates()) {
		t.Errorf("got %d recommendations, want %d", len(result.Recommendations), len(testCandidates()))
	}
}
