package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/rentradar/backend/internal/pricing"
)

type stubPriceService struct {
	result       *pricing.Result
	loaded       bool
	calls        int
	lastFeatures pricing.Features
}

func (s *stubPriceService) Estimate(ctx context.Context, features pricing.Features) *pricing.Result {
	s.calls++
	s.lastFeatures = features
	return s.result
}

func (s *stubPriceService) Loaded() bool {
	return s.loaded
}

type stubMarketInfo struct {
	segments int
	rows     int
}

func (s *stubMarketInfo) SegmentCount() int { return s.segments }
func (s *stubMarketInfo) RowCount() int     { return s.rows }

func newPriceApp(svc *stubPriceService) *fiber.App {
	app := fiber.New()
	h := NewPriceHandler(svc, &stubMarketInfo{segments: 12, rows: 340})
	app.Post("/price-estimate", h.EstimatePrice)
	app.Get("/price-estimate/health", h.Health)
	return app
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func validEstimateRequest() map[string]interface{} {
	return map[string]interface{}{
		"postcode":          "SW1A 1AA",
		"city":              "London",
		"property_type":     "Flat",
		"bedrooms":          2,
		"bathrooms":         1,
		"furnishing_status": "Furnished",
	}
}

func TestEstimatePriceMissingFields(t *testing.T) {
	svc := &stubPriceService{}
	app := newPriceApp(svc)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/price-estimate", map[string]interface{}{
		"city": "London",
	}))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
	if svc.calls != 0 {
		t.Errorf("engine invoked %d times for invalid request", svc.calls)
	}

	body := decodeBody(t, resp)
	if body["error"] != "Missing required fields" {
		t.Errorf("error: got %q", body["error"])
	}
	missing, ok := body["missing_fields"].([]interface{})
	if !ok {
		t.Fatalf("missing_fields absent: %v", body)
	}
	want := map[string]bool{
		"postcode": true, "property_type": true, "bedrooms": true,
		"bathrooms": true, "furnishing_status": true,
	}
	if len(missing) != len(want) {
		t.Fatalf("missing_fields: got %v", missing)
	}
	for _, field := range missing {
		if !want[field.(string)] {
			t.Errorf("unexpected missing field %v", field)
		}
	}
}

func TestEstimatePriceZeroBedroomsIsValid(t *testing.T) {
	svc := &stubPriceService{result: &pricing.Result{
		Estimate: pricing.Estimate{EstimatedPrice: 900},
	}}
	app := newPriceApp(svc)

	req := validEstimateRequest()
	req["bedrooms"] = 0
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/price-estimate", req))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if svc.lastFeatures.Bedrooms != 0 {
		t.Errorf("Bedrooms: got %d, want 0", svc.lastFeatures.Bedrooms)
	}
}

func TestEstimatePriceNegativeBedroomsRejected(t *testing.T) {
	svc := &stubPriceService{}
	app := newPriceApp(svc)

	req := validEstimateRequest()
	req["bedrooms"] = -1
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/price-estimate", req))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
	if svc.calls != 0 {
		t.Errorf("engine invoked for negative bedrooms")
	}
}

func TestEstimatePriceSuccess(t *testing.T) {
	svc := &stubPriceService{
		loaded: true,
		result: &pricing.Result{
			Estimate: pricing.Estimate{
				EstimatedPrice: 1850,
				Confidence:     0.9,
				PriceRange:     pricing.PriceRange{Min: 1665, Max: 2035},
				MarketInsights: pricing.MarketInsights{AveragePrice: 1800, MedianPrice: 1750, ComparableProperties: 40},
			},
		},
	}
	app := newPriceApp(svc)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/price-estimate", validEstimateRequest()))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["estimated_price"].(float64) != 1850 {
		t.Errorf("estimated_price: got %v", body["estimated_price"])
	}
	if body["degraded"].(bool) {
		t.Error("degraded: got true, want false")
	}
	if _, present := body["message"]; present {
		t.Error("message should be absent for a model-backed estimate")
	}
	if svc.lastFeatures.Postcode != "SW1A 1AA" || svc.lastFeatures.PropertyType != "Flat" {
		t.Errorf("features mismatch: %+v", svc.lastFeatures)
	}
}

func TestEstimatePriceDegradedCarriesMessage(t *testing.T) {
	svc := &stubPriceService{
		result: &pricing.Result{
			Estimate: pricing.Estimate{EstimatedPrice: 1700},
			Degraded: true,
		},
	}
	app := newPriceApp(svc)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/price-estimate", validEstimateRequest()))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200 for degraded estimate", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if !body["degraded"].(bool) {
		t.Error("degraded: got false, want true")
	}
	if body["message"] == nil {
		t.Error("degraded response should carry an explanatory message")
	}
}

func TestPriceHealth(t *testing.T) {
	svc := &stubPriceService{loaded: true}
	app := newPriceApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/price-estimate/health", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "active" {
		t.Errorf("status: got %v, want active", body["status"])
	}
	if body["market_segments"].(float64) != 12 {
		t.Errorf("market_segments: got %v, want 12", body["market_segments"])
	}

	svc.loaded = false
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/price-estimate/health", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200 even without a model", resp.StatusCode)
	}
	body = decodeBody(t, resp)
	if body["status"] != "not_found" {
		t.Errorf("status: got %v, want not_found", body["status"])
	}
}
