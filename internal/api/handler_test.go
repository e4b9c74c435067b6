package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/barbell-plates/internal/calculator"
	"github.com/eugenenazirov/barbell-plates/internal/storage"
	"github.com/eugenenazirov/barbell-plates/internal/units"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupTestRouter(t *testing.T, opts ...HandlerOption) (http.Handler, *controllableClock) {
	t.Helper()

	store := storage.NewMemoryStorage()
	calc := calculator.New()
	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))

	handler := NewHandler(calc, store, append([]HandlerOption{WithClock(clock.Now)}, opts...)...)
	logger := zaptest.NewLogger(t)
	router := NewRouter(handler, logger, WithLogging(false))

	return router, clock
}

type calculateBody struct {
	OneRepMax  float64 `json:"oneRepMax"`
	Unit       string  `json:"unit"`
	Percentage float64 `json:"percentage"`
	Bar        string  `json:"bar"`
	Target     struct {
		Kg float64 `json:"kg"`
		Lb float64 `json:"lb"`
	} `json:"target"`
	BarWeight struct {
		Kg float64 `json:"kg"`
		Lb float64 `json:"lb"`
	} `json:"barWeight"`
	Plates []struct {
		Unit   string    `json:"unit"`
		Plates []float64 `json:"plates"`
	} `json:"plates"`
	PlatesPerSide int `json:"platesPerSide"`
	Achieved      struct {
		Kg float64 `json:"kg"`
		Lb float64 `json:"lb"`
	} `json:"achieved"`
	Delta struct {
		Kg float64 `json:"kg"`
	} `json:"delta"`
}

func postCalculate(t *testing.T, router http.Handler, payload any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/calculate", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeCalculate(t *testing.T, rec *httptest.ResponseRecorder) calculateBody {
	t.Helper()

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body calculateBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	if got := requestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, clock := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestGetBarsListsCatalog(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/bars", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body barsResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(body.Bars))
	}
	if body.Bars[0].Type != units.BarStandard || body.Bars[0].Weight != 45 || body.Bars[0].WeightKg != 20.41 {
		t.Fatalf("unexpected standard bar entry: %+v", body.Bars[0])
	}
	if body.Bars[1].Type != units.BarWomens || body.Bars[1].Weight != 35 || body.Bars[1].WeightKg != 15.88 {
		t.Fatalf("unexpected womens bar entry: %+v", body.Bars[1])
	}
}

func TestGetPlatesReturnsDefaults(t *testing.T) {
	router, clock := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/plates", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body platesResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := calculator.DefaultInventories()
	if body.Coarse.Unit != want.Coarse.Unit || !slices.Equal(body.Coarse.Plates, want.Coarse.Plates) {
		t.Fatalf("expected coarse %+v, got %+v", want.Coarse, body.Coarse)
	}
	if body.Fine.Unit != want.Fine.Unit || !slices.Equal(body.Fine.Plates, want.Fine.Plates) {
		t.Fatalf("expected fine %+v, got %+v", want.Fine, body.Fine)
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestPutPlatesUpdatesStorage(t *testing.T) {
	router, clock := setupTestRouter(t)

	clock.Advance(time.Hour)

	payload := map[string]any{
		"coarse": map[string]any{"unit": "KG", "plates": []float64{10, 25, 20, 25}},
		"fine":   map[string]any{"unit": "lbs", "plates": []float64{2.5, 5}},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/plates", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body platesResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Message == "" {
		t.Fatalf("expected success message, got empty string")
	}
	if body.Coarse.Unit != units.Kilogram || !slices.Equal(body.Coarse.Plates, []float64{25, 20, 10}) {
		t.Fatalf("expected normalised coarse plates, got %+v", body.Coarse)
	}
	if body.Fine.Unit != units.Pound || !slices.Equal(body.Fine.Plates, []float64{5, 2.5}) {
		t.Fatalf("expected normalised fine plates, got %+v", body.Fine)
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestPutPlatesValidatesInput(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "malformed json", payload: `{"coarse":`},
		{name: "missing fine", payload: `{"coarse":{"unit":"lb","plates":[45]}}`},
		{name: "empty plates", payload: `{"coarse":{"unit":"lb","plates":[]},"fine":{"unit":"kg","plates":[1]}}`},
		{name: "negative plate", payload: `{"coarse":{"unit":"lb","plates":[45,-5]},"fine":{"unit":"kg","plates":[1]}}`},
		{name: "unknown unit", payload: `{"coarse":{"unit":"stone","plates":[1]},"fine":{"unit":"kg","plates":[1]}}`},
		{name: "shared unit", payload: `{"coarse":{"unit":"kg","plates":[20]},"fine":{"unit":"kg","plates":[1]}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := setupTestRouter(t)

			req := httptest.NewRequest(http.MethodPut, "/api/plates", bytes.NewReader([]byte(tc.payload)))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestCalculateEndpointSuccess(t *testing.T) {
	router, _ := setupTestRouter(t)

	body := decodeCalculate(t, postCalculate(t, router, map[string]any{
		"oneRepMax":  100,
		"unit":       "kg",
		"percentage": 75,
		"bar":        "standard",
	}))

	if body.Target.Kg != 75 {
		t.Fatalf("expected target 75 kg, got %v", body.Target.Kg)
	}
	if body.BarWeight.Kg != 20.41 {
		t.Fatalf("expected bar weight 20.41 kg, got %v", body.BarWeight.Kg)
	}
	if len(body.Plates) != 2 {
		t.Fatalf("expected coarse and fine selections, got %d", len(body.Plates))
	}
	if body.Plates[0].Unit != "lb" || !slices.Equal(body.Plates[0].Plates, []float64{45, 15}) {
		t.Fatalf("expected lb plates [45 15], got %+v", body.Plates[0])
	}
	if body.Plates[1].Unit != "kg" || len(body.Plates[1].Plates) != 0 {
		t.Fatalf("expected no kg plates, got %+v", body.Plates[1])
	}
	if body.PlatesPerSide != 2 {
		t.Fatalf("expected 2 plates per side, got %d", body.PlatesPerSide)
	}
	if body.Achieved.Kg != 74.84 {
		t.Fatalf("expected achieved 74.84 kg, got %v", body.Achieved.Kg)
	}
	if body.Delta.Kg != -0.16 {
		t.Fatalf("expected delta -0.16 kg, got %v", body.Delta.Kg)
	}
}

func TestCalculateEndpointAppliesDefaults(t *testing.T) {
	router, _ := setupTestRouter(t)

	body := decodeCalculate(t, postCalculate(t, router, map[string]any{
		"oneRepMax": "100",
	}))

	if body.Unit != "kg" || body.Percentage != 75 || body.Bar != "standard" {
		t.Fatalf("expected defaults kg/75/standard, got %s/%v/%s", body.Unit, body.Percentage, body.Bar)
	}
	if body.Target.Kg != 75 {
		t.Fatalf("expected target 75 kg, got %v", body.Target.Kg)
	}
}

func TestCalculateEndpointPoundInput(t *testing.T) {
	router, _ := setupTestRouter(t)

	body := decodeCalculate(t, postCalculate(t, router, map[string]any{
		"oneRepMax":  225,
		"unit":       "lb",
		"percentage": 80,
	}))

	if body.Target.Kg != 81.65 {
		t.Fatalf("expected target 81.65 kg, got %v", body.Target.Kg)
	}
	if !slices.Equal(body.Plates[0].Plates, []float64{45, 15}) {
		t.Fatalf("expected lb plates [45 15], got %v", body.Plates[0].Plates)
	}
	if !slices.Equal(body.Plates[1].Plates, []float64{2.5, 0.5}) {
		t.Fatalf("expected kg plates [2.5 0.5], got %v", body.Plates[1].Plates)
	}
}

func TestCalculateEndpointWomensBar(t *testing.T) {
	router, _ := setupTestRouter(t)

	body := decodeCalculate(t, postCalculate(t, router, map[string]any{
		"oneRepMax":  60,
		"percentage": 100,
		"bar":        "womens",
	}))

	if body.BarWeight.Kg != 15.88 {
		t.Fatalf("expected bar weight 15.88 kg, got %v", body.BarWeight.Kg)
	}
	if !slices.Equal(body.Plates[0].Plates, []float64{45}) {
		t.Fatalf("expected lb plates [45], got %v", body.Plates[0].Plates)
	}
	if !slices.Equal(body.Plates[1].Plates, []float64{1.5}) {
		t.Fatalf("expected kg plates [1.5], got %v", body.Plates[1].Plates)
	}
}

func TestCalculateEndpointUnparseableInputLoadsEmptyBar(t *testing.T) {
	router, _ := setupTestRouter(t)

	for _, raw := range []string{"heavy", "1e400", "-1e400"} {
		body := decodeCalculate(t, postCalculate(t, router, map[string]any{
			"oneRepMax": raw,
		}))

		if body.OneRepMax != 0 || body.Target.Kg != 0 {
			t.Fatalf("%q: expected zero target, got %v", raw, body.Target.Kg)
		}
		if body.PlatesPerSide != 0 {
			t.Fatalf("%q: expected empty bar, got %d plates", raw, body.PlatesPerSide)
		}
		if body.Achieved.Kg != 20.41 {
			t.Fatalf("%q: expected achieved to equal the bar, got %v", raw, body.Achieved.Kg)
		}
	}
}

func TestCalculateEndpointRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name           string
		payload        any
		wantSuggestion bool
	}{
		{name: "unknown unit", payload: map[string]any{"oneRepMax": 100, "unit": "stone"}},
		{name: "unknown bar", payload: map[string]any{"oneRepMax": 100, "bar": "hombre"}, wantSuggestion: true},
		{name: "target out of range", payload: map[string]any{"oneRepMax": 5e9}},
		{name: "malformed json", payload: "not an object"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := setupTestRouter(t)

			rec := postCalculate(t, router, tc.payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}

			var body errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Error == "" {
				t.Fatalf("expected error message")
			}
			if tc.wantSuggestion && body.Suggestion == "" {
				t.Fatalf("expected suggestion to be populated")
			}
		})
	}
}

func TestCalculateEndpointUsesUpdatedPlates(t *testing.T) {
	router, clock := setupTestRouter(t)

	clock.Advance(time.Minute)
	updateData := []byte(`{"coarse":{"unit":"kg","plates":[25,20,15,10,5]},"fine":{"unit":"lb","plates":[5,2.5]}}`)
	updateReq := httptest.NewRequest(http.MethodPut, "/api/plates", bytes.NewReader(updateData))
	updateReq.Header.Set("Content-Type", "application/json")
	updateRec := httptest.NewRecorder()
	router.ServeHTTP(updateRec, updateReq)
	if updateRec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for plates update, got %d", updateRec.Code)
	}

	body := decodeCalculate(t, postCalculate(t, router, map[string]any{
		"oneRepMax":  120,
		"percentage": 100,
	}))

	if body.Plates[0].Unit != "kg" || body.Plates[1].Unit != "lb" {
		t.Fatalf("expected kg coarse and lb fine selections, got %+v", body.Plates)
	}
	if body.PlatesPerSide == 0 {
		t.Fatalf("expected plates to be loaded")
	}
	if body.Achieved.Kg > 120.02 {
		t.Fatalf("expected achieved weight within tolerance of target, got %v", body.Achieved.Kg)
	}
}

func TestWithBarsOverridesCatalog(t *testing.T) {
	bars := units.BarCatalog{
		"training": {Type: "training", Weight: 10, Unit: units.Kilogram},
	}
	router, _ := setupTestRouter(t, WithBars(bars))

	body := decodeCalculate(t, postCalculate(t, router, map[string]any{
		"oneRepMax":  10,
		"percentage": 100,
		"bar":        "training",
	}))
	if body.BarWeight.Kg != 10 || body.PlatesPerSide != 0 {
		t.Fatalf("expected empty 10 kg training bar, got %+v", body)
	}

	rec := postCalculate(t, router, map[string]any{"oneRepMax": 100})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected standard bar to be unknown with custom catalog, got %d", rec.Code)
	}
}

func TestWeightInputDecoding(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{raw: `{"oneRepMax": 102.5}`, want: 102.5},
		{raw: `{"oneRepMax": "102.5"}`, want: 102.5},
		{raw: `{"oneRepMax": " 80 "}`, want: 80},
		{raw: `{"oneRepMax": ""}`, want: 0},
		{raw: `{"oneRepMax": "abc"}`, want: 0},
		{raw: `{"oneRepMax": "1e400"}`, want: 0},
		{raw: `{"oneRepMax": null}`, want: 0},
		{raw: `{"oneRepMax": true}`, want: 0},
		{raw: `{}`, want: 0},
	}

	for _, tc := range tests {
		var req calculateRequest
		if err := json.Unmarshal([]byte(tc.raw), &req); err != nil {
			t.Fatalf("unexpected error for %s: %v", tc.raw, err)
		}
		if float64(req.OneRepMax) != tc.want {
			t.Fatalf("expected %v for %s, got %v", tc.want, tc.raw, req.OneRepMax)
		}
	}
}

func TestCorsPreflight(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/calculate", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected Access-Control-Allow-Origin header to be set")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "test-request-id")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-request-id" {
		t.Fatalf("expected X-Request-ID header to be echoed, got %s", got)
	}
}
