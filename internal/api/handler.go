package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/eugenenazirov/barbell-plates/internal/calculator"
	"github.com/eugenenazirov/barbell-plates/internal/report"
	"github.com/eugenenazirov/barbell-plates/internal/storage"
	"github.com/eugenenazirov/barbell-plates/internal/units"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const (
	defaultPercentage = 75.0
	defaultUnit       = units.Kilogram
	defaultBar        = units.BarStandard
)

// Handler wires calculator and storage dependencies into HTTP handlers.
type Handler struct {
	calculator calculator.Calculator
	storage    storage.Storage
	bars       units.BarCatalog

	clock func() time.Time

	mu              sync.RWMutex
	platesUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithBars replaces the default bar catalog.
func WithBars(bars units.BarCatalog) HandlerOption {
	return func(h *Handler) {
		h.bars = bars.Clone()
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(calc calculator.Calculator, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		calculator: calc,
		storage:    store,
		bars:       units.DefaultBars(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.platesUpdatedAt = h.clock()
	return h
}

// Setup returns the inventories currently in storage together with the bar catalog.
func (h *Handler) Setup() (calculator.Setup, error) {
	inv, err := h.storage.GetInventories()
	if err != nil {
		return calculator.Setup{}, err
	}
	return calculator.Setup{Inventories: inv, Bars: h.bars}, nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetBars(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, barsResponse{Bars: newBarList(h.bars)})
}

func (h *Handler) handleGetPlates(w http.ResponseWriter, r *http.Request) {
	_ = r
	inv, err := h.storage.GetInventories()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newPlatesResponse(inv, h.currentPlatesUpdatedAt(), ""))
}

func (h *Handler) handlePutPlates(w http.ResponseWriter, r *http.Request) {
	var req platesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.Coarse == nil || req.Fine == nil {
		writeError(w, http.StatusBadRequest, "Invalid plates", "both coarse and fine inventories are required")
		return
	}

	inv, err := req.inventories()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plates", err.Error())
		return
	}

	if err := h.storage.SetInventories(inv); err != nil {
		if errors.Is(err, storage.ErrInvalidInventories) {
			writeError(w, http.StatusBadRequest, "Invalid plates", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markPlatesUpdated()

	stored, err := h.storage.GetInventories()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newPlatesResponse(stored, h.currentPlatesUpdatedAt(), "Plates updated successfully"))
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	calcReq, err := req.toRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	setup, err := h.Setup()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	start := time.Now()
	plan, calcErr := h.calculator.Plan(calcReq, setup)
	elapsed := time.Since(start)

	if calcErr != nil {
		switch {
		case errors.Is(calcErr, units.ErrUnknownBarType):
			suggestion := fmt.Sprintf("Use one of: %s", strings.Join(barNames(h.bars), ", "))
			writeError(w, http.StatusBadRequest, "Unknown bar type", calcErr.Error(), suggestion)
		case errors.Is(calcErr, calculator.ErrTargetOutOfRange):
			writeError(w, http.StatusBadRequest, "Invalid request", calcErr.Error())
		case errors.Is(calcErr, calculator.ErrInvalidInventory):
			writeError(w, http.StatusInternalServerError, "Internal error", calcErr.Error())
		default:
			writeInternalError(w, calcErr)
		}
		return
	}

	writeJSON(w, http.StatusOK, calculateResponse{
		Report:            report.New(plan),
		CalculationTimeMs: elapsed.Milliseconds(),
	})
}

func (h *Handler) currentPlatesUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.platesUpdatedAt
}

func (h *Handler) markPlatesUpdated() {
	h.mu.Lock()
	h.platesUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// weightInput accepts a JSON number or string. Missing or unparseable input decodes to zero.
type weightInput float64

func (w *weightInput) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	*w = weightInput(calculator.ParseWeight(raw))
	return nil
}

type calculateRequest struct {
	OneRepMax  weightInput `json:"oneRepMax"`
	Unit       string      `json:"unit"`
	Percentage *float64    `json:"percentage"`
	Bar        string      `json:"bar"`
}

func (r calculateRequest) toRequest() (calculator.Request, error) {
	req := calculator.Request{
		OneRepMax:  float64(r.OneRepMax),
		Unit:       defaultUnit,
		Percentage: defaultPercentage,
		Bar:        defaultBar,
	}
	if strings.TrimSpace(r.Unit) != "" {
		unit, err := units.ParseUnit(r.Unit)
		if err != nil {
			return calculator.Request{}, err
		}
		req.Unit = unit
	}
	if r.Percentage != nil {
		req.Percentage = *r.Percentage
	}
	if bar := strings.TrimSpace(r.Bar); bar != "" {
		req.Bar = units.BarType(bar)
	}
	return req, nil
}

type inventoryPayload struct {
	Unit   string    `json:"unit"`
	Plates []float64 `json:"plates"`
}

type platesRequest struct {
	Coarse *inventoryPayload `json:"coarse"`
	Fine   *inventoryPayload `json:"fine"`
}

func (r platesRequest) inventories() (calculator.Inventories, error) {
	coarseUnit, err := units.ParseUnit(r.Coarse.Unit)
	if err != nil {
		return calculator.Inventories{}, fmt.Errorf("coarse: %w", err)
	}
	fineUnit, err := units.ParseUnit(r.Fine.Unit)
	if err != nil {
		return calculator.Inventories{}, fmt.Errorf("fine: %w", err)
	}
	return calculator.Inventories{
		Coarse: calculator.Inventory{Unit: coarseUnit, Plates: r.Coarse.Plates},
		Fine:   calculator.Inventory{Unit: fineUnit, Plates: r.Fine.Plates},
	}, nil
}

type calculateResponse struct {
	report.Report
	CalculationTimeMs int64 `json:"calculationTimeMs"`
}

type platesResponse struct {
	Coarse    calculator.Inventory `json:"coarse"`
	Fine      calculator.Inventory `json:"fine"`
	UpdatedAt time.Time            `json:"updatedAt"`
	Message   string               `json:"message,omitempty"`
}

func newPlatesResponse(inv calculator.Inventories, updatedAt time.Time, message string) platesResponse {
	return platesResponse{
		Coarse:    inv.Coarse,
		Fine:      inv.Fine,
		UpdatedAt: updatedAt,
		Message:   message,
	}
}

type barResponse struct {
	Type     units.BarType `json:"type"`
	Weight   float64       `json:"weight"`
	Unit     units.Unit    `json:"unit"`
	WeightKg float64       `json:"weightKg"`
}

type barsResponse struct {
	Bars []barResponse `json:"bars"`
}

func newBarList(bars units.BarCatalog) []barResponse {
	sorted := bars.Sorted()
	out := make([]barResponse, 0, len(sorted))
	for _, spec := range sorted {
		out = append(out, barResponse{
			Type:     spec.Type,
			Weight:   spec.Weight,
			Unit:     spec.Unit,
			WeightKg: report.Round(spec.ReferenceWeight()),
		})
	}
	return out
}

func barNames(bars units.BarCatalog) []string {
	sorted := bars.Sorted()
	names := make([]string, 0, len(sorted))
	for _, spec := range sorted {
		names = append(names, string(spec.Type))
	}
	return names
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
