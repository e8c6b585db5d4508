package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shiftremit/backend/internal/domain"
	"github.com/shiftremit/backend/internal/rate"
)

type rateService interface {
	Current(ctx context.Context) (*domain.RateSnapshot, error)
	SetRates(ctx context.Context, input rate.SetRatesInput) (*domain.RateSnapshot, error)
	History(ctx context.Context, page domain.Page) ([]domain.RateHistoryEntry, int64, error)
	RefreshBenchmark(ctx context.Context) (*domain.RateSnapshot, error)
}

type RateHandler struct {
	rates rateService
}

func NewRateHandler(rates rateService) *RateHandler {
	return &RateHandler{rates: rates}
}

type rateSnapshotDTO struct {
	BenchmarkMarkup decimal.Decimal `json:"benchmarkMarkup"`
	BaseNGNRate     decimal.Decimal `json:"baseNgnRate"`
	EffectiveRate   decimal.Decimal `json:"effectiveRate"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func newRateSnapshotDTO(s *domain.RateSnapshot) rateSnapshotDTO {
	return rateSnapshotDTO{
		BenchmarkMarkup: s.BenchmarkMarkup,
		BaseNGNRate:     s.BaseNGNRate,
		EffectiveRate:   s.EffectiveGBPToNGN(),
		UpdatedAt:       s.UpdatedAt,
	}
}

// Current returns the live operating rate visible to authenticated users.
func (h *RateHandler) Current(w http.ResponseWriter, r *http.Request) {
	snap, err := h.rates.Current(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, newRateSnapshotDTO(snap))
}

type setRatesRequest struct {
	BenchmarkMarkup *decimal.Decimal `json:"benchmarkMarkup"`
	BaseNGNRate     *decimal.Decimal `json:"baseNgnRate"`
}

func (r setRatesRequest) Validate() []FieldError {
	var errs []FieldError
	if r.BenchmarkMarkup == nil && r.BaseNGNRate == nil {
		errs = append(errs, FieldError{Field: "benchmarkMarkup", Message: "at least one of benchmarkMarkup or baseNgnRate is required"})
	}
	if r.BenchmarkMarkup != nil && r.BenchmarkMarkup.IsNegative() {
		errs = append(errs, FieldError{Field: "benchmarkMarkup", Message: "must not be negative"})
	}
	if r.BaseNGNRate != nil && r.BaseNGNRate.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "baseNgnRate", Message: "must be greater than 0"})
	}
	return errs
}

// Set replaces the operating rates. Partial updates keep the omitted field's
// current value.
func (h *RateHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req setRatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	snap, err := h.rates.SetRates(r.Context(), rate.SetRatesInput{
		BenchmarkMarkup: req.BenchmarkMarkup,
		BaseNGNRate:     req.BaseNGNRate,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, newRateSnapshotDTO(snap))
}

type rateHistoryEntryDTO struct {
	ID              uuid.UUID       `json:"id"`
	BenchmarkMarkup decimal.Decimal `json:"benchmarkMarkup"`
	BaseNGNRate     decimal.Decimal `json:"baseNgnRate"`
	RecordedAt      time.Time       `json:"recordedAt"`
}

type rateHistoryResponse struct {
	Items      []rateHistoryEntryDTO `json:"items"`
	Pagination Pagination            `json:"pagination"`
}

func (h *RateHandler) History(w http.ResponseWriter, r *http.Request) {
	page, appErr := parsePage(r.URL.Query())
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	entries, total, err := h.rates.History(r.Context(), page)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	items := make([]rateHistoryEntryDTO, 0, len(entries))
	for _, e := range entries {
		items = append(items, rateHistoryEntryDTO{
			ID:              e.ID,
			BenchmarkMarkup: e.BenchmarkMarkup,
			BaseNGNRate:     e.BaseNGNRate,
			RecordedAt:      e.RecordedAt,
		})
	}

	RespondSuccess(w, http.StatusOK, rateHistoryResponse{
		Items:      items,
		Pagination: NewPagination(page, total),
	})
}

// Refresh pulls the upstream benchmark and applies it as the new base rate.
func (h *RateHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.rates.RefreshBenchmark(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, newRateSnapshotDTO(snap))
}
