package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateSnapshot is the single live operating rate. BenchmarkMarkup is the
// NGN-per-GBP margin the operator retains; BaseNGNRate is the upstream
// benchmark. The effective customer rate is BaseNGNRate - BenchmarkMarkup.
// Exactly one snapshot row exists at a time; SetRates replaces it.
type RateSnapshot struct {
	BenchmarkMarkup decimal.Decimal
	BaseNGNRate     decimal.Decimal
	UpdatedAt       time.Time
}

// EffectiveGBPToNGN returns the customer-facing GBP→NGN rate.
func (s RateSnapshot) EffectiveGBPToNGN() decimal.Decimal {
	return s.BaseNGNRate.Sub(s.BenchmarkMarkup)
}

// RateHistoryEntry is an immutable audit record appended every time the
// snapshot changes. Never updated or deleted.
type RateHistoryEntry struct {
	ID              uuid.UUID
	BenchmarkMarkup decimal.Decimal
	BaseNGNRate     decimal.Decimal
	RecordedAt      time.Time
}
