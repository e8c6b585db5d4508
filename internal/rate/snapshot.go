package rate

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shiftremit/backend/internal/domain"
)

// newSnapshotChange builds the replacement snapshot and its paired audit
// entry with a shared timestamp, so history ordering matches snapshot
// update order.
func newSnapshotChange(markup, base decimal.Decimal) (*domain.RateSnapshot, *domain.RateHistoryEntry) {
	now := time.Now().UTC()
	snap := &domain.RateSnapshot{
		BenchmarkMarkup: markup,
		BaseNGNRate:     base,
		UpdatedAt:       now,
	}
	entry := &domain.RateHistoryEntry{
		ID:              uuid.New(),
		BenchmarkMarkup: markup,
		BaseNGNRate:     base,
		RecordedAt:      now,
	}
	return snap, entry
}
