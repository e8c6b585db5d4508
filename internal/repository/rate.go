package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shiftremit/backend/internal/domain"
)

// rate_snapshots holds at most one row, keyed by a fixed id. Replace swaps
// it and appends to rate_history atomically.
const rateSnapshotID = 1

type RateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

// Get returns the live snapshot, or domain.ErrRateUnavailable when no rates
// have been configured yet.
func (r *RateRepository) Get(ctx context.Context) (*domain.RateSnapshot, error) {
	var snap domain.RateSnapshot
	err := r.db.QueryRowContext(ctx,
		`SELECT benchmark_markup, base_ngn_rate, updated_at
		FROM rate_snapshots WHERE id = $1`, rateSnapshotID,
	).Scan(&snap.BenchmarkMarkup, &snap.BaseNGNRate, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrRateUnavailable)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &snap, nil
}

// Replace upserts the singleton snapshot and appends the history entry in a
// single transaction so readers never observe one without the other.
func (r *RateRepository) Replace(ctx context.Context, snap *domain.RateSnapshot, entry *domain.RateHistoryEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Replace: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rate_snapshots (id, benchmark_markup, base_ngn_rate, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			benchmark_markup = EXCLUDED.benchmark_markup,
			base_ngn_rate = EXCLUDED.base_ngn_rate,
			updated_at = EXCLUDED.updated_at`,
		rateSnapshotID, snap.BenchmarkMarkup, snap.BaseNGNRate, snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Replace: snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rate_history (id, benchmark_markup, base_ngn_rate, recorded_at)
		VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.BenchmarkMarkup, entry.BaseNGNRate, entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("Replace: history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Replace: commit: %w", err)
	}
	return nil
}

// History returns audit entries newest-first with the total count.
func (r *RateRepository) History(ctx context.Context, page domain.Page) ([]domain.RateHistoryEntry, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rate_history`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("History: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, benchmark_markup, base_ngn_rate, recorded_at
		FROM rate_history
		ORDER BY recorded_at DESC, id
		LIMIT $1 OFFSET $2`,
		page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("History: %w", err)
	}
	defer rows.Close()

	var entries []domain.RateHistoryEntry
	for rows.Next() {
		var e domain.RateHistoryEntry
		if err := rows.Scan(&e.ID, &e.BenchmarkMarkup, &e.BaseNGNRate, &e.RecordedAt); err != nil {
			return nil, 0, fmt.Errorf("History: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("History: rows: %w", err)
	}
	return entries, total, nil
}
