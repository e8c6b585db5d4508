package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shiftremit/backend/internal/domain"
)

// payout_accounts holds the single operator holding account, keyed like the
// rate snapshot by a fixed id.
const payoutAccountID = 1

type PayoutAccountRepository struct {
	db *sql.DB
}

func NewPayoutAccountRepository(db *sql.DB) *PayoutAccountRepository {
	return &PayoutAccountRepository{db: db}
}

// GetOrInit returns the holding account, inserting the given defaults first
// if no row exists yet. Concurrent first calls are safe: ON CONFLICT DO
// NOTHING makes the insert a no-op for the loser, and both read the same row.
func (r *PayoutAccountRepository) GetOrInit(ctx context.Context, defaults *domain.PayoutAccount) (*domain.PayoutAccount, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payout_accounts (id, account_name, account_number, bank_name, sort_code, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		payoutAccountID, defaults.AccountName, defaults.AccountNumber,
		defaults.BankName, defaults.SortCode, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("GetOrInit: %w", err)
	}

	var a domain.PayoutAccount
	err = r.db.QueryRowContext(ctx,
		`SELECT account_name, account_number, bank_name, sort_code, updated_at
		FROM payout_accounts WHERE id = $1`, payoutAccountID,
	).Scan(&a.AccountName, &a.AccountNumber, &a.BankName, &a.SortCode, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("GetOrInit: %w", err)
	}
	return &a, nil
}

// Update replaces the holding account details.
func (r *PayoutAccountRepository) Update(ctx context.Context, a *domain.PayoutAccount) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payout_accounts
		SET account_name = $1, account_number = $2, bank_name = $3, sort_code = $4, updated_at = now()
		WHERE id = $5`,
		a.AccountName, a.AccountNumber, a.BankName, a.SortCode, payoutAccountID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrNotFound)
	}
	return nil
}
