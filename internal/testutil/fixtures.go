package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/shiftremit/backend/internal/domain"
)

func SeedUser(t *testing.T, db *sql.DB, email, username, fullName string, role domain.UserRole) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, username, full_name, password_hash, role, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Username, u.FullName, u.PasswordHash, u.Role, u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

// SeedRates installs a live rate snapshot with a matching history entry, the
// same shape SetRates writes.
func SeedRates(t *testing.T, db *sql.DB, markup, baseNGN string) {
	t.Helper()

	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO rate_snapshots (id, benchmark_markup, base_ngn_rate, updated_at)
		 VALUES (1, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET
			benchmark_markup = EXCLUDED.benchmark_markup,
			base_ngn_rate = EXCLUDED.base_ngn_rate,
			updated_at = EXCLUDED.updated_at`,
		mustDecimal(t, markup), mustDecimal(t, baseNGN), now,
	)
	if err != nil {
		t.Fatalf("seed rate snapshot: %v", err)
	}

	_, err = db.Exec(
		`INSERT INTO rate_history (id, benchmark_markup, base_ngn_rate, recorded_at)
		 VALUES ($1, $2, $3, $4)`,
		uuid.New(), mustDecimal(t, markup), mustDecimal(t, baseNGN), now,
	)
	if err != nil {
		t.Fatalf("seed rate history: %v", err)
	}
}

func SeedTransfer(t *testing.T, db *sql.DB, userID uuid.UUID, reference string, amount string, from, to domain.Currency, status domain.TransferStatus) *domain.Transfer {
	t.Helper()

	now := time.Now().UTC()
	amt := mustDecimal(t, amount)
	rate := decimal.NewFromInt(1965)
	tr := &domain.Transfer{
		ID:                uuid.New(),
		TransferReference: reference,
		UserID:            userID,

		Amount:          amt,
		FromCurrency:    from,
		ToCurrency:      to,
		ConvertedAmount: amt.Mul(rate).Round(2),
		ConversionRate:  rate,
		RateOrigin:      domain.RateOriginBenchmark,

		RecipientBankName:      "GTBank",
		RecipientAccountNumber: "0123456789",
		RecipientFullName:      "Ada Obi",

		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.Exec(
		`INSERT INTO transfers (
			id, transfer_reference, user_id,
			amount, from_currency, to_currency, converted_amount, conversion_rate, rate_origin,
			recipient_bank_name, recipient_account_number, recipient_full_name,
			is_recipient_business_account, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		tr.ID, tr.TransferReference, tr.UserID,
		tr.Amount, tr.FromCurrency, tr.ToCurrency, tr.ConvertedAmount, tr.ConversionRate, tr.RateOrigin,
		tr.RecipientBankName, tr.RecipientAccountNumber, tr.RecipientFullName,
		tr.IsRecipientBusinessAccount, tr.Status, tr.CreatedAt, tr.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed transfer %s: %v", reference, err)
	}
	return tr
}

func GetTransferStatus(t *testing.T, db *sql.DB, id uuid.UUID) domain.TransferStatus {
	t.Helper()

	var status domain.TransferStatus
	if err := db.QueryRow(`SELECT status FROM transfers WHERE id = $1`, id).Scan(&status); err != nil {
		t.Fatalf("get transfer status %s: %v", id, err)
	}
	return status
}

func CountRateHistory(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM rate_history`).Scan(&count); err != nil {
		t.Fatalf("count rate history: %v", err)
	}
	return count
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}
