package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shiftremit/backend/internal/domain"
)

const transferColumns = `id, transfer_reference, user_id,
	amount, from_currency, to_currency, converted_amount, conversion_rate, rate_origin,
	recipient_bank_name, recipient_account_number, recipient_full_name,
	recipient_email, recipient_sort_code, purpose, is_recipient_business_account,
	status, created_at, updated_at, completed_at`

const transferReferenceConstraint = "transfers_transfer_reference_key"

type TransferRepository struct {
	db *sql.DB
}

func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create inserts a new transfer. A unique violation on the transfer reference
// is reported as domain.ErrReferenceTaken so the caller can regenerate; the
// database constraint is the authority on uniqueness, not the pre-check.
func (r *TransferRepository) Create(ctx context.Context, t *domain.Transfer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transfers (
			id, transfer_reference, user_id,
			amount, from_currency, to_currency, converted_amount, conversion_rate, rate_origin,
			recipient_bank_name, recipient_account_number, recipient_full_name,
			recipient_email, recipient_sort_code, purpose, is_recipient_business_account,
			status, created_at, updated_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)`,
		t.ID, t.TransferReference, t.UserID,
		t.Amount, t.FromCurrency, t.ToCurrency, t.ConvertedAmount, t.ConversionRate, t.RateOrigin,
		t.RecipientBankName, t.RecipientAccountNumber, t.RecipientFullName,
		t.RecipientEmail, t.RecipientSortCode, t.Purpose, t.IsRecipientBusinessAccount,
		t.Status, t.CreatedAt, t.UpdatedAt, t.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err, transferReferenceConstraint) {
			return fmt.Errorf("Create: %w", domain.ErrReferenceTaken)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id,
	)
	t, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// GetByIDWithSender loads a transfer joined with its sending user. Used when
// building completion notifications.
func (r *TransferRepository) GetByIDWithSender(ctx context.Context, id uuid.UUID) (*domain.TransferWithSender, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+prefixedTransferColumns+`, u.username, u.full_name, u.email
		FROM transfers t
		JOIN users u ON u.id = t.user_id
		WHERE t.id = $1`, id,
	)
	ts, err := scanTransferWithSender(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByIDWithSender: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByIDWithSender: %w", err)
	}
	return ts, nil
}

func (r *TransferRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM transfers WHERE transfer_reference = $1)`, reference,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ReferenceExists: %w", err)
	}
	return exists, nil
}

// UpdateStatusFrom transitions a transfer's status with a compare-and-set on
// the previously observed status. It returns false without error when the row
// no longer holds the expected status, in which case the caller re-reads and
// decides whether to retry.
func (r *TransferRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to domain.TransferStatus, completedAt *time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transfers
		SET status = $1, completed_at = COALESCE($2, completed_at), updated_at = now()
		WHERE id = $3 AND status = $4`,
		to, completedAt, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("UpdateStatusFrom: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("UpdateStatusFrom: rows affected: %w", err)
	}
	return rows == 1, nil
}

// List returns one page of transfers matching the filter, joined with sender
// details, plus the total match count for pagination.
func (r *TransferRepository) List(ctx context.Context, filter domain.TransferFilter, page domain.Page) ([]domain.TransferWithSender, int64, error) {
	where, args := buildTransferWhere(filter)

	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfers t JOIN users u ON u.id = t.user_id`+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	query := `SELECT ` + prefixedTransferColumns + `, u.username, u.full_name, u.email
		FROM transfers t
		JOIN users u ON u.id = t.user_id` +
		where + orderClause(filter) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var out []domain.TransferWithSender
	for rows.Next() {
		ts, err := scanTransferWithSender(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		out = append(out, *ts)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return out, total, nil
}

// Aggregate computes the dashboard KPI counts and currency totals over the
// entire filtered set, independent of pagination.
func (r *TransferRepository) Aggregate(ctx context.Context, filter domain.TransferFilter) (*domain.DashboardView, error) {
	where, args := buildTransferWhere(filter)

	rows, err := r.db.QueryContext(ctx,
		`SELECT t.status, COUNT(*),
			COALESCE(SUM(t.amount) FILTER (WHERE t.from_currency = 'GBP'), 0),
			COALESCE(SUM(t.amount) FILTER (WHERE t.from_currency = 'NGN'), 0)
		FROM transfers t
		JOIN users u ON u.id = t.user_id`+where+`
		GROUP BY t.status`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("Aggregate: %w", err)
	}
	defer rows.Close()

	var view domain.DashboardView
	view.Totals.TotalAmountGBP = decimal.Zero
	view.Totals.TotalAmountNGN = decimal.Zero
	for rows.Next() {
		var status domain.TransferStatus
		var count int64
		var gbp, ngn decimal.Decimal
		if err := rows.Scan(&status, &count, &gbp, &ngn); err != nil {
			return nil, fmt.Errorf("Aggregate: scan: %w", err)
		}

		view.KPIs.TotalTransactions += count
		switch status {
		case domain.TransferStatusPending:
			view.KPIs.TotalPending = count
		case domain.TransferStatusProcessing:
			view.KPIs.TotalProcessing = count
		case domain.TransferStatusCompleted:
			view.KPIs.TotalCompleted = count
		case domain.TransferStatusAbandoned:
			view.KPIs.TotalAbandoned = count
		case domain.TransferStatusRejected:
			view.KPIs.TotalRejected = count
		case domain.TransferStatusFailed:
			view.KPIs.TotalFailed = count
		case domain.TransferStatusCanceled:
			view.KPIs.TotalCanceled = count
		}
		view.Totals.TotalAmountGBP = view.Totals.TotalAmountGBP.Add(gbp)
		view.Totals.TotalAmountNGN = view.Totals.TotalAmountNGN.Add(ngn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Aggregate: rows: %w", err)
	}
	return &view, nil
}

// Overview computes the unfiltered money-flow totals for the admin landing
// page. Sent totals sum source amounts of every non-canceled transfer;
// received totals sum converted amounts once funds are moving (COMPLETED or
// PROCESSING). Pending totals cover transfers not yet picked up.
func (r *TransferRepository) Overview(ctx context.Context) (*domain.OverviewTotals, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(amount) FILTER (WHERE status <> 'CANCELED' AND from_currency = 'GBP'), 0),
			COALESCE(SUM(converted_amount) FILTER (WHERE status IN ('COMPLETED', 'PROCESSING') AND from_currency = 'GBP'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status <> 'CANCELED' AND from_currency = 'NGN'), 0),
			COALESCE(SUM(converted_amount) FILTER (WHERE status IN ('COMPLETED', 'PROCESSING') AND from_currency = 'NGN'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'PENDING' AND from_currency = 'GBP'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'PENDING' AND from_currency = 'NGN'), 0)
		FROM transfers`,
	)

	var o domain.OverviewTotals
	err := row.Scan(
		&o.TotalSentGBP, &o.TotalReceivedNGN,
		&o.TotalSentNGN, &o.TotalReceivedGBP,
		&o.TotalPendingSentGBP, &o.TotalPendingSentNGN,
	)
	if err != nil {
		return nil, fmt.Errorf("Overview: %w", err)
	}
	return &o, nil
}

// DeleteAll removes every transfer and returns the number removed. Admin-only
// maintenance operation.
func (r *TransferRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transfers`)
	if err != nil {
		return 0, fmt.Errorf("DeleteAll: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteAll: rows affected: %w", err)
	}
	return rows, nil
}

// prefixedTransferColumns is transferColumns with each column qualified by the
// transfers alias, for joined queries.
var prefixedTransferColumns = func() string {
	cols := strings.Split(transferColumns, ",")
	for i, c := range cols {
		cols[i] = "t." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}()

// buildTransferWhere renders the filter into a WHERE clause with positional
// arguments. The returned clause includes a leading space, or is empty when
// no filter field is set. Name filters match case-insensitive substrings;
// everything else matches exactly.
func buildTransferWhere(f domain.TransferFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.UserID != nil {
		add("t.user_id = $%d", *f.UserID)
	}
	if f.StartDate != nil {
		add("t.created_at >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("t.created_at < $%d", *f.EndDate)
	}
	if f.Reference != nil {
		add("t.transfer_reference = $%d", *f.Reference)
	}
	if f.Currency != nil {
		add("t.from_currency = $%d", *f.Currency)
	}
	if f.Status != nil {
		add("t.status = $%d", *f.Status)
	}
	if f.RecipientName != nil {
		add("t.recipient_full_name ILIKE '%%' || $%d || '%%'", *f.RecipientName)
	}
	if f.SenderName != nil {
		add("u.full_name ILIKE '%%' || $%d || '%%'", *f.SenderName)
	}
	if f.MinAmount != nil {
		add("t.amount >= $%d", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		add("t.amount <= $%d", *f.MaxAmount)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(f domain.TransferFilter) string {
	col := "t.created_at"
	if f.SortBy == domain.SortByAmount {
		col = "t.amount"
	}
	dir := "DESC"
	if f.SortOrder == domain.SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, t.id", col, dir)
}

func scanTransfer(s scanner) (*domain.Transfer, error) {
	var t domain.Transfer
	err := s.Scan(
		&t.ID, &t.TransferReference, &t.UserID,
		&t.Amount, &t.FromCurrency, &t.ToCurrency, &t.ConvertedAmount, &t.ConversionRate, &t.RateOrigin,
		&t.RecipientBankName, &t.RecipientAccountNumber, &t.RecipientFullName,
		&t.RecipientEmail, &t.RecipientSortCode, &t.Purpose, &t.IsRecipientBusinessAccount,
		&t.Status, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTransferWithSender(s scanner) (*domain.TransferWithSender, error) {
	var ts domain.TransferWithSender
	err := s.Scan(
		&ts.ID, &ts.TransferReference, &ts.UserID,
		&ts.Amount, &ts.FromCurrency, &ts.ToCurrency, &ts.ConvertedAmount, &ts.ConversionRate, &ts.RateOrigin,
		&ts.RecipientBankName, &ts.RecipientAccountNumber, &ts.RecipientFullName,
		&ts.RecipientEmail, &ts.RecipientSortCode, &ts.Purpose, &ts.IsRecipientBusinessAccount,
		&ts.Status, &ts.CreatedAt, &ts.UpdatedAt, &ts.CompletedAt,
		&ts.Sender.Username, &ts.Sender.FullName, &ts.Sender.Email,
	)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
