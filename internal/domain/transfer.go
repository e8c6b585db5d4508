package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyGBP Currency = "GBP"
	CurrencyNGN Currency = "NGN"
)

func (c Currency) IsValid() bool {
	return c == CurrencyGBP || c == CurrencyNGN
}

type TransferStatus string

const (
	TransferStatusPending    TransferStatus = "PENDING"
	TransferStatusProcessing TransferStatus = "PROCESSING"
	TransferStatusCompleted  TransferStatus = "COMPLETED"
	TransferStatusAbandoned  TransferStatus = "ABANDONED"
	TransferStatusRejected   TransferStatus = "REJECTED"
	TransferStatusFailed     TransferStatus = "FAILED"
	TransferStatusCanceled   TransferStatus = "CANCELED"
)

// AllTransferStatuses is the full status taxonomy in display order.
var AllTransferStatuses = []TransferStatus{
	TransferStatusPending,
	TransferStatusProcessing,
	TransferStatusCompleted,
	TransferStatusAbandoned,
	TransferStatusRejected,
	TransferStatusFailed,
	TransferStatusCanceled,
}

func (s TransferStatus) IsValid() bool {
	for _, v := range AllTransferStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is expected from s.
func (s TransferStatus) IsTerminal() bool {
	switch s {
	case TransferStatusCompleted, TransferStatusAbandoned, TransferStatusRejected,
		TransferStatusFailed, TransferStatusCanceled:
		return true
	}
	return false
}

// RateOrigin records whether a transfer's conversion rate came from the live
// benchmark snapshot or from a per-request override (a pre-agreed quote).
type RateOrigin string

const (
	RateOriginBenchmark RateOrigin = "benchmark"
	RateOriginOverride  RateOrigin = "override"
)

// Transfer is a requested movement of funds from a sender to a named external
// bank recipient. Immutable after creation except for status; ConversionRate
// is snapshotted at creation time and never recomputed.
type Transfer struct {
	ID                uuid.UUID
	TransferReference string
	UserID            uuid.UUID

	Amount          decimal.Decimal
	FromCurrency    Currency
	ToCurrency      Currency
	ConvertedAmount decimal.Decimal
	ConversionRate  decimal.Decimal
	RateOrigin      RateOrigin

	RecipientBankName          string
	RecipientAccountNumber     string
	RecipientFullName          string
	RecipientEmail             *string
	RecipientSortCode          *string
	Purpose                    *string
	IsRecipientBusinessAccount bool

	Status      TransferStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Sender carries the subset of user fields the transfer views and
// notifications need alongside a transfer.
type Sender struct {
	Username string
	FullName string
	Email    string
}

// TransferWithSender is a transfer joined with its sending user, as returned
// by list queries for admin views and notification building.
type TransferWithSender struct {
	Transfer
	Sender Sender
}
