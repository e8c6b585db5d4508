package domain

import "time"

// PayoutAccount holds the display details of the operator's GBP holding
// account. Customers pay into this account using their transfer reference;
// the ledger returns it alongside every created transfer. A single default
// row exists, lazily initialised and replaceable by an admin.
type PayoutAccount struct {
	AccountName   string
	AccountNumber string
	BankName      string
	SortCode      *string
	UpdatedAt     time.Time
}
