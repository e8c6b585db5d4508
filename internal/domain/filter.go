package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SortKey string

const (
	SortByCreatedAt SortKey = "createdAt"
	SortByAmount    SortKey = "amount"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TransferFilter is the shared predicate for transfer listing and dashboard
// aggregation. A nil field means "not filtered". StartDate is inclusive;
// EndDate is exclusive of the day after the given date (callers pass the
// day-after boundary directly).
type TransferFilter struct {
	UserID        *string
	StartDate     *time.Time
	EndDate       *time.Time
	Reference     *string
	Currency      *Currency
	Status        *TransferStatus
	RecipientName *string
	SenderName    *string
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
	SortBy        SortKey
	SortOrder     SortOrder
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is 1-indexed pagination. Validate rejects out-of-range values rather
// than silently clamping, mirroring the API's 400 on bad pagination.
type Page struct {
	Number int
	Size   int
}

func (p Page) Validate() error {
	if p.Number < 1 || p.Size < 1 || p.Size > MaxPageSize {
		return ErrInvalidPagination
	}
	return nil
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages returns the page count for totalItems at this page size.
func (p Page) TotalPages(totalItems int64) int64 {
	if totalItems == 0 {
		return 0
	}
	return (totalItems + int64(p.Size) - 1) / int64(p.Size)
}

// TransferKPIs are the per-status transfer counts for a filtered set. Each
// matching transfer increments exactly one bucket; TotalTransactions is the
// sum of all buckets.
type TransferKPIs struct {
	TotalTransactions int64 `json:"totalTransactions"`
	TotalPending      int64 `json:"totalPending"`
	TotalProcessing   int64 `json:"totalProcessing"`
	TotalCompleted    int64 `json:"totalCompleted"`
	TotalAbandoned    int64 `json:"totalAbandoned"`
	TotalRejected     int64 `json:"totalRejected"`
	TotalFailed       int64 `json:"totalFailed"`
	TotalCanceled     int64 `json:"totalCanceled"`
}

// TransferTotals are the summed source amounts grouped by source currency,
// over the same filtered set as the KPIs.
type TransferTotals struct {
	TotalAmountGBP decimal.Decimal `json:"totalAmountGBP"`
	TotalAmountNGN decimal.Decimal `json:"totalAmountNGN"`
}

// DashboardView is the computed aggregate block returned alongside a filtered
// transfer page. It always reflects the entire matching set, not the page.
type DashboardView struct {
	KPIs   TransferKPIs   `json:"kpis"`
	Totals TransferTotals `json:"totals"`
}

// OverviewTotals are the admin landing-page money-flow aggregates, computed
// over all transfers regardless of filter.
type OverviewTotals struct {
	TotalSentGBP        decimal.Decimal `json:"totalSentGBP"`
	TotalReceivedNGN    decimal.Decimal `json:"totalReceivedNGN"`
	TotalSentNGN        decimal.Decimal `json:"totalSentNGN"`
	TotalReceivedGBP    decimal.Decimal `json:"totalReceivedGBP"`
	TotalPendingSentGBP decimal.Decimal `json:"totalPendingSentGBP"`
	TotalPendingSentNGN decimal.Decimal `json:"totalPendingSentNGN"`
}
