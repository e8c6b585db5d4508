package dashboard

import (
	"context"
	"fmt"

	"github.com/shiftremit/backend/internal/domain"
)

type aggregateRepo interface {
	List(ctx context.Context, filter domain.TransferFilter, page domain.Page) ([]domain.TransferWithSender, int64, error)
	Aggregate(ctx context.Context, filter domain.TransferFilter) (*domain.DashboardView, error)
	Overview(ctx context.Context) (*domain.OverviewTotals, error)
}

// Service computes the admin dashboard: a filtered transfer page together
// with KPI counts and currency totals over the whole matching set.
type Service struct {
	transfers aggregateRepo
}

func NewService(transfers aggregateRepo) *Service {
	return &Service{transfers: transfers}
}

// Summary is one dashboard response: aggregates over the full filtered set
// and the requested page of matching transfers.
type Summary struct {
	View       *domain.DashboardView
	Items      []domain.TransferWithSender
	TotalItems int64
}

// Summarize evaluates the filter once for aggregates and once for the page.
// The KPI buckets partition the filtered set: every matching transfer counts
// in exactly one bucket and TotalTransactions equals the sum of buckets.
func (s *Service) Summarize(ctx context.Context, filter domain.TransferFilter, page domain.Page) (*Summary, error) {
	if err := page.Validate(); err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}

	view, err := s.transfers.Aggregate(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}

	items, total, err := s.transfers.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}

	return &Summary{View: view, Items: items, TotalItems: total}, nil
}

// Overview returns the unfiltered money-flow totals for the admin landing
// page.
func (s *Service) Overview(ctx context.Context) (*domain.OverviewTotals, error) {
	totals, err := s.transfers.Overview(ctx)
	if err != nil {
		return nil, fmt.Errorf("Overview: %w", err)
	}
	return totals, nil
}
