package rate

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shiftremit/backend/internal/domain"
	"github.com/shiftremit/backend/internal/logging"
)

// Quote is the rate resolved for a single transfer request. Rate is already
// direction-specific: multiplying the source amount by it yields the
// destination amount.
type Quote struct {
	From        domain.Currency
	To          domain.Currency
	Rate        decimal.Decimal
	BaseNGNRate decimal.Decimal
	Markup      decimal.Decimal
	Origin      domain.RateOrigin
}

type snapshotRepo interface {
	Get(ctx context.Context) (*domain.RateSnapshot, error)
	// Replace swaps the singleton snapshot and appends the history entry in
	// one transaction; partial application is never visible.
	Replace(ctx context.Context, snap *domain.RateSnapshot, entry *domain.RateHistoryEntry) error
	History(ctx context.Context, page domain.Page) ([]domain.RateHistoryEntry, int64, error)
}

type benchmarkFetcher interface {
	FetchBenchmark(ctx context.Context) (decimal.Decimal, error)
}

// Provider resolves effective customer rates and owns snapshot mutation.
// Reads are pure; SetRates is the only write path and always records history.
type Provider struct {
	snapshots snapshotRepo
	source    benchmarkFetcher
}

func NewProvider(snapshots snapshotRepo, source benchmarkFetcher) *Provider {
	return &Provider{snapshots: snapshots, source: source}
}

// EffectiveRate resolves the rate for a directed pair. A non-nil override is
// used verbatim and the snapshot is not consulted. Only GBP→NGN and NGN→GBP
// are supported.
func (p *Provider) EffectiveRate(ctx context.Context, from, to domain.Currency, override *decimal.Decimal) (*Quote, error) {
	if !supportedPair(from, to) {
		return nil, fmt.Errorf("EffectiveRate: %s/%s: %w", from, to, domain.ErrUnsupportedCurrencyPair)
	}

	if override != nil {
		if override.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("EffectiveRate: override: %w", domain.ErrInvalidRate)
		}
		return &Quote{
			From:   from,
			To:     to,
			Rate:   *override,
			Origin: domain.RateOriginOverride,
		}, nil
	}

	snap, err := p.snapshots.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("EffectiveRate: %w", err)
	}

	effective := snap.EffectiveGBPToNGN()
	if effective.LessThanOrEqual(decimal.Zero) {
		// A markup at or above the benchmark would quote a non-positive rate.
		return nil, fmt.Errorf("EffectiveRate: markup %s >= base %s: %w",
			snap.BenchmarkMarkup, snap.BaseNGNRate, domain.ErrRateUnavailable)
	}

	rate := effective
	if from == domain.CurrencyNGN {
		rate = decimal.NewFromInt(1).Div(effective)
	}

	return &Quote{
		From:        from,
		To:          to,
		Rate:        rate,
		BaseNGNRate: snap.BaseNGNRate,
		Markup:      snap.BenchmarkMarkup,
		Origin:      domain.RateOriginBenchmark,
	}, nil
}

// Apply converts a source amount using the quote, rounded to 2 decimal
// places in the destination currency.
func (q *Quote) Apply(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(q.Rate).Round(2)
}

func supportedPair(from, to domain.Currency) bool {
	return (from == domain.CurrencyGBP && to == domain.CurrencyNGN) ||
		(from == domain.CurrencyNGN && to == domain.CurrencyGBP)
}

// SetRatesInput carries a partial rate update; a nil field keeps the current
// snapshot's value. The first ever SetRates must supply both fields.
type SetRatesInput struct {
	BenchmarkMarkup *decimal.Decimal
	BaseNGNRate     *decimal.Decimal
}

// SetRates replaces the live snapshot and appends a RateHistoryEntry in one
// transactional unit. Existing transfers keep their snapshotted rates.
func (p *Provider) SetRates(ctx context.Context, input SetRatesInput) (*domain.RateSnapshot, error) {
	log := logging.FromContext(ctx)

	if input.BenchmarkMarkup == nil && input.BaseNGNRate == nil {
		return nil, fmt.Errorf("SetRates: no fields provided: %w", domain.ErrInvalidRate)
	}

	markup, base := input.BenchmarkMarkup, input.BaseNGNRate
	if markup == nil || base == nil {
		current, err := p.snapshots.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("SetRates: partial update without existing snapshot: %w", err)
		}
		if markup == nil {
			markup = &current.BenchmarkMarkup
		}
		if base == nil {
			base = &current.BaseNGNRate
		}
	}

	if markup.IsNegative() {
		return nil, fmt.Errorf("SetRates: negative markup: %w", domain.ErrInvalidRate)
	}
	if base.LessThanOrEqual(decimal.Zero) || base.LessThanOrEqual(*markup) {
		return nil, fmt.Errorf("SetRates: base %s must exceed markup %s: %w", base, markup, domain.ErrInvalidRate)
	}

	snap, entry := newSnapshotChange(*markup, *base)
	if err := p.snapshots.Replace(ctx, snap, entry); err != nil {
		return nil, fmt.Errorf("SetRates: %w", err)
	}

	log.Info("operating rates updated",
		"benchmark_markup", markup.String(),
		"base_ngn_rate", base.String(),
		"effective_rate", snap.EffectiveGBPToNGN().String(),
	)
	return snap, nil
}

// Current returns the live snapshot; domain.ErrRateUnavailable when none has
// been set yet. Callers never fall back to a hardcoded default.
func (p *Provider) Current(ctx context.Context) (*domain.RateSnapshot, error) {
	snap, err := p.snapshots.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("Current: %w", err)
	}
	return snap, nil
}

// History returns the rate audit trail newest-first.
func (p *Provider) History(ctx context.Context, page domain.Page) ([]domain.RateHistoryEntry, int64, error) {
	if err := page.Validate(); err != nil {
		return nil, 0, fmt.Errorf("History: %w", err)
	}
	entries, total, err := p.snapshots.History(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("History: %w", err)
	}
	return entries, total, nil
}

// RefreshBenchmark pulls the upstream NGN-per-GBP benchmark and applies it as
// the new base rate, keeping the current markup. Fetch failure is fatal to
// the refresh but never affects reads of the cached snapshot.
func (p *Provider) RefreshBenchmark(ctx context.Context) (*domain.RateSnapshot, error) {
	fetched, err := p.source.FetchBenchmark(ctx)
	if err != nil {
		return nil, fmt.Errorf("RefreshBenchmark: %w", err)
	}

	snap, err := p.SetRates(ctx, SetRatesInput{BaseNGNRate: &fetched})
	if err != nil {
		return nil, fmt.Errorf("RefreshBenchmark: %w", err)
	}
	return snap, nil
}
