package rate

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftremit/backend/internal/domain"
)

type fakeSnapshotRepo struct {
	snap    *domain.RateSnapshot
	history []domain.RateHistoryEntry
}

func (f *fakeSnapshotRepo) Get(ctx context.Context) (*domain.RateSnapshot, error) {
	if f.snap == nil {
		return nil, domain.ErrRateUnavailable
	}
	return f.snap, nil
}

func (f *fakeSnapshotRepo) Replace(ctx context.Context, snap *domain.RateSnapshot, entry *domain.RateHistoryEntry) error {
	f.snap = snap
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakeSnapshotRepo) History(ctx context.Context, page domain.Page) ([]domain.RateHistoryEntry, int64, error) {
	return f.history, int64(len(f.history)), nil
}

type fakeFetcher struct {
	rate decimal.Decimal
	err  error
}

func (f *fakeFetcher) FetchBenchmark(ctx context.Context) (decimal.Decimal, error) {
	return f.rate, f.err
}

func seededRepo(markup, base string) *fakeSnapshotRepo {
	return &fakeSnapshotRepo{
		snap: &domain.RateSnapshot{
			BenchmarkMarkup: decimal.RequireFromString(markup),
			BaseNGNRate:     decimal.RequireFromString(base),
		},
	}
}

func TestEffectiveRate(t *testing.T) {
	ctx := context.Background()
	override := decimal.RequireFromString("1950")

	tests := []struct {
		name       string
		repo       *fakeSnapshotRepo
		from       domain.Currency
		to         domain.Currency
		override   *decimal.Decimal
		wantRate   string
		wantOrigin domain.RateOrigin
		wantErr    error
	}{
		{
			name:       "GBP to NGN subtracts markup from base",
			repo:       seededRepo("8", "1973"),
			from:       domain.CurrencyGBP,
			to:         domain.CurrencyNGN,
			wantRate:   "1965",
			wantOrigin: domain.RateOriginBenchmark,
		},
		{
			name:       "NGN to GBP inverts the effective rate",
			repo:       seededRepo("8", "1973"),
			from:       domain.CurrencyNGN,
			to:         domain.CurrencyGBP,
			wantRate:   decimal.NewFromInt(1).Div(decimal.NewFromInt(1965)).String(),
			wantOrigin: domain.RateOriginBenchmark,
		},
		{
			name:       "override used verbatim",
			repo:       seededRepo("8", "1973"),
			from:       domain.CurrencyGBP,
			to:         domain.CurrencyNGN,
			override:   &override,
			wantRate:   "1950",
			wantOrigin: domain.RateOriginOverride,
		},
		{
			name:    "unsupported pair",
			repo:    seededRepo("8", "1973"),
			from:    domain.CurrencyGBP,
			to:      domain.CurrencyGBP,
			wantErr: domain.ErrUnsupportedCurrencyPair,
		},
		{
			name:    "no snapshot configured",
			repo:    &fakeSnapshotRepo{},
			from:    domain.CurrencyGBP,
			to:      domain.CurrencyNGN,
			wantErr: domain.ErrRateUnavailable,
		},
		{
			name:    "markup at base quotes nothing",
			repo:    seededRepo("1973", "1973"),
			from:    domain.CurrencyGBP,
			to:      domain.CurrencyNGN,
			wantErr: domain.ErrRateUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProvider(tc.repo, &fakeFetcher{})
			quote, err := p.EffectiveRate(ctx, tc.from, tc.to, tc.override)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.from, quote.From)
			assert.Equal(t, tc.to, quote.To)
			assert.Equal(t, tc.wantOrigin, quote.Origin)
			assert.True(t, quote.Rate.Equal(decimal.RequireFromString(tc.wantRate)),
				"rate: got %s, want %s", quote.Rate, tc.wantRate)
		})
	}
}

func TestQuoteApply(t *testing.T) {
	p := NewProvider(seededRepo("8", "1973"), &fakeFetcher{})

	quote, err := p.EffectiveRate(context.Background(), domain.CurrencyGBP, domain.CurrencyNGN, nil)
	require.NoError(t, err)

	got := quote.Apply(decimal.RequireFromString("100"))
	assert.True(t, got.Equal(decimal.RequireFromString("196500")),
		"converted: got %s, want 196500", got)
}

func TestSetRates(t *testing.T) {
	ctx := context.Background()
	mkDec := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	tests := []struct {
		name    string
		repo    *fakeSnapshotRepo
		input   SetRatesInput
		wantErr error
	}{
		{
			name:  "full update",
			repo:  &fakeSnapshotRepo{},
			input: SetRatesInput{BenchmarkMarkup: mkDec("8"), BaseNGNRate: mkDec("1973")},
		},
		{
			name:  "partial update keeps existing base",
			repo:  seededRepo("8", "1973"),
			input: SetRatesInput{BenchmarkMarkup: mkDec("10")},
		},
		{
			name:    "partial update without existing snapshot",
			repo:    &fakeSnapshotRepo{},
			input:   SetRatesInput{BenchmarkMarkup: mkDec("8")},
			wantErr: domain.ErrRateUnavailable,
		},
		{
			name:    "empty input",
			repo:    seededRepo("8", "1973"),
			input:   SetRatesInput{},
			wantErr: domain.ErrInvalidRate,
		},
		{
			name:    "negative markup",
			repo:    seededRepo("8", "1973"),
			input:   SetRatesInput{BenchmarkMarkup: mkDec("-1"), BaseNGNRate: mkDec("1973")},
			wantErr: domain.ErrInvalidRate,
		},
		{
			name:    "base not above markup",
			repo:    seededRepo("8", "1973"),
			input:   SetRatesInput{BenchmarkMarkup: mkDec("2000"), BaseNGNRate: mkDec("1973")},
			wantErr: domain.ErrInvalidRate,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProvider(tc.repo, &fakeFetcher{})
			before := len(tc.repo.history)

			snap, err := p.SetRates(ctx, tc.input)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Len(t, tc.repo.history, before, "failed update must not record history")
				return
			}

			require.NoError(t, err)
			assert.Len(t, tc.repo.history, before+1, "every update records exactly one history entry")

			last := tc.repo.history[len(tc.repo.history)-1]
			assert.True(t, last.BenchmarkMarkup.Equal(snap.BenchmarkMarkup))
			assert.True(t, last.BaseNGNRate.Equal(snap.BaseNGNRate))
		})
	}
}

func TestSetRatesPartialMerge(t *testing.T) {
	repo := seededRepo("8", "1973")
	p := NewProvider(repo, &fakeFetcher{})

	markup := decimal.RequireFromString("12")
	snap, err := p.SetRates(context.Background(), SetRatesInput{BenchmarkMarkup: &markup})
	require.NoError(t, err)

	assert.True(t, snap.BenchmarkMarkup.Equal(markup))
	assert.True(t, snap.BaseNGNRate.Equal(decimal.RequireFromString("1973")),
		"omitted base must keep current value, got %s", snap.BaseNGNRate)
}

func TestRefreshBenchmark(t *testing.T) {
	t.Run("applies fetched rate as new base", func(t *testing.T) {
		repo := seededRepo("8", "1973")
		p := NewProvider(repo, &fakeFetcher{rate: decimal.RequireFromString("1980")})

		snap, err := p.RefreshBenchmark(context.Background())
		require.NoError(t, err)

		assert.True(t, snap.BaseNGNRate.Equal(decimal.RequireFromString("1980")))
		assert.True(t, snap.BenchmarkMarkup.Equal(decimal.RequireFromString("8")),
			"refresh must keep the current markup")
	})

	t.Run("fetch failure leaves snapshot untouched", func(t *testing.T) {
		repo := seededRepo("8", "1973")
		p := NewProvider(repo, &fakeFetcher{err: domain.ErrBenchmarkUnavailable})

		_, err := p.RefreshBenchmark(context.Background())
		require.ErrorIs(t, err, domain.ErrBenchmarkUnavailable)

		assert.True(t, repo.snap.BaseNGNRate.Equal(decimal.RequireFromString("1973")))
		assert.Empty(t, repo.history)
	})
}
