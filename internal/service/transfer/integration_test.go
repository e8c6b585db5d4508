package transfer_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftremit/backend/internal/domain"
	"github.com/shiftremit/backend/internal/rate"
	"github.com/shiftremit/backend/internal/reference"
	"github.com/shiftremit/backend/internal/repository"
	"github.com/shiftremit/backend/internal/service/dashboard"
	"github.com/shiftremit/backend/internal/service/transfer"
	"github.com/shiftremit/backend/internal/testutil"
)

type recordingDispatcher struct {
	mu        sync.Mutex
	created   []string
	completed []string
}

func (d *recordingDispatcher) TransferCreated(ctx context.Context, t *domain.TransferWithSender, holding *domain.PayoutAccount) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.created = append(d.created, t.TransferReference)
	return nil
}

func (d *recordingDispatcher) TransferCompleted(ctx context.Context, t *domain.TransferWithSender) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.completed = append(d.completed, t.TransferReference)
	return nil
}

func setupTransferService(t *testing.T, db *sql.DB) (*transfer.Service, *recordingDispatcher) {
	t.Helper()

	transferRepo := repository.NewTransferRepository(db)
	rateRepo := repository.NewRateRepository(db)
	payoutRepo := repository.NewPayoutAccountRepository(db)

	dispatcher := &recordingDispatcher{}
	svc := transfer.NewService(
		transferRepo,
		rate.NewProvider(rateRepo, nil),
		reference.NewGenerator(transferRepo),
		payoutRepo,
		dispatcher,
		5*time.Second,
	)
	return svc, dispatcher
}

func gbpInput(user *domain.User, amount string) transfer.CreateInput {
	return transfer.CreateInput{
		UserID:                 user.ID,
		Amount:                 decimal.RequireFromString(amount),
		FromCurrency:           domain.CurrencyGBP,
		ToCurrency:             domain.CurrencyNGN,
		RecipientBankName:      "GTBank",
		RecipientAccountNumber: "0123456789",
		RecipientFullName:      "Ada Obi",
	}
}

func TestCreateTransfer_RoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, dispatcher := setupTransferService(t, db)
	ctx := context.Background()

	testutil.SeedRates(t, db, "8", "1973")
	user := testutil.SeedUser(t, db, "sender@test.com", "sender", "Sam Sender", domain.UserRoleCustomer)

	result, err := svc.Create(ctx, gbpInput(user, "100"))
	require.NoError(t, err)

	tr := result.Transfer
	assert.Regexp(t, `^SR[1-9][0-9]{7}$`, tr.TransferReference)
	assert.Equal(t, domain.TransferStatusPending, tr.Status)
	assert.True(t, tr.ConversionRate.Equal(decimal.RequireFromString("1965")))
	assert.True(t, tr.ConvertedAmount.Equal(decimal.RequireFromString("196500")))
	require.NotNil(t, result.AccountDetails)

	loaded, err := svc.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.TransferReference, loaded.TransferReference)
	assert.True(t, loaded.Amount.Equal(tr.Amount))
	assert.True(t, loaded.ConversionRate.Equal(tr.ConversionRate))

	assert.Equal(t, []string{tr.TransferReference}, dispatcher.created)
}

func TestCreateTransfer_NoRatesConfigured(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := setupTransferService(t, db)

	user := testutil.SeedUser(t, db, "sender@test.com", "sender", "Sam Sender", domain.UserRoleCustomer)

	_, err := svc.Create(context.Background(), gbpInput(user, "100"))
	require.ErrorIs(t, err, domain.ErrRateUnavailable)
}

func TestUpdateStatus_CompletionIdempotentAgainstDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, dispatcher := setupTransferService(t, db)
	ctx := context.Background()

	testutil.SeedRates(t, db, "8", "1973")
	user := testutil.SeedUser(t, db, "sender@test.com", "sender", "Sam Sender", domain.UserRoleCustomer)

	result, err := svc.Create(ctx, gbpInput(user, "250"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, result.Transfer.ID, domain.TransferStatusCompleted)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, result.Transfer.ID, domain.TransferStatusCompleted)
	require.NoError(t, err)

	assert.Equal(t, domain.TransferStatusCompleted, testutil.GetTransferStatus(t, db, result.Transfer.ID))
	assert.Len(t, dispatcher.completed, 1)
}

func TestUpdateStatus_StoredRateSurvivesRateChange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := setupTransferService(t, db)
	ctx := context.Background()

	testutil.SeedRates(t, db, "8", "1973")
	user := testutil.SeedUser(t, db, "sender@test.com", "sender", "Sam Sender", domain.UserRoleCustomer)

	result, err := svc.Create(ctx, gbpInput(user, "100"))
	require.NoError(t, err)

	testutil.SeedRates(t, db, "10", "2100")

	updated, err := svc.UpdateStatus(ctx, result.Transfer.ID, domain.TransferStatusCompleted)
	require.NoError(t, err)

	assert.True(t, updated.ConversionRate.Equal(decimal.RequireFromString("1965")),
		"completion must not recompute the rate")
}

func TestListAndAggregate_Consistency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "sender@test.com", "sender", "Sam Sender", domain.UserRoleCustomer)
	other := testutil.SeedUser(t, db, "other@test.com", "other", "Olu Other", domain.UserRoleCustomer)

	testutil.SeedTransfer(t, db, user.ID, "SR10000001", "100", domain.CurrencyGBP, domain.CurrencyNGN, domain.TransferStatusPending)
	testutil.SeedTransfer(t, db, user.ID, "SR10000002", "50", domain.CurrencyGBP, domain.CurrencyNGN, domain.TransferStatusCompleted)
	testutil.SeedTransfer(t, db, user.ID, "SR10000003", "200000", domain.CurrencyNGN, domain.CurrencyGBP, domain.TransferStatusCompleted)
	testutil.SeedTransfer(t, db, other.ID, "SR10000004", "75", domain.CurrencyGBP, domain.CurrencyNGN, domain.TransferStatusFailed)
	testutil.SeedTransfer(t, db, other.ID, "SR10000005", "30", domain.CurrencyGBP, domain.CurrencyNGN, domain.TransferStatusCanceled)

	dash := dashboard.NewService(repository.NewTransferRepository(db))

	t.Run("unfiltered aggregates cover every transfer once", func(t *testing.T) {
		summary, err := dash.Summarize(ctx, domain.TransferFilter{}, domain.Page{Number: 1, Size: 2})
		require.NoError(t, err)

		kpis := summary.View.KPIs
		assert.Equal(t, int64(5), kpis.TotalTransactions)
		assert.Equal(t, int64(1), kpis.TotalPending)
		assert.Equal(t, int64(2), kpis.TotalCompleted)
		assert.Equal(t, int64(1), kpis.TotalFailed)
		assert.Equal(t, int64(1), kpis.TotalCanceled)
		sum := kpis.TotalPending + kpis.TotalProcessing + kpis.TotalCompleted +
			kpis.TotalAbandoned + kpis.TotalRejected + kpis.TotalFailed + kpis.TotalCanceled
		assert.Equal(t, kpis.TotalTransactions, sum)

		assert.True(t, summary.View.Totals.TotalAmountGBP.Equal(decimal.RequireFromString("255")))
		assert.True(t, summary.View.Totals.TotalAmountNGN.Equal(decimal.RequireFromString("200000")))

		// Aggregates reflect the full set even though the page holds two rows.
		assert.Len(t, summary.Items, 2)
		assert.Equal(t, int64(5), summary.TotalItems)
	})

	t.Run("status filter narrows both page and aggregates", func(t *testing.T) {
		status := domain.TransferStatusCompleted
		summary, err := dash.Summarize(ctx, domain.TransferFilter{Status: &status}, domain.Page{Number: 1, Size: 10})
		require.NoError(t, err)

		assert.Equal(t, int64(2), summary.View.KPIs.TotalTransactions)
		assert.Equal(t, int64(2), summary.View.KPIs.TotalCompleted)
		assert.Len(t, summary.Items, 2)
	})

	t.Run("sender name filter matches substring", func(t *testing.T) {
		name := "olu"
		summary, err := dash.Summarize(ctx, domain.TransferFilter{SenderName: &name}, domain.Page{Number: 1, Size: 10})
		require.NoError(t, err)

		require.Len(t, summary.Items, 2)
		refs := []string{summary.Items[0].TransferReference, summary.Items[1].TransferReference}
		assert.ElementsMatch(t, []string{"SR10000004", "SR10000005"}, refs)
	})

	t.Run("overview splits flows by direction", func(t *testing.T) {
		totals, err := dash.Overview(ctx)
		require.NoError(t, err)

		// Sent counts every non-canceled transfer, whatever its progress.
		assert.True(t, totals.TotalSentGBP.Equal(decimal.RequireFromString("225")))
		assert.True(t, totals.TotalSentNGN.Equal(decimal.RequireFromString("200000")))
		// Received is only credited once funds are moving.
		assert.True(t, totals.TotalReceivedNGN.Equal(decimal.RequireFromString("98250")))
		// Pending excludes PROCESSING.
		assert.True(t, totals.TotalPendingSentGBP.Equal(decimal.RequireFromString("100")))
		assert.True(t, totals.TotalPendingSentNGN.Equal(decimal.Zero))
	})
}

func TestRateReplace_SnapshotAndHistoryMoveTogether(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	rateRepo := repository.NewRateRepository(db)
	provider := rate.NewProvider(rateRepo, nil)

	markup := decimal.RequireFromString("8")
	base := decimal.RequireFromString("1973")
	_, err := provider.SetRates(ctx, rate.SetRatesInput{BenchmarkMarkup: &markup, BaseNGNRate: &base})
	require.NoError(t, err)

	newBase := decimal.RequireFromString("1980")
	_, err = provider.SetRates(ctx, rate.SetRatesInput{BaseNGNRate: &newBase})
	require.NoError(t, err)

	snap, err := provider.Current(ctx)
	require.NoError(t, err)
	assert.True(t, snap.BaseNGNRate.Equal(newBase))
	assert.True(t, snap.BenchmarkMarkup.Equal(markup))

	assert.Equal(t, 2, testutil.CountRateHistory(t, db))

	entries, total, err := provider.History(ctx, domain.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].BaseNGNRate.Equal(newBase), "history is newest first")
}

func TestPayoutAccount_InitOnceThenUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := setupTransferService(t, db)
	ctx := context.Background()

	first, err := svc.PayoutAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ShiftRemit Ltd", first.AccountName)

	sortCode := "04-00-04"
	updated, err := svc.SetPayoutAccount(ctx, &domain.PayoutAccount{
		AccountName:   "ShiftRemit Operations",
		AccountNumber: "12345678",
		BankName:      "Monzo",
		SortCode:      &sortCode,
	})
	require.NoError(t, err)
	assert.Equal(t, "Monzo", updated.BankName)

	again, err := svc.PayoutAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ShiftRemit Operations", again.AccountName,
		"GetOrInit must not overwrite an existing row")
}

func TestCreateTransfer_ConcurrentReferencesUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := setupTransferService(t, db)
	ctx := context.Background()

	testutil.SeedRates(t, db, "8", "1973")
	user := testutil.SeedUser(t, db, "sender@test.com", "sender", "Sam Sender", domain.UserRoleCustomer)

	const workers = 8
	refs := make(chan string, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Create(ctx, gbpInput(user, "10"))
			if err != nil {
				t.Errorf("concurrent create: %v", err)
				return
			}
			refs <- result.Transfer.TransferReference
		}()
	}
	wg.Wait()
	close(refs)

	seen := map[string]bool{}
	for ref := range refs {
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
	assert.Len(t, seen, workers)
}
