package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shiftremit/backend/internal/domain"
	"github.com/shiftremit/backend/internal/logging"
	"github.com/shiftremit/backend/internal/rate"
)

// createMaxAttempts bounds the insert retry loop when the unique constraint
// rejects a reference the pre-check missed.
const createMaxAttempts = 10

// statusRetryAttempts bounds the compare-and-set loop in UpdateStatus when a
// concurrent writer moves the status between our read and our update.
const statusRetryAttempts = 3

type transferRepo interface {
	Create(ctx context.Context, t *domain.Transfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)
	GetByIDWithSender(ctx context.Context, id uuid.UUID) (*domain.TransferWithSender, error)
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to domain.TransferStatus, completedAt *time.Time) (bool, error)
	List(ctx context.Context, filter domain.TransferFilter, page domain.Page) ([]domain.TransferWithSender, int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type rateProvider interface {
	EffectiveRate(ctx context.Context, from, to domain.Currency, override *decimal.Decimal) (*rate.Quote, error)
}

type referenceGenerator interface {
	Generate(ctx context.Context) (string, error)
}

type payoutAccountRepo interface {
	GetOrInit(ctx context.Context, defaults *domain.PayoutAccount) (*domain.PayoutAccount, error)
	Update(ctx context.Context, a *domain.PayoutAccount) error
}

type dispatcher interface {
	TransferCreated(ctx context.Context, t *domain.TransferWithSender, holding *domain.PayoutAccount) error
	TransferCompleted(ctx context.Context, t *domain.TransferWithSender) error
}

// defaultPayoutAccount seeds the holding account row on first use; admins
// replace it with the real details through the payout account endpoint.
var defaultPayoutAccount = domain.PayoutAccount{
	AccountName:   "ShiftRemit Ltd",
	AccountNumber: "00000000",
	BankName:      "unset",
}

// Service owns the transfer lifecycle: creation with rate snapshotting and
// reference assignment, idempotent status transitions, and listing.
type Service struct {
	transfers     transferRepo
	rates         rateProvider
	references    referenceGenerator
	payouts       payoutAccountRepo
	notifier      dispatcher
	notifyTimeout time.Duration

	// OnNotifyFailure, when set, observes best-effort notification failures
	// after they have been logged. Delivery failures never fail the
	// underlying operation.
	OnNotifyFailure func(reference string, err error)
}

func NewService(
	transfers transferRepo,
	rates rateProvider,
	references referenceGenerator,
	payouts payoutAccountRepo,
	notifier dispatcher,
	notifyTimeout time.Duration,
) *Service {
	return &Service{
		transfers:     transfers,
		rates:         rates,
		references:    references,
		payouts:       payouts,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
	}
}

type CreateInput struct {
	UserID       uuid.UUID
	Amount       decimal.Decimal
	FromCurrency domain.Currency
	ToCurrency   domain.Currency
	// RateOverride, when set, is a pre-agreed quote applied verbatim instead
	// of the live snapshot.
	RateOverride *decimal.Decimal

	RecipientBankName          string
	RecipientAccountNumber     string
	RecipientFullName          string
	RecipientEmail             *string
	RecipientSortCode          *string
	Purpose                    *string
	IsRecipientBusinessAccount bool
}

// CreateResult pairs the persisted transfer with the holding account the
// sender must fund, quoting the transfer reference.
type CreateResult struct {
	Transfer       *domain.Transfer
	AccountDetails *domain.PayoutAccount
}

// Create validates the request, snapshots the effective rate, assigns a
// unique reference and persists the transfer as PENDING. The operations desk
// is notified best-effort after the transfer is durable.
func (s *Service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	log := logging.FromContext(ctx)

	if err := validateCreate(input); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	quote, err := s.rates.EffectiveRate(ctx, input.FromCurrency, input.ToCurrency, input.RateOverride)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	t, err := s.insertWithFreshReference(ctx, input, quote)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	account, err := s.payouts.GetOrInit(ctx, &defaultPayoutAccount)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	log.Info("transfer created",
		"transfer_id", t.ID,
		"reference", t.TransferReference,
		"amount", t.Amount.String(),
		"pair", fmt.Sprintf("%s/%s", t.FromCurrency, t.ToCurrency),
		"rate", t.ConversionRate.String(),
		"rate_origin", t.RateOrigin,
	)

	s.notifyCreated(ctx, t.ID, t.TransferReference, account)

	return &CreateResult{Transfer: t, AccountDetails: account}, nil
}

// insertWithFreshReference persists the transfer, regenerating the reference
// when the unique constraint catches a race the generator's pre-check missed.
func (s *Service) insertWithFreshReference(ctx context.Context, input CreateInput, quote *rate.Quote) (*domain.Transfer, error) {
	for attempt := 1; attempt <= createMaxAttempts; attempt++ {
		reference, err := s.references.Generate(ctx)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		t := &domain.Transfer{
			ID:                uuid.New(),
			TransferReference: reference,
			UserID:            input.UserID,

			Amount:          input.Amount,
			FromCurrency:    input.FromCurrency,
			ToCurrency:      input.ToCurrency,
			ConvertedAmount: quote.Apply(input.Amount),
			ConversionRate:  quote.Rate,
			RateOrigin:      quote.Origin,

			RecipientBankName:          input.RecipientBankName,
			RecipientAccountNumber:     input.RecipientAccountNumber,
			RecipientFullName:          input.RecipientFullName,
			RecipientEmail:             input.RecipientEmail,
			RecipientSortCode:          input.RecipientSortCode,
			Purpose:                    input.Purpose,
			IsRecipientBusinessAccount: input.IsRecipientBusinessAccount,

			Status:    domain.TransferStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err = s.transfers.Create(ctx, t)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, domain.ErrReferenceTaken) {
			return nil, err
		}

		logging.FromContext(ctx).Warn("reference taken at insert, regenerating",
			"reference", reference,
			"attempt", attempt,
		)
	}
	return nil, fmt.Errorf("%d insert attempts: %w", createMaxAttempts, domain.ErrReferenceExhausted)
}

func validateCreate(input CreateInput) error {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	if strings.TrimSpace(input.RecipientBankName) == "" ||
		strings.TrimSpace(input.RecipientAccountNumber) == "" ||
		strings.TrimSpace(input.RecipientFullName) == "" {
		return domain.ErrMissingRecipientDetails
	}
	if !input.FromCurrency.IsValid() || !input.ToCurrency.IsValid() ||
		input.FromCurrency == input.ToCurrency {
		return domain.ErrUnsupportedCurrencyPair
	}
	return nil
}

// UpdateStatus transitions a transfer to newStatus. Setting the status it
// already holds is a no-op, so the operation is safe to retry; completion
// side effects fire exactly once, on the transition into COMPLETED, using
// the transfer's stored conversion figures.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus domain.TransferStatus) (*domain.Transfer, error) {
	log := logging.FromContext(ctx)

	if !newStatus.IsValid() {
		return nil, fmt.Errorf("UpdateStatus: %q: %w", newStatus, domain.ErrInvalidStatus)
	}

	for attempt := 1; attempt <= statusRetryAttempts; attempt++ {
		t, err := s.transfers.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("UpdateStatus: %w", err)
		}

		if t.Status == newStatus {
			return t, nil
		}

		if t.Status.IsTerminal() {
			log.Warn("status change from terminal state",
				"transfer_id", id,
				"from", t.Status,
				"to", newStatus,
			)
		}

		var completedAt *time.Time
		if newStatus == domain.TransferStatusCompleted {
			now := time.Now().UTC()
			completedAt = &now
		}

		updated, err := s.transfers.UpdateStatusFrom(ctx, id, t.Status, newStatus, completedAt)
		if err != nil {
			return nil, fmt.Errorf("UpdateStatus: %w", err)
		}
		if !updated {
			// Lost the race with a concurrent transition; re-read and
			// reevaluate from the new state.
			continue
		}

		log.Info("transfer status updated",
			"transfer_id", id,
			"from", t.Status,
			"to", newStatus,
		)

		if newStatus == domain.TransferStatusCompleted {
			s.notifyCompleted(ctx, id, t.TransferReference)
		}

		result := *t
		result.Status = newStatus
		result.CompletedAt = completedAt
		return &result, nil
	}

	return nil, fmt.Errorf("UpdateStatus: contention persisted after %d attempts", statusRetryAttempts)
}

// List returns a page of transfers matching the filter alongside the total
// match count. Customer calls scope the filter to their own user id at the
// handler layer.
func (s *Service) List(ctx context.Context, filter domain.TransferFilter, page domain.Page) ([]domain.TransferWithSender, int64, error) {
	if err := page.Validate(); err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	items, total, err := s.transfers.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	return items, total, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	t, err := s.transfers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// PayoutAccount returns the holding account details shown to senders,
// initialising the placeholder row on first call.
func (s *Service) PayoutAccount(ctx context.Context) (*domain.PayoutAccount, error) {
	a, err := s.payouts.GetOrInit(ctx, &defaultPayoutAccount)
	if err != nil {
		return nil, fmt.Errorf("PayoutAccount: %w", err)
	}
	return a, nil
}

// SetPayoutAccount replaces the holding account details.
func (s *Service) SetPayoutAccount(ctx context.Context, a *domain.PayoutAccount) (*domain.PayoutAccount, error) {
	if _, err := s.payouts.GetOrInit(ctx, &defaultPayoutAccount); err != nil {
		return nil, fmt.Errorf("SetPayoutAccount: %w", err)
	}
	if err := s.payouts.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("SetPayoutAccount: %w", err)
	}
	updated, err := s.payouts.GetOrInit(ctx, &defaultPayoutAccount)
	if err != nil {
		return nil, fmt.Errorf("SetPayoutAccount: %w", err)
	}
	return updated, nil
}

// PurgeAll deletes every transfer. Maintenance operation for admins resetting
// a test environment.
func (s *Service) PurgeAll(ctx context.Context) (int64, error) {
	n, err := s.transfers.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("PurgeAll: %w", err)
	}
	logging.FromContext(ctx).Info("all transfers purged", "deleted", n)
	return n, nil
}

func (s *Service) notifyCreated(ctx context.Context, id uuid.UUID, reference string, account *domain.PayoutAccount) {
	nctx, cancel := s.notifyContext(ctx)
	defer cancel()

	ts, err := s.transfers.GetByIDWithSender(nctx, id)
	if err == nil {
		err = s.notifier.TransferCreated(nctx, ts, account)
	}
	if err != nil {
		s.reportNotifyFailure(ctx, reference, "created", err)
	}
}

func (s *Service) notifyCompleted(ctx context.Context, id uuid.UUID, reference string) {
	nctx, cancel := s.notifyContext(ctx)
	defer cancel()

	ts, err := s.transfers.GetByIDWithSender(nctx, id)
	if err == nil {
		err = s.notifier.TransferCompleted(nctx, ts)
	}
	if err != nil {
		s.reportNotifyFailure(ctx, reference, "completed", err)
	}
}

// notifyContext detaches from the request's cancellation so an aborted
// request cannot skip a notification for a transfer that was persisted, while
// still bounding the dispatch time.
func (s *Service) notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
}

func (s *Service) reportNotifyFailure(ctx context.Context, reference, kind string, err error) {
	logging.FromContext(ctx).Error("transfer notification failed",
		"transfer_reference", reference,
		"notification", kind,
		"error", err,
	)
	if s.OnNotifyFailure != nil {
		s.OnNotifyFailure(reference, err)
	}
}
