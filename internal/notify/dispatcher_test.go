package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftremit/backend/internal/domain"
)

type capturedMail struct {
	mu     sync.Mutex
	emails []Email
}

func (c *capturedMail) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e Email
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.emails = append(c.emails, e)
		c.mu.Unlock()
		w.WriteHeader(status)
	}
}

func sampleTransfer(recipientEmail *string) *domain.TransferWithSender {
	return &domain.TransferWithSender{
		Transfer: domain.Transfer{
			ID:                uuid.New(),
			TransferReference: "SR10000001",
			Amount:            decimal.RequireFromString("100"),
			FromCurrency:      domain.CurrencyGBP,
			ToCurrency:        domain.CurrencyNGN,
			ConvertedAmount:   decimal.RequireFromString("196500"),
			ConversionRate:    decimal.RequireFromString("1965"),

			RecipientBankName:      "GTBank",
			RecipientAccountNumber: "0123456789",
			RecipientFullName:      "Ada Obi",
			RecipientEmail:         recipientEmail,

			Status: domain.TransferStatusPending,
		},
		Sender: domain.Sender{Username: "sam", FullName: "Sam Sender", Email: "sam@example.com"},
	}
}

func holdingAccount() *domain.PayoutAccount {
	return &domain.PayoutAccount{
		AccountName:   "ShiftRemit Ltd",
		AccountNumber: "12345678",
		BankName:      "Monzo",
	}
}

func TestTransferCreated(t *testing.T) {
	captured := &capturedMail{}
	srv := httptest.NewServer(captured.handler(http.StatusAccepted))
	defer srv.Close()

	d := NewEmailDispatcher(NewRelayClient(srv.URL, time.Second), "no-reply@shiftremit.com", "ops@shiftremit.com")

	err := d.TransferCreated(context.Background(), sampleTransfer(nil), holdingAccount())
	require.NoError(t, err)

	require.Len(t, captured.emails, 1)
	mail := captured.emails[0]
	assert.Equal(t, "ops@shiftremit.com", mail.To)
	assert.Equal(t, "ACTION REQUIRED: New Transfer Instruction (Ref: SR10000001)", mail.Subject)
	assert.Contains(t, mail.HTML, "SR10000001")
	assert.Contains(t, mail.HTML, "Sam Sender")
	assert.Contains(t, mail.HTML, "196500.00")
	assert.Contains(t, mail.HTML, "Monzo")
}

func TestTransferCompleted(t *testing.T) {
	t.Run("sender and recipient when email on file", func(t *testing.T) {
		captured := &capturedMail{}
		srv := httptest.NewServer(captured.handler(http.StatusAccepted))
		defer srv.Close()

		d := NewEmailDispatcher(NewRelayClient(srv.URL, time.Second), "no-reply@shiftremit.com", "ops@shiftremit.com")
		recipient := "ada@example.com"

		err := d.TransferCompleted(context.Background(), sampleTransfer(&recipient))
		require.NoError(t, err)

		require.Len(t, captured.emails, 2)
		assert.Equal(t, "sam@example.com", captured.emails[0].To)
		assert.Equal(t, "Success! Your Transfer SR10000001 is Complete", captured.emails[0].Subject)
		assert.Equal(t, "ada@example.com", captured.emails[1].To)
		assert.Equal(t, "Funds Received: You have a transfer from Sam Sender", captured.emails[1].Subject)
		assert.Contains(t, captured.emails[1].HTML, "6789", "recipient sees only the account tail")
	})

	t.Run("sender only without recipient email", func(t *testing.T) {
		captured := &capturedMail{}
		srv := httptest.NewServer(captured.handler(http.StatusAccepted))
		defer srv.Close()

		d := NewEmailDispatcher(NewRelayClient(srv.URL, time.Second), "no-reply@shiftremit.com", "ops@shiftremit.com")

		err := d.TransferCompleted(context.Background(), sampleTransfer(nil))
		require.NoError(t, err)
		assert.Len(t, captured.emails, 1)
	})

	t.Run("relay rejection surfaces as error", func(t *testing.T) {
		captured := &capturedMail{}
		srv := httptest.NewServer(captured.handler(http.StatusBadGateway))
		defer srv.Close()

		d := NewEmailDispatcher(NewRelayClient(srv.URL, time.Second), "no-reply@shiftremit.com", "ops@shiftremit.com")

		err := d.TransferCompleted(context.Background(), sampleTransfer(nil))
		require.Error(t, err)
	})
}
