package notify

import (
	"context"
	"fmt"

	"github.com/shiftremit/backend/internal/domain"
)

type sender interface {
	Send(ctx context.Context, email Email) error
}

// EmailDispatcher builds and delivers the transfer lifecycle emails. Callers
// treat every method as best-effort: a returned error means delivery failed,
// never that the underlying transfer is in doubt.
type EmailDispatcher struct {
	relay    sender
	from     string
	opsEmail string
}

func NewEmailDispatcher(relay sender, from, opsEmail string) *EmailDispatcher {
	return &EmailDispatcher{relay: relay, from: from, opsEmail: opsEmail}
}

// TransferCreated emails the operations desk a payout instruction for a newly
// created transfer, including the holding account the sender was told to fund.
func (d *EmailDispatcher) TransferCreated(ctx context.Context, t *domain.TransferWithSender, holding *domain.PayoutAccount) error {
	data := newEmailData(t)
	data.HoldingBank = holding.BankName
	data.HoldingAccountNumber = holding.AccountNumber

	html, err := render(adminInstructionTmpl, data)
	if err != nil {
		return fmt.Errorf("TransferCreated: %w", err)
	}

	err = d.relay.Send(ctx, Email{
		From:    d.from,
		To:      d.opsEmail,
		Subject: fmt.Sprintf("ACTION REQUIRED: New Transfer Instruction (Ref: %s)", t.TransferReference),
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("TransferCreated: %w", err)
	}
	return nil
}

// TransferCompleted emails the sender a confirmation and, when a recipient
// email is on file, the recipient a credit notice. Both use the transfer's
// stored conversion figures. Partial delivery returns the first failure after
// attempting both.
func (d *EmailDispatcher) TransferCompleted(ctx context.Context, t *domain.TransferWithSender) error {
	data := newEmailData(t)

	senderHTML, err := render(senderConfirmationTmpl, data)
	if err != nil {
		return fmt.Errorf("TransferCompleted: %w", err)
	}

	sendErr := d.relay.Send(ctx, Email{
		From:    d.from,
		To:      t.Sender.Email,
		Subject: fmt.Sprintf("Success! Your Transfer %s is Complete", t.TransferReference),
		HTML:    senderHTML,
	})

	if t.RecipientEmail != nil {
		recipientHTML, err := render(recipientCreditTmpl, data)
		if err != nil {
			return fmt.Errorf("TransferCompleted: %w", err)
		}
		err = d.relay.Send(ctx, Email{
			From:    d.from,
			To:      *t.RecipientEmail,
			Subject: fmt.Sprintf("Funds Received: You have a transfer from %s", t.Sender.FullName),
			HTML:    recipientHTML,
		})
		if sendErr == nil {
			sendErr = err
		}
	}

	if sendErr != nil {
		return fmt.Errorf("TransferCompleted: %w", sendErr)
	}
	return nil
}
