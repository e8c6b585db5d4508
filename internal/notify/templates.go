package notify

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/shiftremit/backend/internal/domain"
)

var adminInstructionTmpl = template.Must(template.New("adminInstruction").Parse(`
<h2>New Transfer Instruction</h2>
<p>A new transfer has been created and is awaiting payout.</p>
<table>
  <tr><td>Reference</td><td><strong>{{.Reference}}</strong></td></tr>
  <tr><td>Sender</td><td>{{.SenderName}} ({{.SenderEmail}})</td></tr>
  <tr><td>Amount</td><td>{{.Amount}} {{.FromCurrency}}</td></tr>
  <tr><td>Converted amount</td><td>{{.ConvertedAmount}} {{.ToCurrency}}</td></tr>
  <tr><td>Applied rate</td><td>{{.Rate}}</td></tr>
  <tr><td>Recipient</td><td>{{.RecipientName}}</td></tr>
  <tr><td>Recipient bank</td><td>{{.RecipientBank}}</td></tr>
  <tr><td>Recipient account</td><td>{{.RecipientAccount}}</td></tr>
  {{if .Purpose}}<tr><td>Purpose</td><td>{{.Purpose}}</td></tr>{{end}}
</table>
<p>The sender has been instructed to pay into the {{.HoldingBank}} holding
account ({{.HoldingAccountNumber}}) quoting the reference above.</p>
`))

var senderConfirmationTmpl = template.Must(template.New("senderConfirmation").Parse(`
<h2>Your transfer is complete</h2>
<p>Hi {{.SenderName}},</p>
<p>Your transfer <strong>{{.Reference}}</strong> of {{.Amount}} {{.FromCurrency}}
has been paid out. {{.RecipientName}} received {{.ConvertedAmount}} {{.ToCurrency}}
at a rate of {{.Rate}}.</p>
<p>Thank you for using ShiftRemit.</p>
`))

var recipientCreditTmpl = template.Must(template.New("recipientCredit").Parse(`
<h2>You have received a transfer</h2>
<p>Hi {{.RecipientName}},</p>
<p>{{.SenderName}} has sent you {{.ConvertedAmount}} {{.ToCurrency}}
(reference <strong>{{.Reference}}</strong>). The funds have been paid to your
{{.RecipientBank}} account ending {{.AccountTail}}.</p>
`))

type emailData struct {
	Reference            string
	SenderName           string
	SenderEmail          string
	Amount               string
	FromCurrency         domain.Currency
	ConvertedAmount      string
	ToCurrency           domain.Currency
	Rate                 string
	RecipientName        string
	RecipientBank        string
	RecipientAccount     string
	AccountTail          string
	Purpose              string
	HoldingBank          string
	HoldingAccountNumber string
}

func newEmailData(t *domain.TransferWithSender) emailData {
	d := emailData{
		Reference:        t.TransferReference,
		SenderName:       t.Sender.FullName,
		SenderEmail:      t.Sender.Email,
		Amount:           t.Amount.StringFixed(2),
		FromCurrency:     t.FromCurrency,
		ConvertedAmount:  t.ConvertedAmount.StringFixed(2),
		ToCurrency:       t.ToCurrency,
		Rate:             t.ConversionRate.String(),
		RecipientName:    t.RecipientFullName,
		RecipientBank:    t.RecipientBankName,
		RecipientAccount: t.RecipientAccountNumber,
		AccountTail:      accountTail(t.RecipientAccountNumber),
	}
	if t.Purpose != nil {
		d.Purpose = *t.Purpose
	}
	return d
}

func accountTail(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return accountNumber
	}
	return accountNumber[len(accountNumber)-4:]
}

func render(tmpl *template.Template, data emailData) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}
