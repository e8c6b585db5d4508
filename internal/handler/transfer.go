package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shiftremit/backend/internal/auth"
	"github.com/shiftremit/backend/internal/domain"
	"github.com/shiftremit/backend/internal/service/transfer"
)

type transferService interface {
	Create(ctx context.Context, input transfer.CreateInput) (*transfer.CreateResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)
	List(ctx context.Context, filter domain.TransferFilter, page domain.Page) ([]domain.TransferWithSender, int64, error)
}

type TransferHandler struct {
	transfers transferService
}

func NewTransferHandler(transfers transferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

type createTransferRequest struct {
	Amount       decimal.Decimal  `json:"amount"`
	FromCurrency string           `json:"fromCurrency"`
	ToCurrency   string           `json:"toCurrency"`
	Rate         *decimal.Decimal `json:"rate"`

	RecipientBankName          string  `json:"recipientBankName"`
	RecipientAccountNumber     string  `json:"recipientAccountNumber"`
	RecipientFullName          string  `json:"recipientFullName"`
	RecipientEmail             *string `json:"recipientEmail"`
	RecipientSortCode          *string `json:"recipientSortCode"`
	Purpose                    *string `json:"purpose"`
	IsRecipientBusinessAccount bool    `json:"isRecipientBusinessAccount"`
}

func (r createTransferRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}

	if r.FromCurrency == "" {
		errs = append(errs, FieldError{Field: "fromCurrency", Message: "required"})
	} else if !domain.Currency(r.FromCurrency).IsValid() {
		errs = append(errs, FieldError{Field: "fromCurrency", Message: "must be GBP or NGN"})
	}

	if r.ToCurrency == "" {
		errs = append(errs, FieldError{Field: "toCurrency", Message: "required"})
	} else if !domain.Currency(r.ToCurrency).IsValid() {
		errs = append(errs, FieldError{Field: "toCurrency", Message: "must be GBP or NGN"})
	}

	if r.Rate != nil && r.Rate.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "rate", Message: "must be greater than 0"})
	}

	if r.RecipientBankName == "" {
		errs = append(errs, FieldError{Field: "recipientBankName", Message: "required"})
	}
	if r.RecipientAccountNumber == "" {
		errs = append(errs, FieldError{Field: "recipientAccountNumber", Message: "required"})
	}
	if r.RecipientFullName == "" {
		errs = append(errs, FieldError{Field: "recipientFullName", Message: "required"})
	}

	return errs
}

type transferDTO struct {
	ID                uuid.UUID         `json:"id"`
	TransferReference string            `json:"transferReference"`
	Amount            decimal.Decimal   `json:"amount"`
	FromCurrency      domain.Currency   `json:"fromCurrency"`
	ToCurrency        domain.Currency   `json:"toCurrency"`
	ConvertedAmount   decimal.Decimal   `json:"convertedAmount"`
	ConversionRate    decimal.Decimal   `json:"conversionRate"`
	RateOrigin        domain.RateOrigin `json:"rateOrigin"`

	RecipientBankName          string  `json:"recipientBankName"`
	RecipientAccountNumber     string  `json:"recipientAccountNumber"`
	RecipientFullName          string  `json:"recipientFullName"`
	RecipientEmail             *string `json:"recipientEmail,omitempty"`
	RecipientSortCode          *string `json:"recipientSortCode,omitempty"`
	Purpose                    *string `json:"purpose,omitempty"`
	IsRecipientBusinessAccount bool    `json:"isRecipientBusinessAccount"`

	Status      domain.TransferStatus `json:"status"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	CompletedAt *time.Time            `json:"completedAt,omitempty"`
}

func newTransferDTO(t *domain.Transfer) transferDTO {
	return transferDTO{
		ID:                t.ID,
		TransferReference: t.TransferReference,
		Amount:            t.Amount,
		FromCurrency:      t.FromCurrency,
		ToCurrency:        t.ToCurrency,
		ConvertedAmount:   t.ConvertedAmount,
		ConversionRate:    t.ConversionRate,
		RateOrigin:        t.RateOrigin,

		RecipientBankName:          t.RecipientBankName,
		RecipientAccountNumber:     t.RecipientAccountNumber,
		RecipientFullName:          t.RecipientFullName,
		RecipientEmail:             t.RecipientEmail,
		RecipientSortCode:          t.RecipientSortCode,
		Purpose:                    t.Purpose,
		IsRecipientBusinessAccount: t.IsRecipientBusinessAccount,

		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
}

type transferWithSenderDTO struct {
	transferDTO
	Sender senderDTO `json:"sender"`
}

type senderDTO struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func newTransferWithSenderDTO(t *domain.TransferWithSender) transferWithSenderDTO {
	return transferWithSenderDTO{
		transferDTO: newTransferDTO(&t.Transfer),
		Sender: senderDTO{
			Username: t.Sender.Username,
			FullName: t.Sender.FullName,
			Email:    t.Sender.Email,
		},
	}
}

type payoutAccountDTO struct {
	AccountName   string  `json:"accountName"`
	AccountNumber string  `json:"accountNumber"`
	BankName      string  `json:"bankName"`
	SortCode      *string `json:"sortCode,omitempty"`
}

func newPayoutAccountDTO(a *domain.PayoutAccount) payoutAccountDTO {
	return payoutAccountDTO{
		AccountName:   a.AccountName,
		AccountNumber: a.AccountNumber,
		BankName:      a.BankName,
		SortCode:      a.SortCode,
	}
}

type createTransferResponse struct {
	Transfer       transferDTO      `json:"transfer"`
	AccountDetails payoutAccountDTO `json:"accountDetails"`
}

func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	result, err := h.transfers.Create(r.Context(), transfer.CreateInput{
		UserID:       claims.UserID,
		Amount:       req.Amount,
		FromCurrency: domain.Currency(req.FromCurrency),
		ToCurrency:   domain.Currency(req.ToCurrency),
		RateOverride: req.Rate,

		RecipientBankName:          req.RecipientBankName,
		RecipientAccountNumber:     req.RecipientAccountNumber,
		RecipientFullName:          req.RecipientFullName,
		RecipientEmail:             req.RecipientEmail,
		RecipientSortCode:          req.RecipientSortCode,
		Purpose:                    req.Purpose,
		IsRecipientBusinessAccount: req.IsRecipientBusinessAccount,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, createTransferResponse{
		Transfer:       newTransferDTO(result.Transfer),
		AccountDetails: newPayoutAccountDTO(result.AccountDetails),
	})
}

type listTransfersResponse struct {
	Items      []transferWithSenderDTO `json:"items"`
	Pagination Pagination              `json:"pagination"`
}

// List returns the authenticated user's own transfers, newest first.
func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	page, appErr := parsePage(r.URL.Query())
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	userID := claims.UserID.String()
	filter := domain.TransferFilter{UserID: &userID}

	items, total, err := h.transfers.List(r.Context(), filter, page)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, listTransfersResponse{
		Items:      newTransferListDTO(items),
		Pagination: NewPagination(page, total),
	})
}

func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	t, err := h.transfers.GetByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	// Customers only see their own transfers; a foreign id reads as absent.
	if t.UserID != claims.UserID && claims.Role != domain.UserRoleAdmin {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, newTransferDTO(t))
}

func newTransferListDTO(items []domain.TransferWithSender) []transferWithSenderDTO {
	out := make([]transferWithSenderDTO, 0, len(items))
	for i := range items {
		out = append(out, newTransferWithSenderDTO(&items[i]))
	}
	return out
}

// parsePage reads page and limit query parameters, defaulting to the first
// page of DefaultPageSize. Out-of-range values are rejected, not clamped.
func parsePage(q url.Values) (domain.Page, *AppError) {
	page := domain.Page{Number: 1, Size: domain.DefaultPageSize}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.Page{}, ErrInvalidPagination
		}
		page.Number = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.Page{}, ErrInvalidPagination
		}
		page.Size = n
	}

	if err := page.Validate(); err != nil {
		return domain.Page{}, ErrInvalidPagination
	}
	return page, nil
}
