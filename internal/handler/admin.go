package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shiftremit/backend/internal/domain"
	"github.com/shiftremit/backend/internal/service/dashboard"
)

type adminTransferService interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus domain.TransferStatus) (*domain.Transfer, error)
	PurgeAll(ctx context.Context) (int64, error)
	PayoutAccount(ctx context.Context) (*domain.PayoutAccount, error)
	SetPayoutAccount(ctx context.Context, a *domain.PayoutAccount) (*domain.PayoutAccount, error)
}

type dashboardService interface {
	Summarize(ctx context.Context, filter domain.TransferFilter, page domain.Page) (*dashboard.Summary, error)
	Overview(ctx context.Context) (*domain.OverviewTotals, error)
}

type AdminHandler struct {
	transfers adminTransferService
	dashboard dashboardService
}

func NewAdminHandler(transfers adminTransferService, dash dashboardService) *AdminHandler {
	return &AdminHandler{transfers: transfers, dashboard: dash}
}

type dashboardResponse struct {
	KPIs       domain.TransferKPIs     `json:"kpis"`
	Totals     domain.TransferTotals   `json:"totals"`
	Items      []transferWithSenderDTO `json:"items"`
	Pagination Pagination              `json:"pagination"`
}

// ListTransfers serves the admin dashboard: a filtered page of transfers with
// sender details plus KPI counts and currency totals over the entire filtered
// set.
func (h *AdminHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	page, appErr := parsePage(r.URL.Query())
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	filter, fields := parseTransferFilter(r.URL.Query())
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	summary, err := h.dashboard.Summarize(r.Context(), filter, page)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, dashboardResponse{
		KPIs:       summary.View.KPIs,
		Totals:     summary.View.Totals,
		Items:      newTransferListDTO(summary.Items),
		Pagination: NewPagination(page, summary.TotalItems),
	})
}

func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	totals, err := h.dashboard.Overview(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, totals)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) UpdateTransferStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Status == "" {
		RespondValidationError(w, []FieldError{{Field: "status", Message: "required"}})
		return
	}

	t, err := h.transfers.UpdateStatus(r.Context(), id, domain.TransferStatus(req.Status))
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, newTransferDTO(t))
}

type purgeResponse struct {
	Deleted int64 `json:"deleted"`
}

func (h *AdminHandler) PurgeTransfers(w http.ResponseWriter, r *http.Request) {
	n, err := h.transfers.PurgeAll(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, purgeResponse{Deleted: n})
}

func (h *AdminHandler) GetPayoutAccount(w http.ResponseWriter, r *http.Request) {
	a, err := h.transfers.PayoutAccount(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, newPayoutAccountDTO(a))
}

type updatePayoutAccountRequest struct {
	AccountName   string  `json:"accountName"`
	AccountNumber string  `json:"accountNumber"`
	BankName      string  `json:"bankName"`
	SortCode      *string `json:"sortCode"`
}

func (r updatePayoutAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.AccountName == "" {
		errs = append(errs, FieldError{Field: "accountName", Message: "required"})
	}
	if r.AccountNumber == "" {
		errs = append(errs, FieldError{Field: "accountNumber", Message: "required"})
	}
	if r.BankName == "" {
		errs = append(errs, FieldError{Field: "bankName", Message: "required"})
	}
	return errs
}

func (h *AdminHandler) UpdatePayoutAccount(w http.ResponseWriter, r *http.Request) {
	var req updatePayoutAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	a, err := h.transfers.SetPayoutAccount(r.Context(), &domain.PayoutAccount{
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		BankName:      req.BankName,
		SortCode:      req.SortCode,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, newPayoutAccountDTO(a))
}

// parseTransferFilter reads the dashboard filter query parameters. Dates are
// YYYY-MM-DD; endDate is inclusive, so the filter's exclusive bound is the
// start of the following day.
func parseTransferFilter(q url.Values) (domain.TransferFilter, []FieldError) {
	var filter domain.TransferFilter
	var errs []FieldError

	if v := q.Get("userId"); v != "" {
		if _, err := uuid.Parse(v); err != nil {
			errs = append(errs, FieldError{Field: "userId", Message: "must be a valid uuid"})
		} else {
			filter.UserID = &v
		}
	}
	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			errs = append(errs, FieldError{Field: "startDate", Message: "must be YYYY-MM-DD"})
		} else {
			filter.StartDate = &t
		}
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			errs = append(errs, FieldError{Field: "endDate", Message: "must be YYYY-MM-DD"})
		} else {
			end := t.AddDate(0, 0, 1)
			filter.EndDate = &end
		}
	}
	if v := q.Get("reference"); v != "" {
		filter.Reference = &v
	}
	if v := q.Get("currency"); v != "" {
		c := domain.Currency(v)
		if !c.IsValid() {
			errs = append(errs, FieldError{Field: "currency", Message: "must be GBP or NGN"})
		} else {
			filter.Currency = &c
		}
	}
	if v := q.Get("status"); v != "" {
		s := domain.TransferStatus(v)
		if !s.IsValid() {
			errs = append(errs, FieldError{Field: "status", Message: "unknown status"})
		} else {
			filter.Status = &s
		}
	}
	if v := q.Get("recipientName"); v != "" {
		filter.RecipientName = &v
	}
	if v := q.Get("senderName"); v != "" {
		filter.SenderName = &v
	}
	if v := q.Get("minAmount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			errs = append(errs, FieldError{Field: "minAmount", Message: "must be a number"})
		} else {
			filter.MinAmount = &d
		}
	}
	if v := q.Get("maxAmount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			errs = append(errs, FieldError{Field: "maxAmount", Message: "must be a number"})
		} else {
			filter.MaxAmount = &d
		}
	}

	switch v := q.Get("sortBy"); v {
	case "":
		filter.SortBy = domain.SortByCreatedAt
	case string(domain.SortByCreatedAt), string(domain.SortByAmount):
		filter.SortBy = domain.SortKey(v)
	default:
		errs = append(errs, FieldError{Field: "sortBy", Message: "must be createdAt or amount"})
	}

	switch v := q.Get("sortOrder"); v {
	case "":
		filter.SortOrder = domain.SortDesc
	case string(domain.SortAsc), string(domain.SortDesc):
		filter.SortOrder = domain.SortOrder(v)
	default:
		errs = append(errs, FieldError{Field: "sortOrder", Message: "must be asc or desc"})
	}

	return filter, errs
}
