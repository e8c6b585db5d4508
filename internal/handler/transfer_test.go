package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftremit/backend/internal/auth"
	"github.com/shiftremit/backend/internal/domain"
	"github.com/shiftremit/backend/internal/service/transfer"
)

type fakeTransferService struct {
	createResult *transfer.CreateResult
	createErr    error
	lastFilter   domain.TransferFilter
	lastPage     domain.Page
	getResult    *domain.Transfer
	getErr       error
}

func (f *fakeTransferService) Create(ctx context.Context, input transfer.CreateInput) (*transfer.CreateResult, error) {
	return f.createResult, f.createErr
}

func (f *fakeTransferService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	return f.getResult, f.getErr
}

func (f *fakeTransferService) List(ctx context.Context, filter domain.TransferFilter, page domain.Page) ([]domain.TransferWithSender, int64, error) {
	f.lastFilter = filter
	f.lastPage = page
	return nil, 0, nil
}

func authedRequest(method, target string, body string, claims *auth.Claims) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return r.WithContext(auth.ContextWithClaims(r.Context(), claims))
}

func customerClaims() *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Email: "sam@example.com", Role: domain.UserRoleCustomer}
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestTransferCreateValidation(t *testing.T) {
	valid := map[string]any{
		"amount":                 "100",
		"fromCurrency":           "GBP",
		"toCurrency":             "NGN",
		"recipientBankName":      "GTBank",
		"recipientAccountNumber": "0123456789",
		"recipientFullName":      "Ada Obi",
	}

	tests := []struct {
		name      string
		mutate    func(map[string]any)
		wantField string
	}{
		{
			name:      "zero amount",
			mutate:    func(m map[string]any) { m["amount"] = "0" },
			wantField: "amount",
		},
		{
			name:      "unknown currency",
			mutate:    func(m map[string]any) { m["fromCurrency"] = "USD" },
			wantField: "fromCurrency",
		},
		{
			name:      "missing recipient bank",
			mutate:    func(m map[string]any) { delete(m, "recipientBankName") },
			wantField: "recipientBankName",
		},
		{
			name:      "non-positive rate override",
			mutate:    func(m map[string]any) { m["rate"] = "-1" },
			wantField: "rate",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := map[string]any{}
			for k, v := range valid {
				payload[k] = v
			}
			tc.mutate(payload)
			body, err := json.Marshal(payload)
			require.NoError(t, err)

			h := NewTransferHandler(&fakeTransferService{})
			w := httptest.NewRecorder()
			h.Create(w, authedRequest(http.MethodPost, "/api/transfers", string(body), customerClaims()))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			raw := w.Body.String()
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
			assert.Contains(t, raw, tc.wantField)
		})
	}
}

func TestTransferCreateMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantHTTP int
	}{
		{"rate unavailable", domain.ErrRateUnavailable, "RATE_UNAVAILABLE", http.StatusServiceUnavailable},
		{"unsupported pair", domain.ErrUnsupportedCurrencyPair, "UNSUPPORTED_CURRENCY_PAIR", http.StatusBadRequest},
		{"reference exhausted", domain.ErrReferenceExhausted, "REFERENCE_EXHAUSTED", http.StatusInternalServerError},
	}

	body := `{"amount":"100","fromCurrency":"GBP","toCurrency":"NGN",
		"recipientBankName":"GTBank","recipientAccountNumber":"0123456789","recipientFullName":"Ada Obi"}`

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewTransferHandler(&fakeTransferService{createErr: tc.err})
			w := httptest.NewRecorder()
			h.Create(w, authedRequest(http.MethodPost, "/api/transfers", body, customerClaims()))

			assert.Equal(t, tc.wantHTTP, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestTransferListScopedToCaller(t *testing.T) {
	svc := &fakeTransferService{}
	h := NewTransferHandler(svc)
	claims := customerClaims()

	w := httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/api/transfers?page=2&limit=25", "", claims))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastFilter.UserID)
	assert.Equal(t, claims.UserID.String(), *svc.lastFilter.UserID,
		"customer listing is always scoped to the caller")
	assert.Equal(t, domain.Page{Number: 2, Size: 25}, svc.lastPage)
}

func TestTransferGetHidesForeignTransfers(t *testing.T) {
	foreign := sampleDomainTransfer()
	svc := &fakeTransferService{getResult: foreign}
	h := NewTransferHandler(svc)

	w := httptest.NewRecorder()
	h.Get(w, authedRequest(http.MethodGet, "/api/transfers/"+foreign.ID.String(), "", customerClaims()))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func sampleDomainTransfer() *domain.Transfer {
	return &domain.Transfer{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Amount:         decimal.RequireFromString("100"),
		FromCurrency:   domain.CurrencyGBP,
		ToCurrency:     domain.CurrencyNGN,
		ConversionRate: decimal.RequireFromString("1965"),
		Status:         domain.TransferStatusPending,
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    domain.Page
		wantErr bool
	}{
		{name: "defaults", query: "", want: domain.Page{Number: 1, Size: domain.DefaultPageSize}},
		{name: "explicit values", query: "page=3&limit=50", want: domain.Page{Number: 3, Size: 50}},
		{name: "limit at max", query: "limit=100", want: domain.Page{Number: 1, Size: 100}},
		{name: "page zero rejected", query: "page=0", wantErr: true},
		{name: "limit above max rejected", query: "limit=101", wantErr: true},
		{name: "limit zero rejected", query: "limit=0", wantErr: true},
		{name: "non-numeric page rejected", query: "page=abc", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)

			page, appErr := parsePage(q)
			if tc.wantErr {
				require.NotNil(t, appErr)
				assert.Equal(t, ErrInvalidPagination, appErr)
				return
			}
			require.Nil(t, appErr)
			assert.Equal(t, tc.want, page)
		})
	}
}

func TestParseTransferFilter(t *testing.T) {
	t.Run("end date becomes exclusive next-day bound", func(t *testing.T) {
		q, _ := url.ParseQuery("startDate=2026-08-01&endDate=2026-08-31")
		filter, fields := parseTransferFilter(q)
		require.Empty(t, fields)

		require.NotNil(t, filter.StartDate)
		require.NotNil(t, filter.EndDate)
		assert.Equal(t, "2026-08-01", filter.StartDate.Format("2006-01-02"))
		assert.Equal(t, "2026-09-01", filter.EndDate.Format("2006-01-02"))
	})

	t.Run("invalid values collect field errors", func(t *testing.T) {
		q, _ := url.ParseQuery("status=SHIPPED&currency=USD&minAmount=ten&sortBy=size")
		_, fields := parseTransferFilter(q)

		got := map[string]bool{}
		for _, f := range fields {
			got[f.Field] = true
		}
		assert.True(t, got["status"])
		assert.True(t, got["currency"])
		assert.True(t, got["minAmount"])
		assert.True(t, got["sortBy"])
	})

	t.Run("defaults sort newest first", func(t *testing.T) {
		filter, fields := parseTransferFilter(url.Values{})
		require.Empty(t, fields)
		assert.Equal(t, domain.SortByCreatedAt, filter.SortBy)
		assert.Equal(t, domain.SortDesc, filter.SortOrder)
	})
}
