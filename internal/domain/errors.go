package domain

import "errors"

var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrMissingRecipientDetails = errors.New("missing required recipient details")
	ErrUnsupportedCurrencyPair = errors.New("unsupported currency pair")
	ErrRateUnavailable         = errors.New("exchange rate data is unavailable")
	ErrReferenceExhausted      = errors.New("transfer reference generation exhausted retry budget")
	ErrReferenceTaken          = errors.New("transfer reference already taken")
	ErrInvalidStatus           = errors.New("invalid transfer status")
	ErrInvalidPagination       = errors.New("invalid pagination parameters")
	ErrBenchmarkUnavailable    = errors.New("upstream benchmark rate unavailable")
	ErrInvalidRate             = errors.New("invalid rate values")
	ErrEmailTaken              = errors.New("email already registered")
)
