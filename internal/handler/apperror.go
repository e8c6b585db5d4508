package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Admin access required"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount           = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrMissingRecipientDetails = &AppError{http.StatusBadRequest, "MISSING_RECIPIENT_DETAILS", "Recipient bank name, account number and full name are required"}
	ErrUnsupportedPair         = &AppError{http.StatusBadRequest, "UNSUPPORTED_CURRENCY_PAIR", "Only GBP/NGN and NGN/GBP transfers are supported"}
	ErrInvalidStatus           = &AppError{http.StatusBadRequest, "INVALID_STATUS", "Unknown transfer status"}
	ErrInvalidPagination       = &AppError{http.StatusBadRequest, "INVALID_PAGINATION", "Page must be >= 1 and limit between 1 and 100"}
	ErrInvalidRate             = &AppError{http.StatusBadRequest, "INVALID_RATE", "Rate values must be positive and base must exceed markup"}
	ErrEmailTaken              = &AppError{http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists"}
	ErrRateUnavailable         = &AppError{http.StatusServiceUnavailable, "RATE_UNAVAILABLE", "No operating rate is configured"}
	ErrBenchmarkUnavailable    = &AppError{http.StatusBadGateway, "BENCHMARK_UNAVAILABLE", "Upstream benchmark source is unavailable"}
	ErrReferenceExhausted      = &AppError{http.StatusInternalServerError, "REFERENCE_EXHAUSTED", "Could not allocate a unique transfer reference"}
)
