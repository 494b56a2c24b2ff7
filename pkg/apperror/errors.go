package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
// Message is safe to show verbatim to the end user; Err carries the
// internal cause and is only ever logged server-side.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a user-facing bad-request error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrQuantityOutOfRange(min, max int) *AppError {
	return New("VAL_002", fmt.Sprintf("Quantity must be between %d and %d", min, max), http.StatusBadRequest)
}

// ---- Wallet & Settlement (BAL / ORD) ----

func ErrInsufficientBalance() *AppError {
	return New("BAL_001", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrOrderFailedRefunded(err error) *AppError {
	return Wrap("ORD_001", "Order failed, your balance has been refunded", http.StatusBadGateway, err)
}

func ErrRefillUnsupported() *AppError {
	return New("ORD_002", "This service does not support refill", http.StatusBadRequest)
}

func ErrCancelUnsupported() *AppError {
	return New("ORD_003", "This service does not support cancellation", http.StatusBadRequest)
}

func ErrDepositNotPending() *AppError {
	return New("ORD_004", "Deposit has already been resolved", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("ORD_005", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrOrderInFlight() *AppError {
	return New("ORD_006", "An order with this reference is already being processed", http.StatusConflict)
}

// ---- Upstream providers (PROV) ----

// ErrProviderUnavailable deliberately hides upstream detail from the user.
func ErrProviderUnavailable(err error) *AppError {
	return Wrap("PROV_001", "Something went wrong, please try again", http.StatusBadGateway, err)
}

func ErrUnknownProvider(name string) *AppError {
	return New("PROV_002", fmt.Sprintf("Unknown provider %q", name), http.StatusBadRequest)
}

// ErrProviderRejected surfaces the provider's own reason, e.g. for a refill
// request the panel refuses.
func ErrProviderRejected(reason string) *AppError {
	return New("PROV_003", reason, http.StatusUnprocessableEntity)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid email or password", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email is already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired session", http.StatusUnauthorized)
}

func ErrAccountBanned() *AppError {
	return New("AUTH_004", "Account is suspended", http.StatusForbidden)
}

func ErrAdminOnly() *AppError {
	return New("AUTH_005", "Administrator access required", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrTooManyAttempts() *AppError {
	return New("RATE_001", "Too many attempts, try again later", http.StatusTooManyRequests)
}

// ---- System (SYS) ----

// InternalError wraps an internal error with a generic user message.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Something went wrong, please try again", http.StatusInternalServerError, err)
}
