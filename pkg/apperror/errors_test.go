package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New("VAL_001", "bad input", http.StatusBadRequest)
	assert.Equal(t, "[VAL_001] bad input", e.Error())

	wrapped := Wrap("SYS_001", "internal", http.StatusInternalServerError, errors.New("boom"))
	assert.Equal(t, "[SYS_001] internal: boom", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	e := ErrProviderUnavailable(fmt.Errorf("placing order: %w", cause))
	assert.True(t, errors.Is(e, cause))

	var appErr *AppError
	assert.True(t, errors.As(error(e), &appErr))
	assert.Equal(t, "PROV_001", appErr.Code)
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		err    *AppError
		code   string
		status int
	}{
		{ErrInsufficientBalance(), "BAL_001", http.StatusPaymentRequired},
		{ErrOrderFailedRefunded(errors.New("x")), "ORD_001", http.StatusBadGateway},
		{ErrRefillUnsupported(), "ORD_002", http.StatusBadRequest},
		{ErrNotFound("order"), "ORD_005", http.StatusNotFound},
		{ErrProviderUnavailable(errors.New("x")), "PROV_001", http.StatusBadGateway},
		{ErrUnknownProvider("acme"), "PROV_002", http.StatusBadRequest},
		{ErrInvalidCredentials(), "AUTH_001", http.StatusUnauthorized},
		{ErrEmailExists(), "AUTH_002", http.StatusConflict},
		{ErrInvalidToken(), "AUTH_003", http.StatusUnauthorized},
		{ErrAccountBanned(), "AUTH_004", http.StatusForbidden},
		{ErrAdminOnly(), "AUTH_005", http.StatusForbidden},
		{ErrTooManyAttempts(), "RATE_001", http.StatusTooManyRequests},
		{ErrQuantityOutOfRange(100, 5000), "VAL_002", http.StatusBadRequest},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.code, tc.err.Code)
		assert.Equal(t, tc.status, tc.err.HTTPStatus)
	}
}

func TestUserFacingMessages(t *testing.T) {
	// Upstream provider internals must never leak into the message.
	e := ErrProviderUnavailable(errors.New("panel says: key invalid"))
	assert.NotContains(t, e.Message, "key invalid")
	assert.Equal(t, "Something went wrong, please try again", e.Message)

	assert.Equal(t, "Order failed, your balance has been refunded",
		ErrOrderFailedRefunded(errors.New("timeout")).Message)
	assert.Equal(t, "Insufficient balance", ErrInsufficientBalance().Message)
}
