package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Sentinel error identity ---

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInvalidInput, ErrUnauthorized, ErrInternal, ErrConflict,
		ErrGone, ErrServiceUnavail, ErrMisconfigured, ErrResolution,
		ErrGatewayRejected, ErrGateway, ErrMalformedResponse, ErrRateLimited,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

// --- AppError behavior ---

func TestAppError_ErrorString_WithWrappedError(t *testing.T) {
	inner := fmt.Errorf("connection reset")
	appErr := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: inner}
	assert.Contains(t, appErr.Error(), "INTERNAL_ERROR")
	assert.Contains(t, appErr.Error(), "something broke")
	assert.Contains(t, appErr.Error(), "connection reset")
}

func TestAppError_ErrorString_WithoutWrappedError(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "cart not found"}
	assert.Equal(t, "NOT_FOUND: cart not found", appErr.Error())
}

func TestAppError_Unwrap_Nil(t *testing.T) {
	appErr := &AppError{Code: "TEST", Message: "test"}
	assert.Nil(t, appErr.Unwrap())
}

// --- Constructors ---

func TestNotFound(t *testing.T) {
	err := NotFound("cart", "sess-1")
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Contains(t, err.Message, "sess-1")
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConflictAndGone(t *testing.T) {
	c := Conflict("modified concurrently")
	assert.Equal(t, http.StatusConflict, c.Status)
	assert.ErrorIs(t, c, ErrConflict)

	g := Gone("expired")
	assert.Equal(t, http.StatusGone, g.Status)
	assert.ErrorIs(t, g, ErrGone)
}

func TestMisconfigured(t *testing.T) {
	err := Misconfigured("SHOPIFY_STORE_DOMAIN is not set")
	assert.Equal(t, "CONFIGURATION_ERROR", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, ErrMisconfigured)
}

func TestResolutionFailed_NamesProductsSorted(t *testing.T) {
	err := ResolutionFailed(
		map[string]string{
			"gid://shopify/Product/2": "variant lookup failed",
			"gid://shopify/Product/1": "no variants",
		},
		map[string]string{"gid://shopify/Product/2": "Red Mug"},
	)

	assert.Equal(t, "RESOLUTION_FAILED", err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Equal(t, "could not prepare checkout for: gid://shopify/Product/1, Red Mug", err.Message)
	assert.Len(t, err.Fields, 2)
	assert.ErrorIs(t, err, ErrResolution)
}

func TestGatewayRejected_KeepsFieldsVerbatim(t *testing.T) {
	err := GatewayRejected(map[string]string{
		"input.lines.0.merchandiseId": "The merchandise with id 1 does not exist.",
	})

	assert.Equal(t, "GATEWAY_REJECTED", err.Code)
	assert.Equal(t, "input.lines.0.merchandiseId: The merchandise with id 1 does not exist.", err.Message)
	assert.Equal(t, "The merchandise with id 1 does not exist.", err.Fields["input.lines.0.merchandiseId"])
}

func TestGateway_HidesCause(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := Gateway(cause)

	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.NotContains(t, err.Message, "i/o timeout")
	assert.ErrorIs(t, err, ErrGateway)
	assert.ErrorIs(t, err, cause)
}

func TestMalformedResponse(t *testing.T) {
	err := MalformedResponse(errors.New("missing cart"))
	assert.Equal(t, "MALFORMED_RESPONSE", err.Code)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

// --- HTTPStatus ---

func TestHTTPStatus_AppError(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(RateLimited("slow down")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ServiceUnavailable("open")))
}

func TestHTTPStatus_WrappedSentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("x: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", ErrConflict), http.StatusConflict},
		{fmt.Errorf("x: %w", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("x: %w", ErrResolution), http.StatusUnprocessableEntity},
		{fmt.Errorf("x: %w", ErrGateway), http.StatusBadGateway},
		{fmt.Errorf("x: %w", ErrServiceUnavail), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrNotFound, "load cart")
	require.Error(t, err)
	assert.Equal(t, "load cart: resource not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithCause_KeepsSentinel(t *testing.T) {
	cause := fmt.Errorf("storefront returned status 401")
	err := Misconfigured("token rejected").WithCause(cause)

	assert.ErrorIs(t, err, ErrMisconfigured)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "CONFIGURATION_ERROR", err.Code)
	assert.Contains(t, err.Error(), "status 401")

	plain := ServiceUnavailable("down").WithCause(nil)
	assert.Equal(t, ErrServiceUnavail, plain.Err)
}
