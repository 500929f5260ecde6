package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pawmart/storefront/pkg/errors"
)

func responseWith(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_StructuredBody(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"not found", http.StatusNotFound, apperrors.ErrNotFound},
		{"bad request", http.StatusBadRequest, apperrors.ErrInvalidInput},
		{"unprocessable", http.StatusUnprocessableEntity, apperrors.ErrInvalidInput},
		{"conflict", http.StatusConflict, apperrors.ErrConflict},
		{"unauthorized", http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, apperrors.ErrForbidden},
		{"gone", http.StatusGone, apperrors.ErrGone},
		{"rate limited", http.StatusTooManyRequests, apperrors.ErrRateLimited},
		{"unavailable", http.StatusServiceUnavailable, apperrors.ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := responseWith(tt.status, `{"error":{"code":"X","message":"boom"}}`)
			err := ParseResponseError(resp, "wishlist-api")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), "wishlist-api: boom")
		})
	}
}

func TestParseResponseError_UnstructuredServerError(t *testing.T) {
	err := ParseResponseError(responseWith(http.StatusBadGateway, "upstream down"), "wishlist-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestParseResponseError_UnknownClientStatus(t *testing.T) {
	err := ParseResponseError(responseWith(http.StatusTeapot, ""), "wishlist-api")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusTeapot, appErr.Status)
	assert.Equal(t, http.StatusText(http.StatusTeapot), appErr.Code)
}
