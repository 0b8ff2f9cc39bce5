package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCodes(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeMediaNotFound, http.StatusNotFound},
		{ErrCodeInvalidState, http.StatusConflict},
		{ErrCodeIndexBusy, http.StatusConflict},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeRateLimit, http.StatusTooManyRequests},
		{ErrCodeTranscode, http.StatusBadGateway},
		{ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").GetHTTPCode())
		})
	}
}

func TestWrappedAppError(t *testing.T) {
	cause := fmt.Errorf("boom")
	appErr := Wrap(cause, ErrCodeInternal, "query failed")
	wrapped := fmt.Errorf("listing clips: %w", appErr)

	var got *AppError
	require.True(t, stderrors.As(wrapped, &got))
	assert.Equal(t, ErrCodeInternal, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.GetHTTPCode())
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, appErr.Error(), "caused by: boom")
}

func TestConstructorDetails(t *testing.T) {
	missing := MissingFieldError("q")
	assert.Equal(t, ErrCodeMissingField, missing.Code)
	assert.Equal(t, "q", missing.Details["field"])
	assert.Equal(t, http.StatusBadRequest, missing.GetHTTPCode())

	limited := RateLimitError("search", "60/min")
	assert.Equal(t, http.StatusTooManyRequests, limited.GetHTTPCode())
	assert.Equal(t, "60/min", limited.Details["limit"])

	withCause := New(ErrCodeTranscode, "ffmpeg failed").WithCause(fmt.Errorf("exit status 1"))
	assert.ErrorContains(t, withCause, "exit status 1")
}

func TestInvalidState(t *testing.T) {
	err := InvalidState("clip request", "abc", "processing")
	assert.Equal(t, "clip request is processing", err.Message)
	assert.Equal(t, "abc", err.Details["id"])
	assert.Equal(t, http.StatusConflict, err.GetHTTPCode())
}
