package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperror "github.com/fixora/marketplace/domain/error"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusOK, "ok", map[string]string{"token": "abc"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":true,"message":"ok","data":{"token":"abc"}}`, rec.Body.String())
}

func TestAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
		wantRetry  string
	}{
		{"not found", apperror.ErrNotFound("Provider request"), http.StatusNotFound, "NOT_FOUND", "Provider request not found", ""},
		{"rate limited", apperror.ErrRateLimitExceeded(1500 * time.Millisecond), http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", "2"},
		{"conflict", apperror.ErrConflict("busy", nil), http.StatusConflict, "CONFLICT", "busy", "1"},
		{"plain error hides details", errors.New("pq: password authentication failed"), http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			AppError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantRetry, rec.Header().Get("Retry-After"))
			env := decode(t, rec)
			assert.False(t, env.Status)
			assert.Equal(t, tt.wantCode, env.Code)
			assert.Equal(t, tt.wantMsg, env.Message)
			assert.Nil(t, env.Data)
		})
	}
}
