package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fixora/marketplace/application/port/inbound"
	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/domain/entity"
	apperror "github.com/fixora/marketplace/domain/error"
	"github.com/fixora/marketplace/infrastructure/http/middleware"
	"github.com/fixora/marketplace/infrastructure/http/validator"
	"github.com/fixora/marketplace/infrastructure/service/csrf"
	"github.com/fixora/marketplace/infrastructure/service/logger"
	"github.com/fixora/marketplace/infrastructure/service/metrics"
)

type MockOnboardingUseCase struct {
	mock.Mock
}

func (m *MockOnboardingUseCase) Transition(ctx context.Context, cmd inbound.TransitionCommand) (*inbound.TransitionResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.TransitionResult), args.Error(1)
}

type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Login(ctx context.Context, req inbound.LoginRequest, actor entity.Actor) (*inbound.LoginResponse, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.LoginResponse), args.Error(1)
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func serveTransition(h *OnboardingHandler, id, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/v1/admin/provider-requests/"+id+"/status", strings.NewReader(body))
	r.RemoteAddr = "192.0.2.1:51000"
	r = r.WithContext(middleware.WithUserClaims(r.Context(), &outbound.TokenClaims{UserID: "admin-1", Role: "admin"}))
	r = mux.SetURLVars(r, map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h.TransitionStatus(rec, r)
	return rec
}

func TestOnboardingHandler_TransitionStatus(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		body       string
		mockResult *inbound.TransitionResult
		mockErr    error
		wantTarget entity.ProviderRequestStatus
		wantStatus int
		wantCode   string
		wantCall   bool
	}{
		{
			name:       "approve",
			id:         "req-1",
			body:       `{"status":"approved"}`,
			mockResult: &inbound.TransitionResult{Request: &entity.ProviderRequest{ID: "req-1", Status: entity.ProviderRequestApproved}, ListingCreated: true},
			wantTarget: entity.ProviderRequestApproved,
			wantStatus: http.StatusOK,
			wantCall:   true,
		},
		{
			name:       "status casing and padding are normalized",
			id:         "req-2",
			body:       `{"status":" Rejected "}`,
			mockResult: &inbound.TransitionResult{Request: &entity.ProviderRequest{ID: "req-2", Status: entity.ProviderRequestRejected}},
			wantTarget: entity.ProviderRequestRejected,
			wantStatus: http.StatusOK,
			wantCall:   true,
		},
		{
			name:       "missing status",
			id:         "req-1",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "unknown status",
			id:         "req-1",
			body:       `{"status":"ARCHIVED"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "not found",
			id:         "missing",
			body:       `{"status":"REJECTED"}`,
			mockErr:    apperror.ErrNotFound("Provider request"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantCall:   true,
		},
		{
			name:       "conflict",
			id:         "req-1",
			body:       `{"status":"APPROVED"}`,
			mockErr:    apperror.ErrConflict("busy", nil),
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
			wantCall:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := new(MockOnboardingUseCase)
			m := metrics.New()
			if tt.wantCall {
				uc.On("Transition", mock.Anything, mock.MatchedBy(func(cmd inbound.TransitionCommand) bool {
					if tt.wantTarget != "" && cmd.Target != tt.wantTarget {
						return false
					}
					return cmd.RequestID == tt.id && cmd.Actor.UserID == "admin-1" && cmd.Actor.IP == "192.0.2.1"
				})).Return(tt.mockResult, tt.mockErr)
			}
			h := NewOnboardingHandler(uc, validator.New(), m)

			rec := serveTransition(h, tt.id, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decode(t, rec)
			assert.Equal(t, tt.wantCode, env.Code)
			if tt.wantCall {
				uc.AssertExpectations(t)
			} else {
				uc.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything)
			}
			if tt.wantStatus == http.StatusOK {
				assert.True(t, env.Status)
				assert.Equal(t, 1.0, testutil.ToFloat64(m.TransitionCounter(string(tt.wantTarget), "OK")))
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	uc := new(MockAuthUseCase)
	uc.On("Login", mock.Anything, inbound.LoginRequest{Email: "admin@example.com", Password: "correct-horse"}, mock.AnythingOfType("entity.Actor")).
		Return(&inbound.LoginResponse{AccessToken: "jwt", ExpiresIn: 3600, User: inbound.MeResponse{ID: "admin-1", Role: "admin"}}, nil)
	uc.On("Login", mock.Anything, inbound.LoginRequest{Email: "admin@example.com", Password: "wrong-horse"}, mock.AnythingOfType("entity.Actor")).
		Return(nil, apperror.ErrUnauthorized("Invalid email or password"))
	h := NewAuthHandler(uc, validator.New())

	send := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body)))
		return rec
	}

	rec := send(`{"email":"admin@example.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token":"jwt"`)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = send(`{"email":"admin@example.com","password":"wrong-horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec).Code)

	rec = send(`{"email":"not-an-email","password":"correct-horse"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(`not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCsrfHandler_Token(t *testing.T) {
	svc := csrf.NewCsrfService(csrf.Config{CookieName: "csrf_token", HeaderName: "X-CSRF-Token"})
	h := NewCsrfHandler(svc, logger.NewNop())

	t.Run("mints a token and sets a script-readable cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Token(rec, httptest.NewRequest(http.MethodGet, "/v1/csrf-token", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "csrf_token", cookies[0].Name)
		assert.False(t, cookies[0].HttpOnly)
		assert.Len(t, cookies[0].Value, 64)

		var body struct {
			Data CsrfTokenResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, cookies[0].Value, body.Data.Token)
		assert.Equal(t, "X-CSRF-Token", body.Data.HeaderName)
	})

	t.Run("reuses an existing cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/csrf-token", nil)
		r.AddCookie(&http.Cookie{Name: "csrf_token", Value: "existing"})
		rec := httptest.NewRecorder()
		h.Token(rec, r)

		assert.Contains(t, rec.Body.String(), `"token":"existing"`)
	})
}
