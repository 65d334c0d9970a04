package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixora/marketplace/application/port/inbound"
	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/domain/entity"
	"github.com/fixora/marketplace/infrastructure/config"
	"github.com/fixora/marketplace/infrastructure/http/handler"
	"github.com/fixora/marketplace/infrastructure/http/middleware"
	"github.com/fixora/marketplace/infrastructure/http/validator"
	"github.com/fixora/marketplace/infrastructure/service/csrf"
	jwtservice "github.com/fixora/marketplace/infrastructure/service/jwt"
	"github.com/fixora/marketplace/infrastructure/service/logger"
	"github.com/fixora/marketplace/infrastructure/service/metrics"
	"github.com/fixora/marketplace/infrastructure/service/ratelimit"
)

type stubAuth struct{}

func (stubAuth) Login(context.Context, inbound.LoginRequest, entity.Actor) (*inbound.LoginResponse, error) {
	return &inbound.LoginResponse{AccessToken: "token", ExpiresIn: 3600}, nil
}

type stubOnboarding struct {
	calls int
}

func (s *stubOnboarding) Transition(_ context.Context, cmd inbound.TransitionCommand) (*inbound.TransitionResult, error) {
	s.calls++
	return &inbound.TransitionResult{Request: &entity.ProviderRequest{ID: cmd.RequestID, Status: cmd.Target}}, nil
}

type testServer struct {
	router     http.Handler
	tokens     *jwtservice.JWTService
	onboarding *stubOnboarding
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewNop()
	m := metrics.New()
	tokens, err := jwtservice.NewJWTService("router-test-secret", time.Hour)
	require.NoError(t, err)

	guard := csrf.NewCsrfService(csrf.Config{})
	limiter := ratelimit.NewRateLimitService(ratelimit.NewMemoryStore(), log)
	onboarding := &stubOnboarding{}
	v := validator.New()
	clientIP, err := middleware.NewClientIPResolver(nil)
	require.NoError(t, err)

	router := NewRouter(RouterDeps{
		Logger:   log,
		Metrics:  m,
		ClientIP: clientIP,
		Auth:     middleware.NewAuthMiddleware(tokens, log),
		Pipeline: middleware.NewPipeline(middleware.NewCSRFMiddleware(guard, m, log), middleware.NewRateLimitMiddleware(limiter, m, log)),

		CsrfHandler:       handler.NewCsrfHandler(guard, log),
		AuthHandler:       handler.NewAuthHandler(stubAuth{}, v),
		OnboardingHandler: handler.NewOnboardingHandler(onboarding, v, m),

		LoginRateLimit:      config.RateLimitPolicy{Limit: 2, Window: time.Minute},
		OnboardingRateLimit: config.RateLimitPolicy{Limit: 5, Window: time.Minute},
	})
	return &testServer{router: router, tokens: tokens, onboarding: onboarding}
}

func (s *testServer) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)
	return rec
}

func (s *testServer) csrfToken(t *testing.T) string {
	t.Helper()
	rec := s.do(httptest.NewRequest(http.MethodGet, "/v1/csrf-token", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0].Value
}

func (s *testServer) bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := s.tokens.GenerateAccessToken(outbound.TokenClaims{UserID: "u-" + role, Email: role + "@example.com", Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func mutating(method, path, body, csrfToken string) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if csrfToken != "" {
		r.AddCookie(&http.Cookie{Name: "csrf_token", Value: csrfToken})
		r.Header.Set("X-CSRF-Token", csrfToken)
	}
	return r
}

const loginBody = `{"email":"admin@example.com","password":"correct-horse"}`

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":false`)
}

func TestRouter_LoginRequiresCsrf(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(mutating(http.MethodPost, "/v1/auth/login", loginBody, ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))

	token := s.csrfToken(t)
	rec = s.do(mutating(http.MethodPost, "/v1/auth/login", loginBody, token))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRouter_LoginRateLimited(t *testing.T) {
	s := newTestServer(t)
	token := s.csrfToken(t)

	for i := 0; i < 2; i++ {
		rec := s.do(mutating(http.MethodPost, "/v1/auth/login", loginBody, token))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(mutating(http.MethodPost, "/v1/auth/login", loginBody, token))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, rec.Body.String(), `"code":"RATE_LIMITED"`)
}

func TestRouter_LoginLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	s := newTestServer(t)
	token := s.csrfToken(t)

	codes := make([]int, 0, 5)
	for i := 1; i <= 5; i++ {
		r := mutating(http.MethodPost, "/v1/auth/login", loginBody, token)
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		codes = append(codes, s.do(r).Code)
	}

	assert.Equal(t, []int{
		http.StatusOK, http.StatusOK,
		http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}

func TestRouter_AdminTransition(t *testing.T) {
	const path = "/v1/admin/provider-requests/req-1/status"
	body := `{"status":"APPROVED"}`

	t.Run("no token", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(mutating(http.MethodPost, path, body, s.csrfToken(t)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, s.onboarding.calls)
	})

	t.Run("non-admin", func(t *testing.T) {
		s := newTestServer(t)
		r := mutating(http.MethodPost, path, body, s.csrfToken(t))
		r.Header.Set("Authorization", s.bearer(t, entity.RoleProvider))
		rec := s.do(r)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Zero(t, s.onboarding.calls)
	})

	t.Run("admin without csrf", func(t *testing.T) {
		s := newTestServer(t)
		r := mutating(http.MethodPost, path, body, "")
		r.Header.Set("Authorization", s.bearer(t, entity.RoleAdmin))
		rec := s.do(r)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Zero(t, s.onboarding.calls)
	})

	t.Run("admin", func(t *testing.T) {
		s := newTestServer(t)
		r := mutating(http.MethodPost, path, body, s.csrfToken(t))
		r.Header.Set("Authorization", s.bearer(t, entity.RoleAdmin))
		rec := s.do(r)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, s.onboarding.calls)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
		assert.Contains(t, rec.Body.String(), `"status":"APPROVED"`)
	})
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/v1/auth/login", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
