package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fixora/marketplace/infrastructure/config"
	"github.com/fixora/marketplace/infrastructure/http/handler"
	"github.com/fixora/marketplace/infrastructure/http/middleware"
	"github.com/fixora/marketplace/infrastructure/http/response"
	"github.com/fixora/marketplace/infrastructure/service/logger"
	"github.com/fixora/marketplace/infrastructure/service/metrics"
)

// Operation names double as rate-limit bucket prefixes.
const (
	OperationLogin      = "auth.login"
	OperationTransition = "onboarding.transition"
)

type RouterDeps struct {
	Logger            logger.Logger
	Metrics           *metrics.Metrics
	ClientIP          *middleware.ClientIPResolver
	Auth              *middleware.AuthMiddleware
	Pipeline          *middleware.Pipeline
	CsrfHandler       *handler.CsrfHandler
	AuthHandler       *handler.AuthHandler
	OnboardingHandler *handler.OnboardingHandler

	LoginRateLimit      config.RateLimitPolicy
	OnboardingRateLimit config.RateLimitPolicy
}

// NewRouter builds the route table. Every mutating route goes through the
// CSRF + rate-limit pipeline; the admin route authenticates first so the
// limit is keyed by the acting admin.
func NewRouter(d RouterDeps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.CorrelationIDMiddleware, d.ClientIP.Middleware, middleware.Recovery(d.Logger))

	r.HandleFunc("/health", health).Methods(http.MethodGet)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/csrf-token", d.CsrfHandler.Token).Methods(http.MethodGet)
	v1.Handle("/auth/login",
		d.Pipeline.Mutating(OperationLogin, d.LoginRateLimit, http.HandlerFunc(d.AuthHandler.Login)),
	).Methods(http.MethodPost)
	v1.Handle("/admin/provider-requests/{id}/status",
		d.Auth.RequireAdmin(
			d.Pipeline.Mutating(OperationTransition, d.OnboardingRateLimit, http.HandlerFunc(d.OnboardingHandler.TransitionStatus)),
		),
	).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, http.StatusOK, "healthy", map[string]string{"status": "healthy"})
}
