package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fixora/marketplace/application/port/inbound"
	apperror "github.com/fixora/marketplace/domain/error"
	"github.com/fixora/marketplace/infrastructure/config"
	"github.com/fixora/marketplace/infrastructure/http/response"
	"github.com/fixora/marketplace/infrastructure/service/logger"
	"github.com/fixora/marketplace/infrastructure/service/metrics"
	"github.com/fixora/marketplace/infrastructure/service/ratelimit"
)

type RateLimitMiddleware struct {
	limiter inbound.RateLimiter
	metrics *metrics.Metrics
	logger  logger.Logger
	now     func() time.Time
}

func NewRateLimitMiddleware(limiter inbound.RateLimiter, m *metrics.Metrics, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		metrics: m,
		logger:  log,
		now:     time.Now,
	}
}

// Limit applies policy to operation, keyed by the authenticated user when
// there is one and by client IP otherwise.
func (m *RateLimitMiddleware) Limit(operation string, policy config.RateLimitPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity := CallerIdentity(r)
			key := ratelimit.Key(operation, identity)

			decision := m.limiter.Check(ctx, key, policy.Limit, policy.Window)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				m.metrics.RateLimited(operation)
				logger.LogSecurityEvent(ctx, m.logger, "rate_limit_exceeded", "MEDIUM", map[string]interface{}{
					"operation": operation,
					"identity":  identity,
					"path":      r.URL.Path,
					"userAgent": r.UserAgent(),
				})
				response.AppError(w, apperror.ErrRateLimitExceeded(decision.RetryAfter(m.now())))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CallerIdentity is "user:<id>" for authenticated callers, else "ip:<addr>".
func CallerIdentity(r *http.Request) string {
	if claims := GetUserClaims(r.Context()); claims != nil && claims.UserID != "" {
		return "user:" + claims.UserID
	}
	return "ip:" + ClientIP(r)
}
