package middleware

import (
	"net/http"

	"github.com/fixora/marketplace/application/port/inbound"
	"github.com/fixora/marketplace/infrastructure/http/response"
	"github.com/fixora/marketplace/infrastructure/service/logger"
	"github.com/fixora/marketplace/infrastructure/service/metrics"
)

// CsrfTokens is a CsrfGuard that also knows where the tokens travel.
type CsrfTokens interface {
	inbound.CsrfGuard
	CookieName() string
	HeaderName() string
}

type CSRFMiddleware struct {
	guard   CsrfTokens
	metrics *metrics.Metrics
	logger  logger.Logger
}

func NewCSRFMiddleware(guard CsrfTokens, m *metrics.Metrics, log logger.Logger) *CSRFMiddleware {
	return &CSRFMiddleware{guard: guard, metrics: m, logger: log}
}

// Protect rejects unsafe requests whose cookie and header tokens are missing
// or differ. Rejection happens before the wrapped handler is reached.
func (m *CSRFMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cookieToken string
		if c, err := r.Cookie(m.guard.CookieName()); err == nil {
			cookieToken = c.Value
		}
		headerToken := r.Header.Get(m.guard.HeaderName())

		if !m.guard.Validate(cookieToken, headerToken, r.Method) {
			m.metrics.CSRFRejected()
			logger.LogSecurityEvent(r.Context(), m.logger, "csrf_rejected", "MEDIUM", map[string]interface{}{
				"ip":         ClientIP(r),
				"path":       r.URL.Path,
				"method":     r.Method,
				"has_cookie": cookieToken != "",
				"has_header": headerToken != "",
			})
			response.Forbidden(w, "Invalid or missing CSRF token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
