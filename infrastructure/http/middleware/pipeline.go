package middleware

import (
	"net/http"

	"github.com/fixora/marketplace/infrastructure/config"
)

// Pipeline wraps every mutating endpoint: the CSRF check runs first, then
// the rate limit, then the handler. Either check can reject the request
// before business logic runs.
type Pipeline struct {
	csrf      *CSRFMiddleware
	rateLimit *RateLimitMiddleware
}

func NewPipeline(csrf *CSRFMiddleware, rateLimit *RateLimitMiddleware) *Pipeline {
	return &Pipeline{csrf: csrf, rateLimit: rateLimit}
}

func (p *Pipeline) Mutating(operation string, policy config.RateLimitPolicy, h http.Handler) http.Handler {
	return p.csrf.Protect(p.rateLimit.Limit(operation, policy)(h))
}
