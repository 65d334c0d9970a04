package inbound

import (
	"context"
	"time"

	"github.com/fixora/marketplace/domain/entity"
)

// RateLimitDecision is the outcome of one rate-limit check.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long a rejected caller should wait, never below one second.
func (d RateLimitDecision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait < time.Second {
		return time.Second
	}
	return wait
}

// RateLimiter defines fixed-window rate limiting used by the request pipeline
// Implemented by infrastructure/service/ratelimit
type RateLimiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) RateLimitDecision
}

// CsrfGuard defines double-submit token issuance and validation
// Implemented by infrastructure/service/csrf
type CsrfGuard interface {
	Issue() (string, error)
	Validate(cookieToken, headerToken, method string) bool
}

// AuditSink records privileged actions. Record never fails the caller.
// Implemented by infrastructure/service/audit
type AuditSink interface {
	Record(ctx context.Context, record entity.AuditRecord)
}
