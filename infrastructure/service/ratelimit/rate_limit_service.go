package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/fixora/marketplace/application/port/inbound"
	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/infrastructure/service/logger"
)

// Key builds the bucket key for an operation and caller identity,
// e.g. "onboarding.transition:user:42".
func Key(operation, identity string) string {
	return fmt.Sprintf("%s:%s", operation, identity)
}

// RateLimitService is a fixed-window limiter over a BucketStore. Limits and
// windows are supplied per call so each endpoint carries its own policy.
type RateLimitService struct {
	store  outbound.BucketStore
	logger logger.Logger
	now    func() time.Time
}

func NewRateLimitService(store outbound.BucketStore, log logger.Logger) *RateLimitService {
	return &RateLimitService{
		store:  store,
		logger: log,
		now:    time.Now,
	}
}

// Check counts one call against key. When the store is unreachable the call
// is allowed and the failure logged.
func (s *RateLimitService) Check(ctx context.Context, key string, limit int, window time.Duration) inbound.RateLimitDecision {
	bucket, err := s.store.Take(ctx, key, limit, window)
	if err != nil {
		s.logger.Error(ctx, "Failed to check rate limit", err, map[string]interface{}{
			"key": key,
		})
		return inbound.RateLimitDecision{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetAt:   s.now().Add(window),
		}
	}

	remaining := limit - bucket.Count
	if remaining < 0 {
		remaining = 0
	}

	return inbound.RateLimitDecision{
		Allowed:   bucket.Allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   bucket.ResetAt,
	}
}

// noopRateLimitService is used when rate limiting is disabled
type noopRateLimitService struct{}

func NewNoopRateLimitService() inbound.RateLimiter {
	return noopRateLimitService{}
}

func (noopRateLimitService) Check(_ context.Context, _ string, limit int, window time.Duration) inbound.RateLimitDecision {
	return inbound.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit, ResetAt: time.Now().Add(window)}
}
