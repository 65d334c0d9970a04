package outbound

import (
	"context"
	"time"
)

// Bucket is the state of one fixed-window counter after a Take.
type Bucket struct {
	Count   int
	ResetAt time.Time
	Allowed bool
}

// BucketStore owns the rate-limit counters. Take must perform the
// check-and-increment for key as one atomic step: start a new window with
// count 1 when none exists or the current one elapsed, otherwise increment
// only while the count is below limit.
type BucketStore interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) (Bucket, error)
}
