package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/fixora/marketplace/application/port/outbound"
)

type memoryBucket struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps fixed-window buckets in process. All access goes through
// one mutex, which makes Take atomic per key. The table is bounded by
// maxBuckets and swept of expired windows by StartJanitor.
type MemoryStore struct {
	mu         sync.Mutex
	buckets    map[string]*memoryBucket
	maxBuckets int
	now        func() time.Time
}

type MemoryStoreOption func(*MemoryStore)

// WithMaxBuckets bounds the number of live buckets. Zero means unbounded.
func WithMaxBuckets(n int) MemoryStoreOption {
	return func(s *MemoryStore) { s.maxBuckets = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		buckets: make(map[string]*memoryBucket),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ outbound.BucketStore = (*MemoryStore)(nil)

func (s *MemoryStore) Take(_ context.Context, key string, limit int, window time.Duration) (outbound.Bucket, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		if !ok && s.maxBuckets > 0 && len(s.buckets) >= s.maxBuckets {
			s.evictLocked(now)
		}
		b = &memoryBucket{count: 1, resetAt: now.Add(window)}
		s.buckets[key] = b
		return outbound.Bucket{Count: 1, ResetAt: b.resetAt, Allowed: true}, nil
	}

	if b.count >= limit {
		return outbound.Bucket{Count: b.count, ResetAt: b.resetAt, Allowed: false}, nil
	}
	b.count++
	return outbound.Bucket{Count: b.count, ResetAt: b.resetAt, Allowed: true}, nil
}

// Sweep drops every bucket whose window has elapsed and returns how many
// were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

// Len returns the number of live buckets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// StartJanitor sweeps expired buckets every interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}()
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for k, b := range s.buckets {
		if !now.Before(b.resetAt) {
			delete(s.buckets, k)
			removed++
		}
	}
	return removed
}

// evictLocked makes room for one bucket: expired windows go first, then the
// bucket closest to its reset.
func (s *MemoryStore) evictLocked(now time.Time) {
	if s.sweepLocked(now) > 0 {
		return
	}
	var (
		victim   string
		earliest time.Time
	)
	for k, b := range s.buckets {
		if victim == "" || b.resetAt.Before(earliest) {
			victim, earliest = k, b.resetAt
		}
	}
	delete(s.buckets, victim)
}
