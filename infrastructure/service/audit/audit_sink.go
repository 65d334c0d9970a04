package audit

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/fixora/marketplace/application/port/inbound"
	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/domain/entity"
	"github.com/fixora/marketplace/infrastructure/service/logger"
	"github.com/fixora/marketplace/infrastructure/service/metrics"
)

// Options tunes the dispatcher.
type Options struct {
	BufferSize   int
	Workers      int
	WriteTimeout time.Duration
}

type queued struct {
	ctx    context.Context
	record entity.AuditRecord
}

// Sink is a fire-and-forget audit dispatcher. Record enqueues and returns
// immediately; workers write to the repository in the background. A full
// queue, a closed sink or a failing repository never reaches the caller:
// records are dropped, counted and logged instead.
type Sink struct {
	repo    outbound.AuditRepository
	logger  logger.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan queued
	wg     sync.WaitGroup

	failureLog rate.Sometimes
	dropLog    rate.Sometimes
}

var _ inbound.AuditSink = (*Sink)(nil)

func NewSink(repo outbound.AuditRepository, log logger.Logger, m *metrics.Metrics, opts Options) *Sink {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1024
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	s := &Sink{
		repo:       repo,
		logger:     log.WithFields(map[string]interface{}{"component": "audit"}),
		metrics:    m,
		timeout:    opts.WriteTimeout,
		queue:      make(chan queued, opts.BufferSize),
		failureLog: rate.Sometimes{First: 5, Interval: 10 * time.Second},
		dropLog:    rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}
	for i := 0; i < opts.Workers; i++ {
		s.wg.Add(1)
		go s.work()
	}
	return s
}

// Record stamps an id and timestamp when missing and enqueues the record.
func (s *Sink) Record(ctx context.Context, record entity.AuditRecord) {
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.Metadata != nil {
		md := make(map[string]any, len(record.Metadata))
		for k, v := range record.Metadata {
			md[k] = v
		}
		record.Metadata = md
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.drop(ctx, record, "sink closed")
		return
	}

	select {
	case s.queue <- queued{ctx: context.WithoutCancel(ctx), record: record}:
	default:
		s.drop(ctx, record, "queue full")
	}
}

// Close stops accepting records and waits for queued ones to be written or
// for ctx to expire.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) work() {
	defer s.wg.Done()
	for q := range s.queue {
		s.write(q)
	}
}

func (s *Sink) write(q queued) {
	ctx, cancel := context.WithTimeout(q.ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.metrics.Audit(metrics.AuditFailed)
			s.logger.Error(q.ctx, "Audit write panicked", nil, map[string]interface{}{
				"panic":  r,
				"action": q.record.Action,
			})
		}
	}()

	rec := q.record
	if err := s.repo.Create(ctx, &rec); err != nil {
		s.metrics.Audit(metrics.AuditFailed)
		s.failureLog.Do(func() {
			s.logger.Error(q.ctx, "Failed to write audit record", err, map[string]interface{}{
				"audit_id":    rec.ID,
				"action":      rec.Action,
				"entity_type": rec.EntityType,
				"entity_id":   rec.EntityID,
			})
		})
		return
	}
	s.metrics.Audit(metrics.AuditWritten)
}

func (s *Sink) drop(ctx context.Context, record entity.AuditRecord, reason string) {
	s.metrics.Audit(metrics.AuditDropped)
	s.dropLog.Do(func() {
		s.logger.Warn(ctx, "Audit record dropped", map[string]interface{}{
			"reason":    reason,
			"action":    record.Action,
			"entity_id": record.EntityID,
		})
	})
}
