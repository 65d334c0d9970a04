package outbound

import (
	"context"

	"github.com/fixora/marketplace/domain/entity"
)

// AuditRepository is the durable, append-only store behind the audit sink.
type AuditRepository interface {
	Create(ctx context.Context, record *entity.AuditRecord) error
}
