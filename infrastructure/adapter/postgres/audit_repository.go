package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/domain/entity"
)

// AuditRepositoryAdapter appends to audit_logs. Rows are never updated.
type AuditRepositoryAdapter struct {
	db *sql.DB
}

func NewAuditRepositoryAdapter(db *sql.DB) *AuditRepositoryAdapter {
	return &AuditRepositoryAdapter{db: db}
}

var _ outbound.AuditRepository = (*AuditRepositoryAdapter)(nil)

func (r *AuditRepositoryAdapter) Create(ctx context.Context, record *entity.AuditRecord) error {
	if record == nil {
		return fmt.Errorf("audit record cannot be nil")
	}

	metadata := []byte("{}")
	if len(record.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(record.Metadata); err != nil {
			return fmt.Errorf("failed to encode audit metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (id, action, entity_type, entity_id, actor_id, ip, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Action,
		record.EntityType,
		record.EntityID,
		record.ActorID,
		record.IP,
		record.UserAgent,
		string(metadata),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}
