package entity

import "time"

// Audit action kinds.
const (
	AuditActionProviderRequestStatus = "provider_request.status_changed"
	AuditActionAdminLogin            = "admin.login"
)

// Audit entity types.
const (
	AuditEntityProviderRequest = "provider_request"
	AuditEntityUser            = "user"
)

// AuditRecord is an immutable entry describing a privileged action.
type AuditRecord struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Actor identifies who performed a privileged action and from where.
type Actor struct {
	UserID    string
	IP        string
	UserAgent string
}
