package entity

import (
	"strings"
	"time"
)

// ProviderProfile is the seller side of a user identity. One per user.
type ProviderProfile struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Bio         string     `json:"bio,omitempty"`
	Approved    bool       `json:"approved"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewApprovedProfile carries the applicant's display name and message over
// to a freshly approved profile.
func NewApprovedProfile(id, userID string, req *ProviderRequest) *ProviderProfile {
	now := time.Now().UTC()
	return &ProviderProfile{
		ID:          id,
		UserID:      userID,
		DisplayName: req.DisplayName(),
		Bio:         strings.TrimSpace(req.Message),
		Approved:    true,
		ApprovedAt:  &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Approve marks an existing profile approved and refreshes the carried-over
// applicant data. The original approval time is kept.
func (p *ProviderProfile) Approve(req *ProviderRequest) {
	now := time.Now().UTC()
	p.Approved = true
	if p.ApprovedAt == nil {
		p.ApprovedAt = &now
	}
	p.DisplayName = req.DisplayName()
	if msg := strings.TrimSpace(req.Message); msg != "" {
		p.Bio = msg
	}
	p.UpdatedAt = now
}
