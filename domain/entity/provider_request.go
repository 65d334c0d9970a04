package entity

import (
	"strings"
	"time"
)

// ProviderRequestStatus is the lifecycle state of an onboarding application.
type ProviderRequestStatus string

const (
	ProviderRequestPending  ProviderRequestStatus = "PENDING"
	ProviderRequestApproved ProviderRequestStatus = "APPROVED"
	ProviderRequestRejected ProviderRequestStatus = "REJECTED"
)

func (s ProviderRequestStatus) Valid() bool {
	switch s {
	case ProviderRequestPending, ProviderRequestApproved, ProviderRequestRejected:
		return true
	}
	return false
}

// ParseProviderRequestStatus accepts any casing and surrounding whitespace.
func ParseProviderRequestStatus(raw string) (ProviderRequestStatus, bool) {
	s := ProviderRequestStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// ProviderRequest is an applicant's intent to become a seller. Until it is
// approved the applicant is identified only by Email.
type ProviderRequest struct {
	ID           string                `json:"id"`
	Email        string                `json:"email"`
	Name         string                `json:"name"`
	Phone        string                `json:"phone,omitempty"`
	BusinessName string                `json:"business_name,omitempty"`
	Category     string                `json:"category,omitempty"`
	City         string                `json:"city,omitempty"`
	Message      string                `json:"message,omitempty"`
	Status       ProviderRequestStatus `json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// IsFirstApproval reports whether moving to target produces onboarding side
// effects. Only a transition into APPROVED from another state does.
func (r *ProviderRequest) IsFirstApproval(target ProviderRequestStatus) bool {
	return target == ProviderRequestApproved && r.Status != ProviderRequestApproved
}

// DisplayName is the public name used for the profile and listing title.
func (r *ProviderRequest) DisplayName() string {
	if b := strings.TrimSpace(r.BusinessName); b != "" {
		return b
	}
	if n := strings.TrimSpace(r.Name); n != "" {
		return n
	}
	return NormalizeEmail(r.Email)
}

func (r *ProviderRequest) SetStatus(status ProviderRequestStatus) {
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
}
