package entity

import (
	"strings"
	"time"
)

// DefaultListingDescription is used when the applicant left no message.
const DefaultListingDescription = "This provider has not added a description yet."

type Listing struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	City        string     `json:"city,omitempty"`
	IsActive    bool       `json:"is_active"`
	Highlighted bool       `json:"highlighted"`
	PriceFrom   *int64     `json:"price_from"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// NewFirstListing materializes the listing created on first approval:
// active, not highlighted and without a price.
func NewFirstListing(id, ownerID, slug string, req *ProviderRequest) *Listing {
	now := time.Now().UTC()
	desc := strings.TrimSpace(req.Message)
	if desc == "" {
		desc = DefaultListingDescription
	}
	return &Listing{
		ID:          id,
		OwnerID:     ownerID,
		Slug:        slug,
		Title:       req.DisplayName(),
		Description: desc,
		Category:    strings.TrimSpace(req.Category),
		City:        strings.TrimSpace(req.City),
		IsActive:    true,
		Highlighted: false,
		PriceFrom:   nil,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
