package inbound

import (
	"context"

	"github.com/fixora/marketplace/domain/entity"
)

// TransitionStatusRequest is the admin request body for a status change.
// Status is case-insensitive and may carry surrounding whitespace.
type TransitionStatusRequest struct {
	Status string `json:"status" validate:"required,provider_request_status"`
}

type TransitionCommand struct {
	RequestID string
	Target    entity.ProviderRequestStatus
	Actor     entity.Actor
}

// TransitionResult carries the updated request and any onboarding artifacts.
// The *Created flags tell whether each artifact was made by this call or
// already existed.
type TransitionResult struct {
	Request        *entity.ProviderRequest `json:"request"`
	User           *entity.User            `json:"user,omitempty"`
	Profile        *entity.ProviderProfile `json:"profile,omitempty"`
	Listing        *entity.Listing         `json:"listing,omitempty"`
	UserCreated    bool                    `json:"user_created"`
	ProfileCreated bool                    `json:"profile_created"`
	ListingCreated bool                    `json:"listing_created"`
}

type OnboardingUseCase interface {
	Transition(ctx context.Context, cmd TransitionCommand) (*TransitionResult, error)
}
