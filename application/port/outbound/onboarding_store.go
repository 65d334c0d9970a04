package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/fixora/marketplace/domain/entity"
)

var (
	ErrProviderRequestNotFound = errors.New("provider request not found")
	// ErrConflict is returned when a write loses a uniqueness race. The whole
	// transaction has been rolled back and may be retried.
	ErrConflict = errors.New("unique constraint violation")
)

// OnboardingStore runs fn inside a single store transaction. A non-nil error
// from fn rolls everything back.
type OnboardingStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx OnboardingTx) error) error
}

// SlugChecker reports whether a listing slug is already taken.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// OnboardingTx is the set of reads and writes available inside an
// onboarding transaction. Finders return (nil, nil) when nothing matches,
// except FindProviderRequestForUpdate which returns
// ErrProviderRequestNotFound.
type OnboardingTx interface {
	SlugChecker

	// FindProviderRequestForUpdate loads the request and locks it for the
	// rest of the transaction.
	FindProviderRequestForUpdate(ctx context.Context, id string) (*entity.ProviderRequest, error)
	UpdateProviderRequestStatus(ctx context.Context, id string, status entity.ProviderRequestStatus, updatedAt time.Time) error

	FindUserByEmail(ctx context.Context, email string) (*entity.User, error)
	CreateUser(ctx context.Context, user *entity.User) error
	UpdateUser(ctx context.Context, user *entity.User) error

	FindProfileByUserID(ctx context.Context, userID string) (*entity.ProviderProfile, error)
	CreateProfile(ctx context.Context, profile *entity.ProviderProfile) error
	UpdateProfile(ctx context.Context, profile *entity.ProviderProfile) error

	// FindActiveListingByOwner returns the owner's non-deleted listing.
	FindActiveListingByOwner(ctx context.Context, ownerID string) (*entity.Listing, error)
	CreateListing(ctx context.Context, listing *entity.Listing) error
}
