package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fixora/marketplace/application/port/inbound"
	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/domain/entity"
	apperror "github.com/fixora/marketplace/domain/error"
	"github.com/fixora/marketplace/infrastructure/service/logger"
)

const defaultMaxConflictRetries = 3

type TransitionUseCase struct {
	store      outbound.OnboardingStore
	slugs      *SlugAllocator
	audit      inbound.AuditSink
	logger     logger.Logger
	maxRetries int
	newID      func() string
}

type Option func(*TransitionUseCase)

// WithMaxConflictRetries bounds how often a transaction that lost a
// uniqueness race is re-run.
func WithMaxConflictRetries(n int) Option {
	return func(uc *TransitionUseCase) {
		if n >= 0 {
			uc.maxRetries = n
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(uc *TransitionUseCase) { uc.newID = fn }
}

func NewTransitionUseCase(
	store outbound.OnboardingStore,
	slugs *SlugAllocator,
	audit inbound.AuditSink,
	log logger.Logger,
	opts ...Option,
) *TransitionUseCase {
	uc := &TransitionUseCase{
		store:      store,
		slugs:      slugs,
		audit:      audit,
		logger:     log,
		maxRetries: defaultMaxConflictRetries,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

var _ inbound.OnboardingUseCase = (*TransitionUseCase)(nil)

// Transition moves a provider request to cmd.Target. A first approval
// creates or merges the user, approves the provider profile and makes sure
// exactly one listing exists, all in one transaction. The audit record is
// written after commit and cannot affect the result.
func (uc *TransitionUseCase) Transition(ctx context.Context, cmd inbound.TransitionCommand) (*inbound.TransitionResult, error) {
	if cmd.RequestID == "" {
		return nil, apperror.ErrMissingField("request_id")
	}
	if !cmd.Target.Valid() {
		return nil, apperror.ErrBadRequest(fmt.Sprintf("invalid status %q", cmd.Target))
	}

	start := time.Now()

	var (
		result *inbound.TransitionResult
		from   entity.ProviderRequestStatus
	)
	for attempt := 0; ; attempt++ {
		err := uc.store.WithinTx(ctx, func(ctx context.Context, tx outbound.OnboardingTx) error {
			var err error
			result, from, err = uc.apply(ctx, tx, cmd)
			return err
		})
		if err == nil {
			break
		}
		if errors.Is(err, outbound.ErrConflict) && attempt < uc.maxRetries {
			uc.logger.Warn(ctx, "Onboarding transaction lost a uniqueness race, retrying", map[string]interface{}{
				"request_id": cmd.RequestID,
				"attempt":    attempt + 1,
			})
			continue
		}
		return nil, uc.mapError(ctx, cmd, err)
	}

	uc.recordAudit(ctx, cmd, from, result)

	logger.LogPerformance(ctx, uc.logger, "onboarding.transition", time.Since(start), map[string]interface{}{
		"request_id": cmd.RequestID,
		"target":     string(cmd.Target),
	})
	return result, nil
}

func (uc *TransitionUseCase) apply(ctx context.Context, tx outbound.OnboardingTx, cmd inbound.TransitionCommand) (*inbound.TransitionResult, entity.ProviderRequestStatus, error) {
	req, err := tx.FindProviderRequestForUpdate(ctx, cmd.RequestID)
	if err != nil {
		return nil, "", err
	}
	from := req.Status
	result := &inbound.TransitionResult{}

	switch {
	case req.IsFirstApproval(cmd.Target):
		if err := uc.onboard(ctx, tx, req, result); err != nil {
			return nil, from, err
		}
	case cmd.Target == entity.ProviderRequestApproved:
		if err := uc.loadExisting(ctx, tx, req, result); err != nil {
			return nil, from, err
		}
	}

	req.SetStatus(cmd.Target)
	if err := tx.UpdateProviderRequestStatus(ctx, req.ID, req.Status, req.UpdatedAt); err != nil {
		return nil, from, fmt.Errorf("failed to update provider request status: %w", err)
	}
	result.Request = req
	return result, from, nil
}

func (uc *TransitionUseCase) onboard(ctx context.Context, tx outbound.OnboardingTx, req *entity.ProviderRequest, result *inbound.TransitionResult) error {
	email := entity.NormalizeEmail(req.Email)
	if email == "" {
		return apperror.ErrBadRequest("Provider request has no email address")
	}

	user, err := tx.FindUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		user = entity.NewUser(uc.newID(), email, req.Name, req.Phone, entity.RoleProvider)
		if err := tx.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		result.UserCreated = true
	} else {
		user.MergeContact(req.Name, req.Phone)
		if err := tx.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
	}
	result.User = user

	profile, err := tx.FindProfileByUserID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to find provider profile: %w", err)
	}
	if profile == nil {
		profile = entity.NewApprovedProfile(uc.newID(), user.ID, req)
		if err := tx.CreateProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to create provider profile: %w", err)
		}
		result.ProfileCreated = true
	} else {
		profile.Approve(req)
		if err := tx.UpdateProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to update provider profile: %w", err)
		}
	}
	result.Profile = profile

	listing, err := tx.FindActiveListingByOwner(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		slug, err := uc.slugs.Allocate(ctx, tx, SlugBase(req.ID))
		if err != nil {
			return err
		}
		listing = entity.NewFirstListing(uc.newID(), user.ID, slug, req)
		if err := tx.CreateListing(ctx, listing); err != nil {
			return fmt.Errorf("failed to create listing: %w", err)
		}
		result.ListingCreated = true
	}
	result.Listing = listing
	return nil
}

// loadExisting fills result with the artifacts of an earlier approval
// without writing anything.
func (uc *TransitionUseCase) loadExisting(ctx context.Context, tx outbound.OnboardingTx, req *entity.ProviderRequest, result *inbound.TransitionResult) error {
	email := entity.NormalizeEmail(req.Email)
	if email == "" {
		return nil
	}
	user, err := tx.FindUserByEmail(ctx, email)
	if err != nil || user == nil {
		return err
	}
	result.User = user

	if result.Profile, err = tx.FindProfileByUserID(ctx, user.ID); err != nil {
		return err
	}
	result.Listing, err = tx.FindActiveListingByOwner(ctx, user.ID)
	return err
}

func (uc *TransitionUseCase) mapError(ctx context.Context, cmd inbound.TransitionCommand, err error) error {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, outbound.ErrProviderRequestNotFound):
		return apperror.ErrNotFound("Provider request")
	case errors.Is(err, outbound.ErrConflict):
		uc.logger.Warn(ctx, "Onboarding transition gave up after repeated conflicts", map[string]interface{}{
			"request_id": cmd.RequestID,
			"retries":    uc.maxRetries,
		})
		return apperror.ErrConflict("Provider request is being updated concurrently, please retry", err)
	default:
		uc.logger.Error(ctx, "Onboarding transition failed", err, map[string]interface{}{
			"request_id": cmd.RequestID,
			"target":     string(cmd.Target),
		})
		return apperror.ErrInternalServerError("onboarding transition", err)
	}
}

func (uc *TransitionUseCase) recordAudit(ctx context.Context, cmd inbound.TransitionCommand, from entity.ProviderRequestStatus, result *inbound.TransitionResult) {
	if uc.audit == nil {
		return
	}
	md := map[string]any{
		"from":            string(from),
		"to":              string(cmd.Target),
		"user_created":    result.UserCreated,
		"profile_created": result.ProfileCreated,
		"listing_created": result.ListingCreated,
	}
	if result.User != nil {
		md["user_id"] = result.User.ID
	}
	if result.Listing != nil {
		md["listing_id"] = result.Listing.ID
		md["listing_slug"] = result.Listing.Slug
	}
	uc.audit.Record(ctx, entity.AuditRecord{
		Action:     entity.AuditActionProviderRequestStatus,
		EntityType: entity.AuditEntityProviderRequest,
		EntityID:   result.Request.ID,
		ActorID:    cmd.Actor.UserID,
		IP:         cmd.Actor.IP,
		UserAgent:  cmd.Actor.UserAgent,
		Metadata:   md,
	})
}
