package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/domain/entity"
)

// OnboardingStore runs onboarding transactions at READ COMMITTED. The
// provider request row is locked with FOR UPDATE, so concurrent transitions
// of the same request run one after another; races on other rows surface as
// unique violations mapped to outbound.ErrConflict.
type OnboardingStore struct {
	db *sql.DB
}

func NewOnboardingStore(db *sql.DB) *OnboardingStore {
	return &OnboardingStore{db: db}
}

var _ outbound.OnboardingStore = (*OnboardingStore)(nil)

func (s *OnboardingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx outbound.OnboardingTx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &onboardingTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return mapWriteError("failed to commit transaction", err)
	}
	return nil
}

type onboardingTx struct {
	tx *sql.Tx
}

func (t *onboardingTx) FindProviderRequestForUpdate(ctx context.Context, id string) (*entity.ProviderRequest, error) {
	query := `
		SELECT id, email, name, phone, business_name, category, city, message, status, created_at, updated_at
		FROM provider_requests
		WHERE id = $1
		FOR UPDATE
	`
	var req entity.ProviderRequest
	err := t.tx.QueryRowContext(ctx, query, id).Scan(
		&req.ID,
		&req.Email,
		&req.Name,
		&req.Phone,
		&req.BusinessName,
		&req.Category,
		&req.City,
		&req.Message,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrProviderRequestNotFound
		}
		return nil, fmt.Errorf("failed to load provider request: %w", err)
	}
	return &req, nil
}

func (t *onboardingTx) UpdateProviderRequestStatus(ctx context.Context, id string, status entity.ProviderRequestStatus, updatedAt time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE provider_requests SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), updatedAt,
	)
	if err != nil {
		return mapWriteError("failed to update provider request", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return outbound.ErrProviderRequestNotFound
	}
	return nil
}

func (t *onboardingTx) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	user, err := scanUser(t.tx.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (t *onboardingTx) CreateUser(ctx context.Context, user *entity.User) error {
	return insertUser(ctx, t.tx, user)
}

func (t *onboardingTx) UpdateUser(ctx context.Context, user *entity.User) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE users SET name = $2, phone = $3, role = $4, updated_at = $5 WHERE id = $1`,
		user.ID, user.Name, user.Phone, user.Role, user.UpdatedAt,
	)
	return mapWriteError("failed to update user", err)
}

func (t *onboardingTx) FindProfileByUserID(ctx context.Context, userID string) (*entity.ProviderProfile, error) {
	query := `
		SELECT id, user_id, display_name, bio, approved, approved_at, created_at, updated_at
		FROM provider_profiles
		WHERE user_id = $1
	`
	var (
		p          entity.ProviderProfile
		approvedAt sql.NullTime
	)
	err := t.tx.QueryRowContext(ctx, query, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.DisplayName,
		&p.Bio,
		&p.Approved,
		&approvedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.ApprovedAt = timePtr(approvedAt)
	return &p, nil
}

func (t *onboardingTx) CreateProfile(ctx context.Context, p *entity.ProviderProfile) error {
	query := `
		INSERT INTO provider_profiles (id, user_id, display_name, bio, approved, approved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := t.tx.ExecContext(ctx, query,
		p.ID, p.UserID, p.DisplayName, p.Bio, p.Approved, nullTime(p.ApprovedAt), p.CreatedAt, p.UpdatedAt,
	)
	return mapWriteError("failed to create provider profile", err)
}

func (t *onboardingTx) UpdateProfile(ctx context.Context, p *entity.ProviderProfile) error {
	query := `
		UPDATE provider_profiles
		SET display_name = $2, bio = $3, approved = $4, approved_at = $5, updated_at = $6
		WHERE id = $1
	`
	_, err := t.tx.ExecContext(ctx, query,
		p.ID, p.DisplayName, p.Bio, p.Approved, nullTime(p.ApprovedAt), p.UpdatedAt,
	)
	return mapWriteError("failed to update provider profile", err)
}

func (t *onboardingTx) FindActiveListingByOwner(ctx context.Context, ownerID string) (*entity.Listing, error) {
	query := `
		SELECT id, owner_id, slug, title, description, category, city, is_active, highlighted,
		       price_from, created_at, updated_at, deleted_at
		FROM listings
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
		LIMIT 1
	`
	var (
		l         entity.Listing
		priceFrom sql.NullInt64
		deletedAt sql.NullTime
	)
	err := t.tx.QueryRowContext(ctx, query, ownerID).Scan(
		&l.ID,
		&l.OwnerID,
		&l.Slug,
		&l.Title,
		&l.Description,
		&l.Category,
		&l.City,
		&l.IsActive,
		&l.Highlighted,
		&priceFrom,
		&l.CreatedAt,
		&l.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	l.PriceFrom = int64Ptr(priceFrom)
	l.DeletedAt = timePtr(deletedAt)
	return &l, nil
}

func (t *onboardingTx) CreateListing(ctx context.Context, l *entity.Listing) error {
	query := `
		INSERT INTO listings (id, owner_id, slug, title, description, category, city, is_active, highlighted,
		                      price_from, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := t.tx.ExecContext(ctx, query,
		l.ID, l.OwnerID, l.Slug, l.Title, l.Description, l.Category, l.City, l.IsActive, l.Highlighted,
		nullInt64(l.PriceFrom), l.CreatedAt, l.UpdatedAt,
	)
	return mapWriteError("failed to create listing", err)
}

func (t *onboardingTx) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM listings WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}
