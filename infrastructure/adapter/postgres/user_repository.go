package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/domain/entity"
)

const userColumns = `id, email, name, phone, password, role, created_at, updated_at`

type UserRepositoryAdapter struct {
	db *sql.DB
}

func NewUserRepositoryAdapter(db *sql.DB) *UserRepositoryAdapter {
	return &UserRepositoryAdapter{
		db: db,
	}
}

var _ outbound.UserRepository = (*UserRepositoryAdapter)(nil)

func (r *UserRepositoryAdapter) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, entity.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepositoryAdapter) Create(ctx context.Context, user *entity.User) error {
	if user == nil {
		return fmt.Errorf("user cannot be nil")
	}
	if user.ID == "" || user.Email == "" {
		return fmt.Errorf("user ID and email are required")
	}

	err := insertUser(ctx, r.db, user)
	if errors.Is(err, outbound.ErrConflict) {
		return outbound.ErrUserAlreadyExists
	}
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertUser(ctx context.Context, db execer, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, name, phone, password, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Phone,
		user.Password,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapWriteError("failed to create user", err)
}

func scanUser(row *sql.Row) (*entity.User, error) {
	var user entity.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Phone,
		&user.Password,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
