package outbound

import (
	"context"
	"errors"

	"github.com/fixora/marketplace/domain/entity"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepository is used outside onboarding transactions, e.g. by login and
// admin seeding.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
}
