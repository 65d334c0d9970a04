package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/domain/entity"
)

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepositoryAdapter(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "phone", "password", "role", "created_at", "updated_at"}).
			AddRow("u-1", "admin@example.com", "Admin", "", "hash", "admin", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.FindByEmail(context.Background(), " Admin@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.True(t, user.IsAdmin())

	_, err = repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, outbound.ErrUserNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepositoryAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Create(context.Background(), entity.NewAdmin("u-1", "admin@example.com", "Admin", "hash"))
	assert.ErrorIs(t, err, outbound.ErrUserAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAuditRepositoryAdapter(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs("a-1", entity.AuditActionProviderRequestStatus, entity.AuditEntityProviderRequest, "req-1",
			"admin-1", "10.0.0.1", "curl/8", `{"to":"APPROVED"}`, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs("a-2", entity.AuditActionAdminLogin, entity.AuditEntityUser, "admin-1",
			"admin-1", "", "", `{}`, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &entity.AuditRecord{
		ID:         "a-1",
		Action:     entity.AuditActionProviderRequestStatus,
		EntityType: entity.AuditEntityProviderRequest,
		EntityID:   "req-1",
		ActorID:    "admin-1",
		IP:         "10.0.0.1",
		UserAgent:  "curl/8",
		Metadata:   map[string]any{"to": "APPROVED"},
		CreatedAt:  now,
	})
	require.NoError(t, err)

	err = repo.Create(context.Background(), &entity.AuditRecord{
		ID:         "a-2",
		Action:     entity.AuditActionAdminLogin,
		EntityType: entity.AuditEntityUser,
		EntityID:   "admin-1",
		ActorID:    "admin-1",
		CreatedAt:  now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
