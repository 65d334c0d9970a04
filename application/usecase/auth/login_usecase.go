package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/fixora/marketplace/application/port/inbound"
	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/domain/entity"
	apperror "github.com/fixora/marketplace/domain/error"
	"github.com/fixora/marketplace/infrastructure/service/logger"
)

const (
	invalidCredentialsMessage = "Invalid email or password"
	// decoyPassword is hashed once so logins for unknown accounts still pay
	// for a full password verification.
	decoyPassword = "decoy-password-for-unknown-accounts"
)

// LoginUseCase authenticates administrators. Only admin accounts may sign
// in; every other failure looks the same to the caller.
type LoginUseCase struct {
	userRepo        outbound.UserRepository
	tokenService    outbound.TokenService
	passwordService outbound.PasswordService
	audit           inbound.AuditSink
	logger          logger.Logger

	decoyOnce sync.Once
	decoyHash string
}

var _ inbound.AuthUseCase = (*LoginUseCase)(nil)

func NewLoginUseCase(
	userRepo outbound.UserRepository,
	tokenService outbound.TokenService,
	passwordService outbound.PasswordService,
	audit inbound.AuditSink,
	log logger.Logger,
) *LoginUseCase {
	return &LoginUseCase{
		userRepo:        userRepo,
		tokenService:    tokenService,
		passwordService: passwordService,
		audit:           audit,
		logger:          log,
	}
}

func (uc *LoginUseCase) Login(ctx context.Context, req inbound.LoginRequest, actor entity.Actor) (*inbound.LoginResponse, error) {
	email := entity.NormalizeEmail(req.Email)
	if email == "" {
		return nil, apperror.ErrMissingField("email")
	}
	if req.Password == "" {
		return nil, apperror.ErrMissingField("password")
	}

	user, err := uc.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			uc.verifyDecoy(req.Password)
			uc.reject(ctx, email, actor, "unknown_email")
			return nil, apperror.ErrUnauthorized(invalidCredentialsMessage)
		}
		uc.logger.Error(ctx, "Failed to look up user for login", err, nil)
		return nil, apperror.ErrInternalServerError("login", err)
	}
	if user == nil || user.Password == "" {
		uc.verifyDecoy(req.Password)
		uc.reject(ctx, email, actor, "no_password")
		return nil, apperror.ErrUnauthorized(invalidCredentialsMessage)
	}

	ok, err := uc.passwordService.VerifyPassword(req.Password, user.Password)
	if err != nil || !ok {
		uc.reject(ctx, email, actor, "bad_password")
		return nil, apperror.ErrUnauthorized(invalidCredentialsMessage)
	}
	if !user.IsAdmin() {
		uc.reject(ctx, email, actor, "not_admin")
		return nil, apperror.ErrUnauthorized(invalidCredentialsMessage)
	}

	accessToken, err := uc.tokenService.GenerateAccessToken(outbound.TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		uc.logger.Error(ctx, "Failed to issue access token", err, map[string]interface{}{"user_id": user.ID})
		return nil, apperror.ErrInternalServerError("login", err)
	}

	if uc.audit != nil {
		uc.audit.Record(ctx, entity.AuditRecord{
			Action:     entity.AuditActionAdminLogin,
			EntityType: entity.AuditEntityUser,
			EntityID:   user.ID,
			ActorID:    user.ID,
			IP:         actor.IP,
			UserAgent:  actor.UserAgent,
		})
	}

	return &inbound.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(uc.tokenService.AccessTokenTTL().Seconds()),
		User: inbound.MeResponse{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

// verifyDecoy spends the same work as a real password check and discards
// the result.
func (uc *LoginUseCase) verifyDecoy(password string) {
	uc.decoyOnce.Do(func() {
		hash, err := uc.passwordService.HashPassword(decoyPassword)
		if err != nil {
			uc.logger.Error(context.Background(), "Failed to prepare decoy password hash", err, nil)
			return
		}
		uc.decoyHash = hash
	})
	if uc.decoyHash != "" {
		_, _ = uc.passwordService.VerifyPassword(password, uc.decoyHash)
	}
}

func (uc *LoginUseCase) reject(ctx context.Context, email string, actor entity.Actor, reason string) {
	logger.LogSecurityEvent(ctx, uc.logger, "login_failed", "MEDIUM", map[string]interface{}{
		"email":  email,
		"ip":     actor.IP,
		"reason": reason,
	})
}
