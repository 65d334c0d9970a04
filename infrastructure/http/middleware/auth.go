package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/domain/entity"
	"github.com/fixora/marketplace/infrastructure/http/response"
	"github.com/fixora/marketplace/infrastructure/service/logger"
)

type ctxKey string

const authUserKey ctxKey = "auth_user"

type AuthMiddleware struct {
	tokenService outbound.TokenService
	logger       logger.Logger
}

func NewAuthMiddleware(tokenService outbound.TokenService, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		logger:       log,
	}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header required")
			return
		}

		// Extract Bearer token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.tokenService.ValidateAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserClaims(r.Context(), claims)))
	})
}

// RequireAdmin ensures that the user has admin role
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserClaims(r.Context())
		if claims == nil {
			response.Unauthorized(w, "User not authenticated")
			return
		}
		if claims.Role != entity.RoleAdmin {
			logger.LogSecurityEvent(r.Context(), m.logger, "admin_access_denied", "MEDIUM", map[string]interface{}{
				"user_id": claims.UserID,
				"role":    claims.Role,
				"path":    r.URL.Path,
			})
			response.Forbidden(w, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func WithUserClaims(ctx context.Context, claims *outbound.TokenClaims) context.Context {
	return context.WithValue(ctx, authUserKey, claims)
}

// GetUserClaims retrieves user claims from context
func GetUserClaims(ctx context.Context) *outbound.TokenClaims {
	if claims, ok := ctx.Value(authUserKey).(*outbound.TokenClaims); ok {
		return claims
	}
	return nil
}

// ActorFromRequest identifies who is calling for audit purposes.
func ActorFromRequest(r *http.Request) entity.Actor {
	actor := entity.Actor{
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
	}
	if claims := GetUserClaims(r.Context()); claims != nil {
		actor.UserID = claims.UserID
	}
	return actor
}
