package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fixora/marketplace/application/port/outbound"
)

const accessTokenType = "access"

type JWTService struct {
	hmacSecret     []byte
	accessTokenTTL time.Duration
	now            func() time.Time
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrEmptySecret  = errors.New("jwt secret cannot be empty")
)

var _ outbound.TokenService = (*JWTService)(nil)

func NewJWTService(secret string, accessTokenTTL time.Duration) (*JWTService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if accessTokenTTL <= 0 {
		accessTokenTTL = time.Hour
	}
	return &JWTService{
		hmacSecret:     []byte(secret),
		accessTokenTTL: accessTokenTTL,
		now:            time.Now,
	}, nil
}

func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.accessTokenTTL
}

func (s *JWTService) GenerateAccessToken(claims outbound.TokenClaims) (string, error) {
	now := s.now()
	tokenClaims := jwt.MapClaims{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"role":    claims.Role,
		"exp":     now.Add(s.accessTokenTTL).Unix(),
		"iat":     now.Unix(),
		"type":    accessTokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	tokenString, err := token.SignedString(s.hmacSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*outbound.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.hmacSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, s.handleValidationError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}

	// Verify token type
	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != accessTokenType {
		return nil, ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &outbound.TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
	}, nil
}

func (s *JWTService) handleValidationError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}
