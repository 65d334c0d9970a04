package inbound

import (
	"context"

	"github.com/fixora/marketplace/domain/entity"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int        `json:"expires_in"`
	User        MeResponse `json:"user"`
}

type MeResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthUseCase interface {
	Login(ctx context.Context, req LoginRequest, actor entity.Actor) (*LoginResponse, error)
}
