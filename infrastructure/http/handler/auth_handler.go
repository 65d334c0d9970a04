package handler

import (
	"net/http"

	"github.com/fixora/marketplace/application/port/inbound"
	"github.com/fixora/marketplace/infrastructure/http/middleware"
	"github.com/fixora/marketplace/infrastructure/http/response"
	"github.com/fixora/marketplace/infrastructure/http/validator"
)

type AuthHandler struct {
	authUseCase inbound.AuthUseCase
	validator   *validator.Validator
}

func NewAuthHandler(authUseCase inbound.AuthUseCase, v *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		validator:   v,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req inbound.LoginRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		response.AppError(w, err)
		return
	}

	res, err := h.authUseCase.Login(r.Context(), req, middleware.ActorFromRequest(r))
	if err != nil {
		response.AppError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	response.Success(w, http.StatusOK, "success", res)
}
