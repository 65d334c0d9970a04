package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/fixora/marketplace/application/port/inbound"
	"github.com/fixora/marketplace/domain/entity"
	apperror "github.com/fixora/marketplace/domain/error"
	"github.com/fixora/marketplace/infrastructure/http/middleware"
	"github.com/fixora/marketplace/infrastructure/http/response"
	"github.com/fixora/marketplace/infrastructure/http/validator"
	"github.com/fixora/marketplace/infrastructure/service/metrics"
)

type OnboardingHandler struct {
	onboarding inbound.OnboardingUseCase
	validator  *validator.Validator
	metrics    *metrics.Metrics
}

func NewOnboardingHandler(uc inbound.OnboardingUseCase, v *validator.Validator, m *metrics.Metrics) *OnboardingHandler {
	return &OnboardingHandler{onboarding: uc, validator: v, metrics: m}
}

// TransitionStatus handles POST /v1/admin/provider-requests/{id}/status.
func (h *OnboardingHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		response.AppError(w, apperror.ErrMissingField("id"))
		return
	}

	var body inbound.TransitionStatusRequest
	if err := h.validator.DecodeJSON(r, &body); err != nil {
		response.AppError(w, err)
		return
	}
	target, ok := entity.ParseProviderRequestStatus(body.Status)
	if !ok {
		response.AppError(w, apperror.ErrBadRequest("status must be one of PENDING, APPROVED, REJECTED"))
		return
	}

	res, err := h.onboarding.Transition(r.Context(), inbound.TransitionCommand{
		RequestID: id,
		Target:    target,
		Actor:     middleware.ActorFromRequest(r),
	})
	if err != nil {
		h.metrics.Transition(string(target), string(apperror.From(err).Code))
		response.AppError(w, err)
		return
	}

	h.metrics.Transition(string(target), "OK")
	response.Success(w, http.StatusOK, "Provider request updated", res)
}
