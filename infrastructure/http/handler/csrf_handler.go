package handler

import (
	"net/http"

	"github.com/fixora/marketplace/infrastructure/http/response"
	"github.com/fixora/marketplace/infrastructure/service/csrf"
	"github.com/fixora/marketplace/infrastructure/service/logger"
)

type CsrfHandler struct {
	csrf   *csrf.CsrfService
	logger logger.Logger
}

func NewCsrfHandler(svc *csrf.CsrfService, log logger.Logger) *CsrfHandler {
	return &CsrfHandler{csrf: svc, logger: log}
}

type CsrfTokenResponse struct {
	Token      string `json:"token"`
	HeaderName string `json:"header_name"`
}

// Token returns the caller's CSRF token, minting one if the cookie is absent,
// and (re)sets the cookie so its expiry is refreshed.
func (h *CsrfHandler) Token(w http.ResponseWriter, r *http.Request) {
	token := h.csrf.TokenFromRequest(r)
	if token == "" {
		var err error
		if token, err = h.csrf.Issue(); err != nil {
			h.logger.Error(r.Context(), "Failed to issue CSRF token", err, nil)
			response.InternalServerError(w)
			return
		}
	}

	http.SetCookie(w, h.csrf.Cookie(token))
	w.Header().Set("Cache-Control", "no-store")
	response.Success(w, http.StatusOK, "success", CsrfTokenResponse{
		Token:      token,
		HeaderName: h.csrf.HeaderName(),
	})
}
