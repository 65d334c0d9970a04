package response

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	apperror "github.com/fixora/marketplace/domain/error"
)

type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Code    string      `json:"code,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, status bool, message string, data interface{}) {
	write(w, statusCode, Envelope{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

func write(w http.ResponseWriter, statusCode int, envelope Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(envelope)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	WriteJSON(w, statusCode, true, message, data)
}

func Error(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, false, message, nil)
}

// AppError writes err using its code and status. Anything that is not an
// AppError becomes a generic 500 so internal details never leak. A retry
// hint on the error is sent as Retry-After in whole seconds.
func AppError(w http.ResponseWriter, err error) {
	appErr := apperror.From(err)
	if appErr == nil {
		appErr = apperror.ErrInternalServerError("", errors.New("nil error written as failure"))
	}
	if appErr.RetryAfter > 0 {
		secs := int(math.Ceil(appErr.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	write(w, appErr.Status(), Envelope{
		Status:  false,
		Message: appErr.Message,
		Code:    string(appErr.Code),
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	AppError(w, apperror.ErrBadRequest(message))
}

func Unauthorized(w http.ResponseWriter, message string) {
	AppError(w, apperror.ErrUnauthorized(message))
}

func Forbidden(w http.ResponseWriter, message string) {
	AppError(w, apperror.ErrForbidden(message))
}

func NotFound(w http.ResponseWriter, message string) {
	AppError(w, apperror.NewAppError(apperror.ErrCodeNotFound, message, "", nil))
}

func InternalServerError(w http.ResponseWriter) {
	AppError(w, apperror.ErrInternalServerError("", nil))
}
