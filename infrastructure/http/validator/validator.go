package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fixora/marketplace/domain/entity"
	apperror "github.com/fixora/marketplace/domain/error"
)

const maxBodyBytes = 1 << 20

// Validator checks request bodies against their `validate` struct tags
// before any handler logic runs.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Same rule the handlers use to turn the field into a status.
	_ = v.RegisterValidation("provider_request_status", func(fl validator.FieldLevel) bool {
		_, ok := entity.ParseProviderRequestStatus(fl.Field().String())
		return ok
	})
	return &Validator{validate: v}
}

// Struct validates s and reports the first failing field as BAD_REQUEST.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.ErrBadRequest("Invalid request body")
	}
	fe := fieldErrs[0]
	return apperror.NewAppError(apperror.ErrCodeBadRequest, describe(fe), fmt.Sprintf("Field: %s", fe.Field()), nil)
}

// DecodeJSON reads a single JSON object from r into dst, rejecting unknown
// fields, and validates it.
func (v *Validator) DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.NewAppError(apperror.ErrCodeBadRequest, "Invalid request body", "", err)
	}
	if dec.More() {
		return apperror.ErrBadRequest("Request body must contain a single JSON object")
	}
	return v.Struct(dst)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "provider_request_status":
		return fmt.Sprintf("%s must be one of PENDING, APPROVED, REJECTED", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
