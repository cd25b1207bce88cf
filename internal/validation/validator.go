// Package validation runs the client-side form checks that must pass before
// anything is sent to the server.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "mymemo-client/internal/errors"
)

// Validator wraps a configured go-playground validator.
type Validator struct {
	validate *validator.Validate
}

var (
	instance *Validator
	once     sync.Once
)

// Default returns the shared validator instance.
func Default() *Validator {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New creates a validator that reports fields by their JSON names.
func New() *Validator {
	v := &Validator{validate: validator.New()}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.validate.RegisterValidation("notblank", notBlank)

	return v
}

// Struct validates s and returns a validation *AppError listing every failed
// field, or nil.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		if _, seen := fields[e.Field()]; seen {
			continue
		}
		fields[e.Field()] = message(e)
	}
	return apperrors.NewValidationError(fields)
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("Please enter a %s.", e.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return !field.IsZero()
	}
	return strings.TrimSpace(field.String()) != ""
}
