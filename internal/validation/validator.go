// Package validation checks request payloads with validator/v10 and turns
// failures into VALIDATION domain errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/normalize"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove options like omitempty, -
		if i := strings.IndexByte(name, ','); i >= 0 {
			return name[:i]
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("isbn", validISBN)
	_ = v.RegisterValidation("language", validLanguage)
	_ = v.RegisterValidation("interaction", validInteraction)

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	fields := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = v.friendlyMessage(e)
		fields = append(fields, e.Field())
	}
	slices.Sort(fields)

	return domainerrors.ValidationWithDetails(
		"invalid fields: "+strings.Join(slices.Compact(fields), ", "),
		fieldErrors,
	)
}

func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must not contain more than %s items", e.Param())
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "isbn":
		return "must be a valid ISBN-10 or ISBN-13"
	case "language":
		return "must be a known language code or name"
	case "interaction":
		return "must be a known interaction type"
	default:
		return "is invalid"
	}
}

// validISBN accepts an empty value; pair with required to demand one.
func validISBN(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	return raw == "" || normalize.ISBN(raw) != ""
}

func validLanguage(fl validator.FieldLevel) bool {
	return normalize.LanguageCode(fl.Field().String()) != ""
}

func validInteraction(fl validator.FieldLevel) bool {
	_, err := domain.ParseInteractionType(fl.Field().String())
	return err == nil
}
