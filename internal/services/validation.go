package services

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "sitepulse/pkg/errors"
)

// newValidator returns a validator that reports fields by their JSON name
// and understands the wholenumber tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("wholenumber", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			f := fl.Field().Float()
			return f == math.Trunc(f) && !math.IsInf(f, 0)
		default:
			return true
		}
	})
	return v
}

// check validates input and converts failures into a VALIDATION_ERROR that
// lists every failing field.
func (s *InteractionService) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "validation could not run", err)
	}
	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return apperrors.Validation(fields...)
}

// validEmail reports whether s is a syntactically valid address.
func (s *InteractionService) validEmail(email string) bool {
	return s.validate.Var(email, "email") == nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "wholenumber":
		return "must be a whole number"
	default:
		return "is invalid"
	}
}

// trim returns the trimmed value of p, or nil when p is nil or blank.
func trim(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func lowerTrim(p *string) *string {
	v := trim(p)
	if v == nil {
		return nil
	}
	lower := strings.ToLower(*v)
	return &lower
}
