package store

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrValidation marks a counter that cannot be saved.
var ErrValidation = errors.New("invalid counter")

// ValidationError carries the user-facing reason a counter was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func counterValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// ValidateCounter checks that c may be persisted: a non-blank name and a value
// inside [MinValue, MaxValue].
func ValidateCounter(c Counter) error {
	err := counterValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	switch fe := fieldErrs[0]; fe.Field() {
	case "Name":
		return &ValidationError{Field: "name", Message: "Counter name can't be empty"}
	case "SavedValue":
		return &ValidationError{Field: "value", Message: "Counter value must be between 0 and 9999999"}
	default:
		return &ValidationError{Field: strings.ToLower(fe.Field()), Message: fe.Error()}
	}
}
