package shared

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// validatorInstance returns the process-wide validator.
//
// Fields report their `msg` tag as their name so a failed rule surfaces the user-facing message directly.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if msg := fld.Tag.Get("msg"); msg != "" {
				return msg
			}
			return fld.Name
		})
	})
	return validate
}

// ValidateStruct runs `validate` tags on s. The first failing field's `msg` tag becomes the error text,
// wrapped with [ErrValidation].
//
//	type joinInput struct {
//	    Code string `validate:"required" msg:"Please enter a blend code."`
//	}
func ValidateStruct(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fe := fieldErrs[0]
	msg := fe.Field()
	if fe.Field() == fe.StructField() {
		msg = fmt.Sprintf("%s failed %q", strings.ToLower(fe.StructField()), fe.Tag())
	}
	return &ValidationError{Field: fe.StructField(), Message: msg}
}

// ValidationError is a user-input problem detected before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }
