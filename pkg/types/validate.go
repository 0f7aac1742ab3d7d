package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Record validation errors.
var (
	ErrInvalidEntry       = errors.New("invalid entry")
	ErrInvalidWeight      = errors.New("invalid weight")
	ErrInvalidImportShape = errors.New("invalid import shape")
)

// ValidationError reports a record field that failed validation. Nothing is
// persisted when a write returns one.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap returns the sentinel describing the kind of record rejected.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// MissingID returns a ValidationError for an empty key field.
func MissingID(field string) error {
	return &ValidationError{Field: field, Message: "must not be empty", Err: ErrInvalidID}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// finite rejects NaN and both infinities; gte/gt alone let +Inf through.
	if err := v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			return IsFinite(fl.Field().Float())
		default:
			return true
		}
	}); err != nil {
		panic(err)
	}
	return v
}

func validateRecord(record any, kind error) error {
	err := validate.Struct(record)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := fmt.Sprintf("must satisfy %s", fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		return &ValidationError{Field: fe.Field(), Message: msg, Err: kind}
	}
	return &ValidationError{Field: "record", Message: err.Error(), Err: kind}
}
