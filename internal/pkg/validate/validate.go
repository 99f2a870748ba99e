// Package validate turns struct-tag validation failures into field-level
// details the API returns with a 400.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldError names one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error collects every invalid field of one request.
type Error struct {
	Details []FieldError
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error.
func (e *Error) Add(field, message string) {
	e.Details = append(e.Details, FieldError{Field: field, Message: message})
}

// Has reports whether field already carries an error.
func (e *Error) Has(field string) bool {
	for _, d := range e.Details {
		if d.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns e when it holds details, nil otherwise.
func (e *Error) OrNil() error {
	if e == nil || len(e.Details) == 0 {
		return nil
	}
	return e
}

// Field builds a single-field validation error.
func Field(field, message string) error {
	return &Error{Details: []FieldError{{Field: field, Message: message}}}
}

// As unwraps err into a validation error.
func As(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var moneyRe = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(f reflect.Value) any {
			if d, ok := f.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})
		// money: non-negative fixed point with at most two decimals
		_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
			return moneyRe.MatchString(fl.Field().String())
		})
	})
	return v
}

// Struct validates s against its `validate` tags. It returns *Error or nil.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &Error{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "money":
		return "must be a non-negative amount with up to two decimals"
	case "uuid", "uuid4":
		return "must be a valid id"
	case "alphanum":
		return "must contain only letters and digits"
	case "excludesall":
		return "contains invalid characters"
	}
	return "is invalid"
}
