// Package validate holds the small checks services run on request bodies.
// Each returns nil or an *apperr.ValidationError naming the field.
package validate

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/medbase/medbase/internal/platform/apperr"
)

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Required rejects empty or blank values.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.Validation("%s is required", field)
	}
	return nil
}

// Length checks the rune length of value. max <= 0 means no upper bound.
func Length(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min {
		return apperr.Validation("%s must be at least %d characters", field, min)
	}
	if max > 0 && n > max {
		return apperr.Validation("%s must be at most %d characters", field, max)
	}
	return nil
}

// Enum rejects values outside allowed.
func Enum(field, value string, allowed map[string]bool) error {
	if !allowed[value] {
		return apperr.Validation("invalid %s: %s", field, value)
	}
	return nil
}

// OptionalEnum is Enum for nullable columns.
func OptionalEnum(field string, value *string, allowed map[string]bool) error {
	if value == nil {
		return nil
	}
	return Enum(field, *value, allowed)
}

// Email accepts a bare address such as clinic@example.org.
func Email(field, value string) error {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return apperr.Validation("%s is not a valid email address", field)
	}
	return nil
}

// OptionalEmail is Email for nullable columns. An empty string is rejected.
func OptionalEmail(field string, value *string) error {
	if value == nil {
		return nil
	}
	return Email(field, *value)
}

// IntRange checks min <= value <= max.
func IntRange(field string, value, min, max int) error {
	if value < min || value > max {
		return apperr.Validation("%s must be between %d and %d", field, min, max)
	}
	return nil
}

// Positive rejects values below 1.
func Positive(field string, value int) error {
	if value < 1 {
		return apperr.Validation("%s must be greater than 0", field)
	}
	return nil
}

// NonNegative rejects values below 0.
func NonNegative(field string, value int) error {
	if value < 0 {
		return apperr.Validation("%s must not be negative", field)
	}
	return nil
}

// OptionalIntRange is IntRange for nullable columns.
func OptionalIntRange(field string, value *int, min, max int) error {
	if value == nil {
		return nil
	}
	return IntRange(field, *value, min, max)
}

// NonNegativeDecimal rejects negative amounts; nil is accepted.
func NonNegativeDecimal(field string, value *decimal.Decimal) error {
	if value != nil && value.IsNegative() {
		return apperr.Validation("%s must not be negative", field)
	}
	return nil
}

// DecimalRange checks min <= value <= max; nil is accepted.
func DecimalRange(field string, value *decimal.Decimal, min, max int64) error {
	if value == nil {
		return nil
	}
	if value.LessThan(decimal.NewFromInt(min)) || value.GreaterThan(decimal.NewFromInt(max)) {
		return apperr.Validation("%s must be between %d and %d", field, min, max)
	}
	return nil
}
