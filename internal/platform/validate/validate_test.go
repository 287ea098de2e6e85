package validate

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/medbase/medbase/internal/platform/apperr"
)

func strPtr(s string) *string { return &s }

func TestFirst(t *testing.T) {
	if err := First(nil, nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	err := First(nil, Required("name", ""), Required("code", ""))
	if err == nil || err.Error() != "name is required" {
		t.Errorf("expected first failure, got %v", err)
	}
	if !apperr.IsValidation(err) {
		t.Error("expected a validation error")
	}
}

func TestRequired(t *testing.T) {
	for _, v := range []string{"", "   ", "\t"} {
		if Required("first_name", v) == nil {
			t.Errorf("Required(%q) expected error", v)
		}
	}
	if err := Required("first_name", "Amina"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLength(t *testing.T) {
	if Length("username", "ab", 3, 50) == nil {
		t.Error("expected too-short error")
	}
	if Length("username", string(make([]byte, 51)), 3, 50) == nil {
		t.Error("expected too-long error")
	}
	if err := Length("username", "amina", 3, 50); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Length("password", "Ünïcödé", 7, 0); err != nil {
		t.Errorf("expected runes to be counted, got %v", err)
	}
}

func TestEnum(t *testing.T) {
	allowed := map[string]bool{"male": true, "female": true}
	if err := Enum("gender", "female", allowed); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := Enum("gender", "other", allowed)
	if err == nil || err.Error() != "invalid gender: other" {
		t.Errorf("unexpected error: %v", err)
	}
	if err := OptionalEnum("gender", nil, allowed); err != nil {
		t.Errorf("nil should pass, got %v", err)
	}
	if OptionalEnum("gender", strPtr(""), allowed) == nil {
		t.Error("empty string should not pass")
	}
}

func TestEmail(t *testing.T) {
	for _, ok := range []string{"clinic@example.org", "a.b+c@d.co"} {
		if err := Email("email", ok); err != nil {
			t.Errorf("Email(%q) unexpected error: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "no-at-sign", "Amina <amina@example.org>"} {
		if Email("email", bad) == nil {
			t.Errorf("Email(%q) expected error", bad)
		}
	}
	if err := OptionalEmail("email", nil); err != nil {
		t.Errorf("nil should pass, got %v", err)
	}
}

func TestNumbers(t *testing.T) {
	if IntRange("pain_level", 11, 0, 10) == nil {
		t.Error("expected out-of-range error")
	}
	if err := OptionalIntRange("pain_level", nil, 0, 10); err != nil {
		t.Errorf("nil should pass, got %v", err)
	}
	if Positive("quantity", 0) == nil {
		t.Error("expected 0 to be rejected")
	}
	if err := NonNegative("refills_remaining", 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	neg := decimal.RequireFromString("-0.01")
	if NonNegativeDecimal("total_value", &neg) == nil {
		t.Error("expected negative amount to be rejected")
	}
	if err := NonNegativeDecimal("total_value", nil); err != nil {
		t.Errorf("nil should pass, got %v", err)
	}
}

func TestDecimalRange(t *testing.T) {
	temp := decimal.RequireFromString("37.5")
	if err := DecimalRange("temperature_celsius", &temp, 30, 45); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	hot := decimal.RequireFromString("45.1")
	if DecimalRange("temperature_celsius", &hot, 30, 45) == nil {
		t.Error("expected 45.1 to be out of range")
	}
	if err := DecimalRange("temperature_celsius", nil, 30, 45); err != nil {
		t.Errorf("nil should pass, got %v", err)
	}
}
