// Package sequence assigns human-readable display numbers such as P000001 or
// APT-2026-000006 from an atomic per-scope counter.
package sequence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedSequence is returned when an existing display number cannot be
// parsed back into its scope and counter value.
var ErrMalformedSequence = errors.New("malformed sequence value")

// MalformedError carries the offending value.
type MalformedError struct {
	Value string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMalformedSequence, e.Value)
}

func (e *MalformedError) Unwrap() error { return ErrMalformedSequence }

const defaultWidth = 6

// Format describes one family of display numbers.
type Format struct {
	Prefix string
	// Yearly formats embed the calendar year and restart at 1 each year.
	Yearly bool
	Width  int
	// Constraint is the unique constraint guarding the display-number column.
	Constraint string
}

// Global returns a format rendered as <prefix><NNNNNN>.
func Global(prefix, constraint string) Format {
	return Format{Prefix: prefix, Width: defaultWidth, Constraint: constraint}
}

// Yearly returns a format rendered as <prefix>-<YYYY>-<NNNNNN>.
func Yearly(prefix, constraint string) Format {
	return Format{Prefix: prefix, Yearly: true, Width: defaultWidth, Constraint: constraint}
}

var (
	Patient       = Global("P", "patients_patient_number_key")
	Appointment   = Yearly("APT", "appointments_appointment_number_key")
	MedicalRecord = Yearly("MR", "medical_records_record_number_key")
	Prescription  = Yearly("RX", "prescriptions_prescription_number_key")
	Donation      = Yearly("DON", "donations_donation_number_key")
)

func (f Format) width() int {
	if f.Width <= 0 {
		return defaultWidth
	}
	return f.Width
}

// Scope returns the counter key for a number assigned at now.
func (f Format) Scope(now time.Time) string {
	if f.Yearly {
		return fmt.Sprintf("%s-%04d", f.Prefix, now.UTC().Year())
	}
	return f.Prefix
}

// Render formats counter value n within scope.
func (f Format) Render(scope string, n int64) string {
	if f.Yearly {
		return fmt.Sprintf("%s-%0*d", scope, f.width(), n)
	}
	return fmt.Sprintf("%s%0*d", scope, f.width(), n)
}

// Parse splits a display number into its scope and counter value.
func (f Format) Parse(value string) (string, int64, error) {
	var scope, digits string
	if f.Yearly {
		rest, ok := strings.CutPrefix(value, f.Prefix+"-")
		if !ok {
			return "", 0, &MalformedError{Value: value}
		}
		year, num, ok := strings.Cut(rest, "-")
		if !ok || len(year) != 4 || !allDigits(year) {
			return "", 0, &MalformedError{Value: value}
		}
		scope, digits = f.Prefix+"-"+year, num
	} else {
		rest, ok := strings.CutPrefix(value, f.Prefix)
		if !ok {
			return "", 0, &MalformedError{Value: value}
		}
		scope, digits = f.Prefix, rest
	}

	if len(digits) < f.width() || !allDigits(digits) {
		return "", 0, &MalformedError{Value: value}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 1 {
		return "", 0, &MalformedError{Value: value}
	}
	return scope, n, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
