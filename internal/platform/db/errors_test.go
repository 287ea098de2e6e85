package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medbase/medbase/internal/platform/apperr"
)

var testConstraints = Constraints{
	"patients_patient_number_key": "patient_number",
	"patients_national_id_key":    "national_id",
}

func TestClassify_NoRows(t *testing.T) {
	err := Classify(fmt.Errorf("scan: %w", pgx.ErrNoRows), "patient", testConstraints)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "Patient not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestClassify_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "patients_national_id_key"}
	err := Classify(pgErr, "patient", testConstraints)

	var dup *apperr.DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %T", err)
	}
	if dup.Field != "national_id" {
		t.Errorf("expected field national_id, got %s", dup.Field)
	}
	if dup.Constraint != "patients_national_id_key" {
		t.Errorf("expected constraint to be kept, got %s", dup.Constraint)
	}
}

func TestClassify_UnknownConstraintFallsBackToName(t *testing.T) {
	pgErr := &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "other_key"}
	var dup *apperr.DuplicateError
	if !errors.As(Classify(pgErr, "patient", testConstraints), &dup) || dup.Field != "other_key" {
		t.Fatalf("expected constraint name as field, got %+v", dup)
	}
}

func TestClassify_ForeignKeyAndCheck(t *testing.T) {
	fk := Classify(&pgconn.PgError{Code: CodeForeignKeyViolation}, "appointment", nil)
	if !apperr.IsValidation(fk) {
		t.Errorf("expected validation error for FK violation, got %v", fk)
	}
	check := Classify(&pgconn.PgError{Code: CodeCheckViolation, ConstraintName: "chk_status"}, "appointment", nil)
	if !apperr.IsValidation(check) {
		t.Errorf("expected validation error for check violation, got %v", check)
	}
}

func TestClassify_PassThrough(t *testing.T) {
	if Classify(nil, "x", nil) != nil {
		t.Error("expected nil for nil error")
	}
	plain := errors.New("boom")
	if Classify(plain, "x", nil) != plain {
		t.Error("expected unrecognised error to pass through")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	raw := &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "patients_patient_number_key"}
	if !IsUniqueViolation(fmt.Errorf("insert: %w", raw), "patients_patient_number_key") {
		t.Error("expected raw violation to match")
	}
	if IsUniqueViolation(raw, "patients_national_id_key") {
		t.Error("expected other constraint not to match")
	}
	classified := Classify(raw, "patient", testConstraints)
	if !IsUniqueViolation(classified, "patients_patient_number_key") {
		t.Error("expected classified violation to match")
	}
	if IsUniqueViolation(errors.New("boom"), "patients_patient_number_key") {
		t.Error("expected plain error not to match")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"unique violation", &pgconn.PgError{Code: CodeUniqueViolation}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}
