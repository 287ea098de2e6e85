// Package civil provides calendar dates and wall-clock times without a time
// zone, mapped to the Postgres date and time types.
package civil

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Date is a calendar date rendered as YYYY-MM-DD.
type Date struct {
	time.Time
}

// DateOf returns the date part of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(DateLayout) }

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return nil
	}
	// Accept full timestamps too and keep the date part.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		*d = Date{}
		return nil
	}
	*d = DateOf(v.Time)
	return nil
}

func (d Date) DateValue() (pgtype.Date, error) {
	return pgtype.Date{Time: d.Time, Valid: true}, nil
}

// Time is a time of day rendered as HH:MM:SS.
type Time struct {
	Hour, Minute, Second int
}

// ParseTime accepts HH:MM or HH:MM:SS.
func ParseTime(s string) (Time, error) {
	layout := TimeLayout
	if len(s) == len("15:04") {
		layout = "15:04"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Time{}, fmt.Errorf("invalid time %q, expected HH:MM[:SS]", s)
	}
	return Time{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t Time) seconds() int { return t.Hour*3600 + t.Minute*60 + t.Second }

// After reports whether t is strictly later than other.
func (t Time) After(other Time) bool { return t.seconds() > other.seconds() }

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *Time) ScanTime(v pgtype.Time) error {
	if !v.Valid {
		*t = Time{}
		return nil
	}
	total := v.Microseconds / 1_000_000
	*t = Time{Hour: int(total / 3600), Minute: int(total % 3600 / 60), Second: int(total % 60)}
	return nil
}

func (t Time) TimeValue() (pgtype.Time, error) {
	return pgtype.Time{Microseconds: int64(t.seconds()) * 1_000_000, Valid: true}, nil
}
