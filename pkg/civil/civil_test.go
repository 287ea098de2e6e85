package civil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestDate_JSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"1990-04-12"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, _ := json.Marshal(d)
	if string(out) != `"1990-04-12"` {
		t.Errorf("marshal = %s", out)
	}
	if err := json.Unmarshal([]byte(`"12/04/1990"`), &d); err == nil {
		t.Error("expected error for wrong layout")
	}
}

func TestDate_AcceptsTimestamp(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2026-03-01T10:00:00Z"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.String() != "2026-03-01" {
		t.Errorf("got %s", d)
	}
}

func TestDate_PG(t *testing.T) {
	src := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	var d Date
	if err := d.ScanDate(pgtype.Date{Time: src, Valid: true}); err != nil {
		t.Fatal(err)
	}
	v, _ := d.DateValue()
	if !v.Valid || !v.Time.Equal(src) {
		t.Errorf("round trip mismatch: %v", v)
	}
}

func TestTime_ParseAndCompare(t *testing.T) {
	start, err := ParseTime("09:30")
	if err != nil {
		t.Fatal(err)
	}
	end, err := ParseTime("10:00:00")
	if err != nil {
		t.Fatal(err)
	}
	if !end.After(start) || start.After(end) {
		t.Error("expected 10:00 after 09:30")
	}
	if start.String() != "09:30:00" {
		t.Errorf("got %s", start)
	}
	if _, err := ParseTime("25:00"); err == nil {
		t.Error("expected error for 25:00")
	}
}

func TestTime_PG(t *testing.T) {
	var tm Time
	if err := tm.ScanTime(pgtype.Time{Microseconds: (14*3600 + 5*60 + 9) * 1_000_000, Valid: true}); err != nil {
		t.Fatal(err)
	}
	if tm.String() != "14:05:09" {
		t.Errorf("got %s", tm)
	}
	v, _ := tm.TimeValue()
	if v.Microseconds != (14*3600+5*60+9)*1_000_000 {
		t.Errorf("unexpected microseconds %d", v.Microseconds)
	}
}
