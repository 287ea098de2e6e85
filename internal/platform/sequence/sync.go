package sequence

import (
	"context"
	"fmt"

	"github.com/medbase/medbase/internal/platform/db"
)

// Source names the table column holding the display numbers of one format.
type Source struct {
	Format Format
	Table  string
	Column string
}

// Sources lists every sequenced column in the schema.
var Sources = []Source{
	{Format: Patient, Table: "patients", Column: "patient_number"},
	{Format: Appointment, Table: "appointments", Column: "appointment_number"},
	{Format: MedicalRecord, Table: "medical_records", Column: "record_number"},
	{Format: Prescription, Table: "prescriptions", Column: "prescription_number"},
	{Format: Donation, Table: "donations", Column: "donation_number"},
}

// Seed is the highest value found in one scope.
type Seed struct {
	Scope string
	Value int64
}

// Syncer raises counters to match display numbers already stored in tables,
// for example after importing rows from another system.
type Syncer struct {
	pool    db.Querier
	counter Counter
}

func NewSyncer(pool db.Querier, counter Counter) *Syncer {
	return &Syncer{pool: pool, counter: counter}
}

// Sync scans every source before touching any counter. A value that does not
// parse aborts the whole run with a *MalformedError.
func (s *Syncer) Sync(ctx context.Context, sources []Source) ([]Seed, error) {
	var all []Seed
	for _, src := range sources {
		values, err := s.values(ctx, src)
		if err != nil {
			return nil, err
		}
		seeds, err := MaxPerScope(src.Format, values)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", src.Table, src.Column, err)
		}
		all = append(all, seeds...)
	}

	for _, seed := range all {
		if err := s.counter.Seed(ctx, seed.Scope, seed.Value); err != nil {
			return nil, err
		}
	}
	return all, nil
}

func (s *Syncer) values(ctx context.Context, src Source) ([]string, error) {
	rows, err := db.Conn(ctx, s.pool).Query(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL", src.Column, src.Table, src.Column))
	if err != nil {
		return nil, fmt.Errorf("read %s.%s: %w", src.Table, src.Column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// MaxPerScope parses values and returns the largest counter value per scope,
// in first-seen scope order.
func MaxPerScope(f Format, values []string) ([]Seed, error) {
	highest := map[string]int64{}
	var order []string
	for _, v := range values {
		scope, n, err := f.Parse(v)
		if err != nil {
			return nil, err
		}
		if _, ok := highest[scope]; !ok {
			order = append(order, scope)
		}
		if n > highest[scope] {
			highest[scope] = n
		}
	}

	seeds := make([]Seed, 0, len(order))
	for _, scope := range order {
		seeds = append(seeds, Seed{Scope: scope, Value: highest[scope]})
	}
	return seeds, nil
}
