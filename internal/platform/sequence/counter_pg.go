package sequence

import (
	"context"
	"fmt"

	"github.com/medbase/medbase/internal/platform/db"
)

// Counter hands out the next value for a scope. Implementations must be
// atomic: two callers never receive the same value for one scope.
type Counter interface {
	Next(ctx context.Context, scope string) (int64, error)
	// Seed raises the counter for scope to at least value.
	Seed(ctx context.Context, scope string, value int64) error
}

type counterPG struct {
	pool db.Querier
}

// NewCounterPG returns a Counter backed by the sequence_counters table. It
// joins the transaction carried by ctx when there is one.
func NewCounterPG(pool db.Querier) Counter {
	return &counterPG{pool: pool}
}

func (c *counterPG) Next(ctx context.Context, scope string) (int64, error) {
	var n int64
	err := db.Conn(ctx, c.pool).QueryRow(ctx, `
		INSERT INTO sequence_counters (scope, last_value)
		VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE
			SET last_value = sequence_counters.last_value + 1, updated_at = NOW()
		RETURNING last_value`, scope).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", scope, err)
	}
	return n, nil
}

func (c *counterPG) Seed(ctx context.Context, scope string, value int64) error {
	_, err := db.Conn(ctx, c.pool).Exec(ctx, `
		INSERT INTO sequence_counters (scope, last_value)
		VALUES ($1, $2)
		ON CONFLICT (scope) DO UPDATE
			SET last_value = GREATEST(sequence_counters.last_value, EXCLUDED.last_value),
				updated_at = NOW()`, scope, value)
	if err != nil {
		return fmt.Errorf("seed sequence %s: %w", scope, err)
	}
	return nil
}
