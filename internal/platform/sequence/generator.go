package sequence

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/platform/db"
)

const DefaultMaxAttempts = 5

// InsertFunc persists a record carrying number.
type InsertFunc func(ctx context.Context, number string) error

// Generator formats counter values and couples them with the insert that
// uses them.
type Generator struct {
	counter     Counter
	pool        db.Beginner
	now         func() time.Time
	maxAttempts uint
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the clock used to pick the yearly scope.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithMaxAttempts bounds the number of insert attempts in Assign.
func WithMaxAttempts(n uint) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// NewGenerator creates a Generator. pool is used to open a savepoint around
// each insert attempt; when nil, inserts run directly in the caller's context.
func NewGenerator(counter Counter, pool db.Beginner, opts ...Option) *Generator {
	g := &Generator{
		counter:     counter,
		pool:        pool,
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns the next display number for f.
func (g *Generator) Next(ctx context.Context, f Format) (string, error) {
	scope := f.Scope(g.now())
	n, err := g.counter.Next(ctx, scope)
	if err != nil {
		return "", err
	}
	return f.Render(scope, n), nil
}

// Assign draws a number and runs insert with it. A unique violation on
// f.Constraint discards the number and retries with a fresh one; the counter
// advance is kept, so the colliding value is never handed out again. Any other
// error ends the loop.
func (g *Generator) Assign(ctx context.Context, f Format, insert InsertFunc) (string, error) {
	attempt := 0
	op := func() (string, error) {
		attempt++
		number, err := g.Next(ctx, f)
		if err != nil {
			return "", backoff.Permanent(err)
		}
		err = g.insert(ctx, number, insert)
		if err == nil {
			return number, nil
		}
		if db.IsUniqueViolation(err, f.Constraint) {
			zerolog.Ctx(ctx).Warn().
				Str("number", number).
				Int("attempt", attempt).
				Msg("display number collision, retrying")
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(newBackOff()),
		backoff.WithMaxTries(g.maxAttempts),
	)
}

func (g *Generator) insert(ctx context.Context, number string, insert InsertFunc) error {
	if g.pool == nil {
		return insert(ctx, number)
	}
	return db.InTx(ctx, g.pool, func(ctx context.Context) error {
		return insert(ctx, number)
	})
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	return b
}
