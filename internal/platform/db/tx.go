package db

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type contextKey string

const TxKey contextKey = "db_tx"

// Querier is the subset of pgx shared by pools, connections and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Beginner starts a transaction. A pgxpool.Pool begins a real transaction and
// a pgx.Tx begins a savepoint.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pool is what repositories hold: something to query and to begin on.
type Pool interface {
	Querier
	Beginner
}

// WithTx returns a copy of ctx carrying tx.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

// TxFromContext retrieves the request transaction from context.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(TxKey).(pgx.Tx)
	return tx
}

// Conn returns the transaction carried by ctx, or pool when there is none.
func Conn(ctx context.Context, pool Querier) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// InTx runs fn inside a transaction. When ctx already carries one, a savepoint
// nested in it is used instead, so a failure inside fn only undoes fn's work.
func InTx(ctx context.Context, pool Beginner, fn func(ctx context.Context) error) error {
	var parent Beginner = pool
	if tx := TxFromContext(ctx); tx != nil {
		parent = tx
	}

	tx, err := parent.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return err
	}
	return tx.Commit(ctx)
}

// TxMiddleware wraps every mutating request in one transaction. The
// transaction commits just before the response header is written when the
// status is below 400, and rolls back otherwise. Safe methods run without one.
func TxMiddleware(pool Beginner, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isMutating(c.Request().Method) {
				return next(c)
			}

			ctx := c.Request().Context()
			tx, err := pool.Begin(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}

			finished := false
			finish := func(commit bool) error {
				if finished {
					return nil
				}
				finished = true
				bg := context.WithoutCancel(ctx)
				if commit {
					return tx.Commit(bg)
				}
				return tx.Rollback(bg)
			}

			res := c.Response()
			res.Before(func() {
				if res.Status >= http.StatusBadRequest {
					_ = finish(false)
					return
				}
				if err := finish(true); err != nil {
					logger.Error().Err(err).
						Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
						Msg("commit failed")
					res.Status = http.StatusInternalServerError
				}
			})

			c.SetRequest(c.Request().WithContext(WithTx(ctx, tx)))

			if err := next(c); err != nil {
				_ = finish(false)
				return err
			}
			if err := finish(true); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "commit failed")
			}
			return nil
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
