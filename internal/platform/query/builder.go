// Package query composes filtered, sorted and paginated SELECTs against a
// single table. The count and data statements share one WHERE clause and one
// argument list.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/pkg/pagination"
)

// Builder accumulates WHERE fragments for one table.
type Builder struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// New creates a Builder selecting cols from table.
func New(table, cols string) *Builder {
	return &Builder{table: table, cols: cols, idx: 1}
}

// Idx returns the next available parameter index.
func (b *Builder) Idx() int { return b.idx }

// Add appends a raw WHERE fragment (without leading "AND"). Placeholders in
// clause must start at Idx().
func (b *Builder) Add(clause string, args ...interface{}) *Builder {
	b.where += " AND " + clause
	b.args = append(b.args, args...)
	b.idx += len(args)
	return b
}

// Where appends a fragment written with a single %d verb for its placeholder.
func (b *Builder) Where(format string, arg interface{}) *Builder {
	return b.Add(fmt.Sprintf(format, b.idx), arg)
}

// EqString adds column = value unless value is empty.
func (b *Builder) EqString(column, value string) *Builder {
	if value == "" {
		return b
	}
	return b.Where(column+" = $%d", value)
}

// ILike adds a case-insensitive substring match unless term is empty.
func (b *Builder) ILike(column, term string) *Builder {
	if term == "" {
		return b
	}
	return b.Where(column+" ILIKE $%d", "%"+escapeLike(term)+"%")
}

// Search adds one substring match OR-ed across columns, sharing a single
// argument. It adds nothing when term is empty.
func (b *Builder) Search(term string, columns ...string) *Builder {
	if term == "" || len(columns) == 0 {
		return b
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, b.idx)
	}
	return b.Add("("+strings.Join(parts, " OR ")+")", "%"+escapeLike(term)+"%")
}

// Null adds "column IS NULL" or "column IS NOT NULL" when set is non-nil.
// A true value selects rows where the column is set.
func (b *Builder) Null(column string, set *bool) *Builder {
	if set == nil {
		return b
	}
	if *set {
		b.where += " AND " + column + " IS NOT NULL"
	} else {
		b.where += " AND " + column + " IS NULL"
	}
	return b
}

// Eq adds column = *value when value is non-nil.
func Eq[T any](b *Builder, column string, value *T) *Builder {
	if value == nil {
		return b
	}
	return b.Where(column+" = $%d", *value)
}

// Gte adds column >= *value when value is non-nil.
func Gte[T any](b *Builder, column string, value *T) *Builder {
	if value == nil {
		return b
	}
	return b.Where(column+" >= $%d", *value)
}

// Lte adds column <= *value when value is non-nil.
func Lte[T any](b *Builder, column string, value *T) *Builder {
	if value == nil {
		return b
	}
	return b.Where(column+" <= $%d", *value)
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (b *Builder) OrderBy(orderBy string) *Builder {
	b.orderBy = orderBy
	return b
}

// CountSQL returns the count query SQL.
func (b *Builder) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", b.table, b.where)
}

// CountArgs returns the arguments for the count query.
func (b *Builder) CountArgs() []interface{} {
	return b.args
}

// DataSQL returns the data query SQL with ORDER BY and LIMIT/OFFSET.
func (b *Builder) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", b.cols, b.table, b.where)
	if b.orderBy != "" {
		sql += " ORDER BY " + b.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", b.idx, b.idx+1)
	return sql
}

// DataArgs returns the arguments for the data query (filter args + limit + offset).
func (b *Builder) DataArgs(p pagination.Params) []interface{} {
	result := make([]interface{}, len(b.args)+2)
	copy(result, b.args)
	result[len(b.args)] = p.Limit()
	result[len(b.args)+1] = p.Offset()
	return result
}

// Run executes the count and page queries and scans every row with scan.
// Pages past the end yield an empty slice and the full total.
func Run[T any](ctx context.Context, q db.Querier, b *Builder, p pagination.Params, scan func(pgx.Row) (*T, error)) ([]*T, int, error) {
	var total int
	if err := q.QueryRow(ctx, b.CountSQL(), b.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", b.table, err)
	}

	items := []*T{}
	if p.Offset() >= total {
		return items, total, nil
	}

	rows, err := q.Query(ctx, b.DataSQL(), b.DataArgs(p)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", b.table, err)
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
