package query

import "strings"

const (
	Asc  = "asc"
	Desc = "desc"
)

// Sort is the static allow-list of sortable fields for one entity. Columns
// maps API field names to SQL columns; a value may list several columns
// separated by commas, each of which takes the requested direction.
type Sort struct {
	Columns      map[string]string
	DefaultField string
	DefaultOrder string
	// Key is the tie-breaker column appended to every ordering. Defaults to "id".
	Key string
}

// Resolve returns an ORDER BY clause for the requested field and direction.
// Unknown fields fall back to DefaultField and unknown directions to
// DefaultOrder; neither is an error.
func (s Sort) Resolve(sortBy, sortOrder string) string {
	cols, ok := s.Columns[sortBy]
	if !ok {
		cols = s.Columns[s.DefaultField]
	}

	dir := strings.ToLower(strings.TrimSpace(sortOrder))
	if dir != Asc && dir != Desc {
		dir = strings.ToLower(s.DefaultOrder)
		if dir != Desc {
			dir = Asc
		}
	}

	key := s.Key
	if key == "" {
		key = "id"
	}

	var parts []string
	for _, col := range strings.Split(cols, ",") {
		col = strings.TrimSpace(col)
		if col == "" || col == key {
			continue
		}
		parts = append(parts, col+" "+strings.ToUpper(dir))
	}
	parts = append(parts, key+" ASC")
	return strings.Join(parts, ", ")
}

// Order is the caller's requested sort_by and sort_order, unvalidated.
type Order struct {
	By        string
	Direction string
}

// Apply resolves o and sets the ordering on b.
func (s Sort) Apply(b *Builder, o Order) *Builder {
	return b.OrderBy(s.Resolve(o.By, o.Direction))
}
