package donation

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

// -- recording querier: keeps every statement, finds no rows --

type statement struct {
	sql  string
	args []interface{}
}

type sqlRow struct {
	scan func(dest ...interface{}) error
}

func (r sqlRow) Scan(dest ...interface{}) error { return r.scan(dest...) }

type noRows struct {
	pgx.Rows
}

func (noRows) Next() bool { return false }
func (noRows) Close()     {}
func (noRows) Err() error { return nil }

type recordingQuerier struct {
	statements []statement
	count      int
	tag        pgconn.CommandTag
}

func (q *recordingQuerier) record(sql string, args []interface{}) {
	q.statements = append(q.statements, statement{sql: strings.Join(strings.Fields(sql), " "), args: args})
}

func (q *recordingQuerier) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	q.record(sql, args)
	return q.tag, nil
}

func (q *recordingQuerier) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	q.record(sql, args)
	if strings.HasPrefix(strings.TrimSpace(sql), "SELECT COUNT(*)") {
		return sqlRow{scan: func(dest ...interface{}) error {
			*(dest[0].(*int)) = q.count
			return nil
		}}
	}
	return sqlRow{scan: func(dest ...interface{}) error { return pgx.ErrNoRows }}
}

func (q *recordingQuerier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	q.record(sql, args)
	return noRows{}, nil
}

func (q *recordingQuerier) only(t *testing.T) statement {
	t.Helper()
	if len(q.statements) != 1 {
		t.Fatalf("expected one statement, got %d: %v", len(q.statements), q.statements)
	}
	return q.statements[0]
}

const liveOnly = "AND NOT is_deleted"

// checkItemRepo asserts that every read and write of an item table skips
// flagged rows and that deleting flags the row instead of removing it.
func checkItemRepo[T any](t *testing.T, table string, newRepo func(db.Querier) ItemRepository[T]) {
	ctx := context.Background()
	id := uuid.New()
	donationID := uuid.New()

	t.Run("GetByID", func(t *testing.T) {
		q := &recordingQuerier{}
		if _, err := newRepo(q).GetByID(ctx, id); !apperr.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
		s := q.only(t)
		if !strings.Contains(s.sql, "FROM "+table+" WHERE id = $1 "+liveOnly) {
			t.Errorf("unexpected SQL: %s", s.sql)
		}
	})

	t.Run("Update", func(t *testing.T) {
		q := &recordingQuerier{}
		if err := newRepo(q).Update(ctx, new(T)); !apperr.IsNotFound(err) {
			t.Fatalf("expected not found for a flagged row, got %v", err)
		}
		s := q.only(t)
		if !strings.HasPrefix(s.sql, "UPDATE "+table+" SET") || !strings.Contains(s.sql, "WHERE id = $1 "+liveOnly) {
			t.Errorf("unexpected SQL: %s", s.sql)
		}
	})

	t.Run("List", func(t *testing.T) {
		q := &recordingQuerier{count: 1}
		p, _ := pagination.New(1, 50)
		items, total, err := newRepo(q).List(ctx, donationID, p, query.Order{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 1 || items == nil {
			t.Errorf("expected total 1 and a non-nil slice, got %d %v", total, items)
		}
		if len(q.statements) != 2 {
			t.Fatalf("expected count and page queries, got %d", len(q.statements))
		}
		for _, s := range q.statements {
			if !strings.Contains(s.sql, "FROM "+table+" WHERE 1=1 AND donation_id = $1 "+liveOnly) {
				t.Errorf("unexpected SQL: %s", s.sql)
			}
			if s.args[0] != donationID {
				t.Errorf("expected donation id as first argument, got %v", s.args[0])
			}
		}
	})

	t.Run("ForDonation", func(t *testing.T) {
		q := &recordingQuerier{}
		items, err := newRepo(q).ForDonation(ctx, donationID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if items == nil || len(items) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", items)
		}
		s := q.only(t)
		if !strings.Contains(s.sql, "FROM "+table+" WHERE donation_id = $1 "+liveOnly) {
			t.Errorf("unexpected SQL: %s", s.sql)
		}
	})

	t.Run("SoftDelete", func(t *testing.T) {
		q := &recordingQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
		if err := newRepo(q).SoftDelete(ctx, id, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := q.only(t)
		if !strings.HasPrefix(s.sql, "UPDATE "+table+" SET is_deleted = TRUE") {
			t.Errorf("expected the row to be flagged, got: %s", s.sql)
		}
		if strings.Contains(s.sql, "DELETE FROM") {
			t.Errorf("row must stay in storage, got: %s", s.sql)
		}
		if !strings.HasSuffix(s.sql, "WHERE id = $1 "+liveOnly) {
			t.Errorf("unexpected SQL: %s", s.sql)
		}
		if s.args[0] != id || s.args[1] != db.SystemActor {
			t.Errorf("expected id and system actor, got %v", s.args)
		}
	})

	t.Run("SoftDeleteAlreadyDeleted", func(t *testing.T) {
		q := &recordingQuerier{tag: pgconn.NewCommandTag("UPDATE 0")}
		err := newRepo(q).SoftDelete(ctx, id, "nurse.joy")
		if !apperr.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
		if s := q.only(t); s.args[1] != "nurse.joy" {
			t.Errorf("expected actor nurse.joy, got %v", s.args[1])
		}
	})
}

func TestMedicineItemRepo_HidesDeletedRows(t *testing.T) {
	checkItemRepo(t, "donation_medicine_items", NewMedicineItemRepo)
}

func TestEquipmentItemRepo_HidesDeletedRows(t *testing.T) {
	checkItemRepo(t, "donation_equipment_items", NewEquipmentItemRepo)
}

func TestDeviceItemRepo_HidesDeletedRows(t *testing.T) {
	checkItemRepo(t, "donation_medical_device_items", NewDeviceItemRepo)
}

func TestItemNotFoundMessages(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		get  func(q db.Querier) error
		want string
	}{
		{"medicine", func(q db.Querier) error { _, err := NewMedicineItemRepo(q).GetByID(ctx, uuid.New()); return err }, "Medicine item not found"},
		{"equipment", func(q db.Querier) error { _, err := NewEquipmentItemRepo(q).GetByID(ctx, uuid.New()); return err }, "Equipment item not found"},
		{"device", func(q db.Querier) error { _, err := NewDeviceItemRepo(q).GetByID(ctx, uuid.New()); return err }, "Medical device item not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.get(&recordingQuerier{})
			if err == nil || err.Error() != tt.want {
				t.Errorf("expected %q, got %v", tt.want, err)
			}
		})
	}
}
