package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/pkg/pagination"
)

// -- User Repository --

type userRepoPG struct {
	pool db.Querier
}

func NewUserRepo(pool db.Querier) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const userCols = `id, username, email, first_name, last_name, role, is_active, password_hash, last_login_at, ` + db.AuditCols

var userConstraints = db.Constraints{
	"users_username_key": "username",
	"users_email_key":    "email",
}

var userSort = query.Sort{
	Columns: map[string]string{
		"username":   "username",
		"email":      "email",
		"last_name":  "last_name",
		"created_at": "created_at",
	},
	DefaultField: "created_at",
	DefaultOrder: query.Desc,
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	dest := []interface{}{&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.Role, &u.IsActive, &u.PasswordHash, &u.LastLoginAt}
	if err := row.Scan(append(dest, u.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "user", userConstraints)
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (id, username, email, first_name, last_name, role, is_active, password_hash,
			created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.Role, u.IsActive, u.PasswordHash,
		u.CreatedBy, u.UpdatedBy,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return db.Classify(err, "user", userConstraints)
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE users SET
			email = $2, first_name = $3, last_name = $4, role = $5, is_active = $6,
			password_hash = $7, updated_by = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		u.ID, u.Email, u.FirstName, u.LastName, u.Role, u.IsActive, u.PasswordHash, u.UpdatedBy,
	).Scan(&u.UpdatedAt)
	return db.Classify(err, "user", userConstraints)
}

func (r *userRepoPG) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *userRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "user", userConstraints)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

func (r *userRepoPG) List(ctx context.Context, f UserFilter, p pagination.Params, o query.Order) ([]*User, int, error) {
	b := query.New("users", userCols).
		Search(f.Search, "username", "email", "first_name", "last_name").
		EqString("role", f.Role)
	query.Eq(b, "is_active", f.IsActive)
	userSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanUser)
}

// -- Doctor Repository --

type doctorRepoPG struct {
	pool db.Querier
}

func NewDoctorRepo(pool db.Querier) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const doctorCols = `id, user_id, first_name, last_name, gender, specialization, phone, email,
	address, qualification, bio, ` + db.AuditCols

var doctorSort = query.Sort{
	Columns: map[string]string{
		"first_name":     "first_name",
		"last_name":      "last_name, first_name",
		"specialization": "specialization",
		"created_at":     "created_at",
	},
	DefaultField: "last_name",
	DefaultOrder: query.Asc,
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	dest := []interface{}{&d.ID, &d.UserID, &d.FirstName, &d.LastName, &d.Gender, &d.Specialization,
		&d.Phone, &d.Email, &d.Address, &d.Qualification, &d.Bio}
	if err := row.Scan(append(dest, d.AuditDest()...)...); err != nil {
		return nil, db.Classify(err, "doctor", nil)
	}
	return &d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (id, user_id, first_name, last_name, gender, specialization, phone, email,
			address, qualification, bio, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		d.ID, d.UserID, d.FirstName, d.LastName, d.Gender, d.Specialization, d.Phone, d.Email,
		d.Address, d.Qualification, d.Bio, d.CreatedBy, d.UpdatedBy,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return db.Classify(err, "doctor", nil)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctors SET
			user_id = $2, first_name = $3, last_name = $4, gender = $5, specialization = $6,
			phone = $7, email = $8, address = $9, qualification = $10, bio = $11,
			updated_by = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.UserID, d.FirstName, d.LastName, d.Gender, d.Specialization,
		d.Phone, d.Email, d.Address, d.Qualification, d.Bio, d.UpdatedBy,
	).Scan(&d.UpdatedAt)
	return db.Classify(err, "doctor", nil)
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "doctor", nil)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("doctor")
	}
	return nil
}

func (r *doctorRepoPG) List(ctx context.Context, f DoctorFilter, p pagination.Params, o query.Order) ([]*Doctor, int, error) {
	b := query.New("doctors", doctorCols).
		ILike("specialization", f.Specialization).
		Search(f.Search, "first_name", "last_name", "specialization", "email")
	doctorSort.Apply(b, o)
	return query.Run(ctx, r.conn(ctx), b, p, scanDoctor)
}
