package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/medbase/medbase/internal/platform/db"
)

// Profile holds the user fields a user may change about themselves.
type Profile struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserFields is everything an admin may change on a user.
type UserFields struct {
	Profile
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// User maps to the users table.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	UserFields
	PasswordHash string     `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	db.Audit
}

// UserCreate is the body of POST /users.
type UserCreate struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserFields
}

// NewUserCreate returns a create request carrying the column defaults.
func NewUserCreate() UserCreate {
	return UserCreate{UserFields: UserFields{Role: "staff", IsActive: true}}
}

// PasswordChange is the body of POST /users/me/change-password.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Credentials is the login body, accepted as JSON or a form.
type Credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type UserFilter struct {
	Search   string
	Role     string
	IsActive *bool
}

// DoctorFields is the editable part of a doctor.
type DoctorFields struct {
	UserID         *uuid.UUID `json:"user_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Gender         *string    `json:"gender"`
	Specialization string     `json:"specialization"`
	Phone          *string    `json:"phone"`
	Email          *string    `json:"email"`
	Address        *string    `json:"address"`
	Qualification  *string    `json:"qualification"`
	Bio            *string    `json:"bio"`
}

// Doctor maps to the doctors table.
type Doctor struct {
	ID uuid.UUID `json:"id"`
	DoctorFields
	db.Audit
}

type DoctorFilter struct {
	Specialization string
	Search         string
}
