package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/domain/enum"
	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/auth"
	"github.com/medbase/medbase/internal/platform/patch"
	"github.com/medbase/medbase/internal/platform/query"
	"github.com/medbase/medbase/internal/platform/validate"
	"github.com/medbase/medbase/pkg/pagination"
)

const minPasswordLength = 8

type Service struct {
	users   UserRepository
	doctors DoctorRepository
	tokens  *auth.Issuer
	now     func() time.Time
}

func NewService(users UserRepository, doctors DoctorRepository, tokens *auth.Issuer) *Service {
	return &Service{users: users, doctors: doctors, tokens: tokens, now: time.Now}
}

// -- Auth --

// Login checks credentials and issues an access token.
func (s *Service) Login(ctx context.Context, cred Credentials) (*auth.Token, error) {
	u, err := s.users.GetByUsername(ctx, cred.Username)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Incorrect username or password")
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, cred.Password) {
		return nil, apperr.Unauthorized("Incorrect username or password")
	}
	if !u.IsActive {
		return nil, apperr.Forbidden("Inactive user account")
	}

	if err := s.users.TouchLogin(ctx, u.ID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("username", u.Username).Msg("user logged in")
	return s.tokens.Issue(u.Username, []string{u.Role})
}

// LookupPrincipal reports the stored role and status of a token subject.
func (s *Service) LookupPrincipal(ctx context.Context, username string) (*auth.Principal, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &auth.Principal{Username: u.Username, Roles: []string{u.Role}, Active: u.IsActive}, nil
}

// -- Users --

func validateProfile(p Profile) error {
	return validate.First(
		validate.Email("email", p.Email),
		validate.Required("first_name", p.FirstName),
		validate.Length("first_name", p.FirstName, 1, 100),
		validate.Required("last_name", p.LastName),
		validate.Length("last_name", p.LastName, 1, 100),
	)
}

func validateUser(f UserFields) error {
	return validate.First(
		validateProfile(f.Profile),
		validate.Enum("role", f.Role, enum.UserRole),
	)
}

func (s *Service) CreateUser(ctx context.Context, req UserCreate, actor string) (*User, error) {
	if err := validate.First(
		validate.Length("username", req.Username, 3, 50),
		validate.Length("password", req.Password, minPasswordLength, 0),
		validateUser(req.UserFields),
	); err != nil {
		return nil, err
	}

	_, err := s.users.GetByUsername(ctx, req.Username)
	if taken, err := apperr.Exists(err); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.Duplicate("username")
	}
	_, err = s.users.GetByEmail(ctx, req.Email)
	if taken, err := apperr.Exists(err); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.Duplicate("email")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &User{Username: req.Username, UserFields: req.UserFields, PasswordHash: hash}
	u.StampCreate(actor)
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("username", u.Username).Str("role", u.Role).Msg("user created")
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *Service) ListUsers(ctx context.Context, f UserFilter, p pagination.Params, o query.Order) ([]*User, int, error) {
	return s.users.List(ctx, f, p, o)
}

// UpdateUser applies raw onto the admin-editable fields of user id.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousEmail := u.Email
	if err := patch.Apply(&u.UserFields, raw); err != nil {
		return nil, err
	}
	if err := validateUser(u.UserFields); err != nil {
		return nil, err
	}
	return u, s.saveUser(ctx, u, previousEmail, actor)
}

// UpdateProfile applies raw onto the profile of the calling user. Role and
// status cannot be changed this way.
func (s *Service) UpdateProfile(ctx context.Context, username string, raw []byte) (*User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	previousEmail := u.Email
	if err := patch.Apply(&u.Profile, raw); err != nil {
		return nil, err
	}
	if err := validateProfile(u.Profile); err != nil {
		return nil, err
	}
	return u, s.saveUser(ctx, u, previousEmail, username)
}

func (s *Service) saveUser(ctx context.Context, u *User, previousEmail, actor string) error {
	if u.Email != previousEmail {
		other, err := s.users.GetByEmail(ctx, u.Email)
		if taken, err := apperr.Exists(err); err != nil {
			return err
		} else if taken && other.ID != u.ID {
			return &apperr.DuplicateError{Field: "email", Message: "Email already in use"}
		}
	}
	u.StampUpdate(actor)
	return s.users.Update(ctx, u)
}

// ChangePassword replaces the password of username after checking the
// current one.
func (s *Service) ChangePassword(ctx context.Context, username string, req PasswordChange) error {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, req.CurrentPassword) {
		return apperr.Validation("Current password is incorrect")
	}
	if err := validate.Length("new_password", req.NewPassword, minPasswordLength, 0); err != nil {
		return err
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.StampUpdate(username)
	return s.users.Update(ctx, u)
}

// DeleteUser removes user id. Callers cannot delete their own account.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID, actor string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Username == actor {
		return apperr.Validation("Cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("username", u.Username).Msg("user deleted")
	return nil
}

// -- Doctors --

func validateDoctor(f DoctorFields) error {
	return validate.First(
		validate.Required("first_name", f.FirstName),
		validate.Required("last_name", f.LastName),
		validate.Required("specialization", f.Specialization),
		validate.OptionalEnum("gender", f.Gender, enum.Gender),
		validate.OptionalEmail("email", f.Email),
	)
}

func (s *Service) checkDoctorUser(ctx context.Context, userID *uuid.UUID) error {
	if userID == nil {
		return nil
	}
	if _, err := s.users.GetByID(ctx, *userID); err != nil {
		if apperr.IsNotFound(err) {
			return apperr.Validation("User not found")
		}
		return err
	}
	return nil
}

func (s *Service) CreateDoctor(ctx context.Context, f DoctorFields, actor string) (*Doctor, error) {
	if err := validateDoctor(f); err != nil {
		return nil, err
	}
	if err := s.checkDoctorUser(ctx, f.UserID); err != nil {
		return nil, err
	}
	d := &Doctor{DoctorFields: f}
	d.StampCreate(actor)
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, f DoctorFilter, p pagination.Params, o query.Order) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, f, p, o)
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, raw []byte, actor string) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousUser := d.UserID
	if err := patch.Apply(&d.DoctorFields, raw); err != nil {
		return nil, err
	}
	if err := validateDoctor(d.DoctorFields); err != nil {
		return nil, err
	}
	if d.UserID != nil && (previousUser == nil || *previousUser != *d.UserID) {
		if err := s.checkDoctorUser(ctx, d.UserID); err != nil {
			return nil, err
		}
	}
	d.StampUpdate(actor)
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.doctors.Delete(ctx, id)
}

var _ auth.PrincipalLookup = (*Service)(nil)
