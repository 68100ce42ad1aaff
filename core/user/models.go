package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ums/core"
)

// Roles
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

// Departments
const (
	DeptCS = "CS" // Computer Science
	DeptAI = "AI" // Artificial Intelligence
	DeptIS = "IS" // Information Systems
	DeptSE = "SE" // Software Engineering
)

// student defaults
const (
	DefaultLevel = 1
	DefaultMajor = "Computer Science"
	DefaultDept  = DeptCS
)

var (
	AllRoles       = []string{RoleAdmin, RoleInstructor, RoleStudent}
	AllDepartments = []string{DeptCS, DeptAI, DeptIS, DeptSE}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Instructor", Value: RoleInstructor},
		{Name: "Admin", Value: RoleAdmin},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Department   string    `json:"department,omitempty"`
	IsActive     bool      `json:"is_active"`
	Level        int       `json:"level,omitempty"` // students only
	Major        string    `json:"major,omitempty"` // students only
	Grade        float64   `json:"grade"`           // students only, overall grade (%)
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin }
func (u *User) IsInstructor() bool { return u.Role == RoleInstructor }
func (u *User) IsStudent() bool    { return u.Role == RoleStudent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string  `json:"name" validate:"required,max=255"`
	Email           string  `json:"email" validate:"required,max=255,email"`
	Password        string  `json:"password" validate:"required"`
	PasswordConfirm string  `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string  `json:"role" validate:"required,role"`
	Department      string  `json:"department" validate:"omitempty,department"`
	Level           int     `json:"level"`
	Major           string  `json:"major" validate:"max=255"`
	Grade           float64 `json:"grade"`
}

// Validate cleans nu, applies the student defaults and validates it.
func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Department = core.CleanString(nu.Department)
	nu.Major = core.CleanString(nu.Major)

	if nu.Role == RoleStudent {
		if nu.Level == 0 {
			nu.Level = DefaultLevel
		}
		if nu.Major == "" {
			nu.Major = DefaultMajor
		}
		if nu.Department == "" {
			nu.Department = DefaultDept
		}
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Blank fields keep their current values.
type UpdateUser struct {
	Name            string   `json:"name" validate:"max=255"`
	Email           string   `json:"email" validate:"omitempty,max=255,email"`
	Role            string   `json:"role" validate:"omitempty,role"`
	Department      string   `json:"department" validate:"omitempty,department"`
	IsActive        *bool    `json:"is_active"`
	Level           *int     `json:"level"`
	Major           string   `json:"major" validate:"max=255"`
	Grade           *float64 `json:"grade"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

// IsPrivileged reports whether uu changes fields only admins may change.
func (uu *UpdateUser) IsPrivileged() bool {
	return uu.Email != "" || uu.Role != "" || uu.Department != "" || uu.IsActive != nil ||
		uu.Level != nil || uu.Major != "" || uu.Grade != nil
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc Service) error {
	uu.Name = core.StringOr(uu.Name, origUsr.Name)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	if uu.Email == "" {
		uu.Email = origUsr.Email
	}
	uu.Role = core.CleanString(uu.Role, true /* lower */)
	if uu.Role == "" {
		uu.Role = origUsr.Role
	}
	uu.Department = core.StringOr(uu.Department, origUsr.Department)
	uu.Major = core.StringOr(uu.Major, origUsr.Major)

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search     string   `query:"search"`
	Roles      []string `query:"role"`
	Department string   `query:"department"`
	IsActive   *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.Department == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Department = core.CleanString(qf.Department)
	for i, role := range qf.Roles {
		qf.Roles[i] = core.CleanString(role, true /* lower */)
	}
}

// GetFilter looks a User up by ID or, when ID is empty, by Email.
type GetFilter struct {
	ID    string
	Email string
}
