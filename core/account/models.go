package account

import (
	"context"
	"errors"
	"time"

	"github.com/ebusmomentum88/school-portal-backend/core"
)

// Roles. Teacher and student identifiers live in independent namespaces;
// the same handle may exist in both without conflict.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Numeric role codes stored on role-link rows.
var roleCodes = map[string]int{
	RoleAdmin:   1,
	RoleTeacher: 2,
	RoleStudent: 3,
}

func RoleCode(role string) int {
	return roleCodes[role]
}

var (
	// errors
	ErrNotFound        = errors.New("account not found")
	ErrCounterConflict = errors.New("counter was updated concurrently")
)

type (
	// Account is one fully provisioned person: credential + profile +
	// role-link, mutually consistent. Partial accounts are never surfaced.
	Account struct {
		Role               string    `json:"role"`
		DisplayName        string    `json:"display_name"`
		Identifier         string    `json:"identifier"`
		CredentialRef      string    `json:"-"`
		ProfileRef         string    `json:"-"`
		Email              string    `json:"email,omitempty"`
		ClassAssignment    string    `json:"class_assignment,omitempty"`
		SubjectAssignments []string  `json:"subject_assignments,omitempty"`
		CreatedAt          time.Time `json:"created_at"` // UTC
	}

	// ProvisionedAccount is the result surfaced to the caller of a provision
	// operation. InitialPassword must be changed on first login.
	ProvisionedAccount struct {
		Account
		InitialPassword string `json:"initial_password"`
	}

	// RoleLink associates a credential to a profile row and a role code.
	RoleLink struct {
		CredentialRef string
		ProfileRef    string
		Identifier    string
		RoleCode      int
	}

	// Counter is the last-issued ordinal of one identifier space.
	Counter struct {
		Space      string
		LastIssued uint
	}
)

func (a Account) IsTeacher() bool { return a.Role == RoleTeacher }
func (a Account) IsStudent() bool { return a.Role == RoleStudent }
func (a Account) IsAdmin() bool   { return a.Role == RoleAdmin }

type (
	// Repository persists profiles, role-links and subject assignments in the
	// relational store. Implementations enforce uniqueness of
	// (role, identifier) and report conflicts as core.ErrDuplicateHandle-style
	// sentinel errors of their own; anything else is an infrastructure error.
	Repository interface {
		CreateTeacherProfile(ctx context.Context, name, email, identifier string, createdAt time.Time) (profileRef string, err error)
		CreateStudentProfile(ctx context.Context, name, classLevel, identifier string, createdAt time.Time) (profileRef string, err error)
		DeleteProfile(ctx context.Context, role, profileRef string) error

		CreateRoleLink(ctx context.Context, link RoleLink) error
		DeleteRoleLink(ctx context.Context, credentialRef string) error

		AddSubjectAssignments(ctx context.Context, profileRef string, subjects []string) error
		DeleteSubjectAssignments(ctx context.Context, profileRef string) error

		GetAccountByIdentifier(ctx context.Context, role, identifier string) (Account, error)
		GetAccountByCredentialRef(ctx context.Context, credentialRef string) (Account, error)
	}

	// CounterRepository persists per-space sequence counters. GetCounter
	// lazily initializes a missing space to 0. UpdateCounter is a
	// compare-and-swap: it fails with ErrCounterConflict when the stored
	// value no longer equals `from`.
	CounterRepository interface {
		GetCounter(ctx context.Context, space string) (Counter, error)
		UpdateCounter(ctx context.Context, space string, from, to uint) error
	}
)

// NewTeacher contains information needed to provision a teacher account.
// Password is optional; when empty the configured password policy issues one.
type NewTeacher struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"omitempty"`
	Subjects []string `json:"subjects" validate:"omitempty,dive,required"`
}

func (nt *NewTeacher) Validate() error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	for i, s := range nt.Subjects {
		nt.Subjects[i] = core.CleanString(s)
	}
	return core.Validate.Struct(nt)
}

// NewStudent contains information needed to provision a student account.
type NewStudent struct {
	Name       string `json:"name" validate:"required"`
	ClassLevel string `json:"class_level" validate:"required"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.ClassLevel = core.CleanString(ns.ClassLevel)
	return core.Validate.Struct(ns)
}
