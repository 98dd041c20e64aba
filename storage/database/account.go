package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ebusmomentum88/school-portal-backend/core/account"
)

// pqUniqueViolation is the postgres error code for unique-constraint violations.
const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

type accountRepository struct {
	db *sqlx.DB
}

var (
	_ account.Repository        = (*accountRepository)(nil)
	_ account.CounterRepository = (*accountRepository)(nil)
)

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateTeacherProfile(ctx context.Context, name, email, identifier string, createdAt time.Time) (string, error) {
	ref := uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO teachers (id, name, email, identifier, created_at) VALUES ($1, $2, $3, $4, $5)`,
		ref, name, email, identifier, createdAt,
	)
	if err != nil {
		return "", errors.Wrap(err, "inserting teacher profile")
	}
	return ref, nil
}

func (repo *accountRepository) CreateStudentProfile(ctx context.Context, name, classLevel, identifier string, createdAt time.Time) (string, error) {
	ref := uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO students (id, name, class_level, identifier, created_at) VALUES ($1, $2, $3, $4, $5)`,
		ref, name, classLevel, identifier, createdAt,
	)
	if err != nil {
		return "", errors.Wrap(err, "inserting student profile")
	}
	return ref, nil
}

func (repo *accountRepository) DeleteProfile(ctx context.Context, role, profileRef string) error {
	table := "students"
	if role == account.RoleTeacher {
		table = "teachers"
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, profileRef)
	return errors.Wrap(err, "deleting profile")
}

func (repo *accountRepository) CreateRoleLink(ctx context.Context, link account.RoleLink) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO role_links (credential_ref, profile_ref, identifier, role_code) VALUES ($1, $2, $3, $4)`,
		link.CredentialRef, link.ProfileRef, link.Identifier, link.RoleCode,
	)
	return errors.Wrap(err, "inserting role link")
}

func (repo *accountRepository) DeleteRoleLink(ctx context.Context, credentialRef string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM role_links WHERE credential_ref = $1`, credentialRef)
	return errors.Wrap(err, "deleting role link")
}

func (repo *accountRepository) AddSubjectAssignments(ctx context.Context, profileRef string, subjects []string) error {
	for _, subject := range subjects {
		_, err := repo.db.ExecContext(ctx,
			`INSERT INTO teacher_subjects (profile_ref, subject) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			profileRef, subject,
		)
		if err != nil {
			return errors.Wrapf(err, "assigning subject %q", subject)
		}
	}
	return nil
}

func (repo *accountRepository) DeleteSubjectAssignments(ctx context.Context, profileRef string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE profile_ref = $1`, profileRef)
	return errors.Wrap(err, "deleting subject assignments")
}

type accountRow struct {
	CredentialRef string         `db:"credential_ref"`
	ProfileRef    string         `db:"profile_ref"`
	Identifier    string         `db:"identifier"`
	RoleCode      int            `db:"role_code"`
	Name          string         `db:"name"`
	Email         sql.NullString `db:"email"`
	ClassLevel    sql.NullString `db:"class_level"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (repo *accountRepository) GetAccountByIdentifier(ctx context.Context, role, identifier string) (account.Account, error) {
	var row accountRow
	var err error
	switch role {
	case account.RoleTeacher:
		err = repo.db.GetContext(ctx, &row, `
			SELECT rl.credential_ref, rl.profile_ref, rl.identifier, rl.role_code, t.name, t.email, t.created_at
			FROM role_links rl JOIN teachers t ON t.id = rl.profile_ref
			WHERE rl.role_code = $1 AND rl.identifier = $2`,
			account.RoleCode(role), identifier)
	case account.RoleStudent:
		err = repo.db.GetContext(ctx, &row, `
			SELECT rl.credential_ref, rl.profile_ref, rl.identifier, rl.role_code, s.name, s.class_level, s.created_at
			FROM role_links rl JOIN students s ON s.id = rl.profile_ref
			WHERE rl.role_code = $1 AND rl.identifier = $2`,
			account.RoleCode(role), identifier)
	default:
		return account.Account{}, account.ErrNotFound
	}
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "querying account")
	}
	return repo.toAccount(ctx, role, row)
}

func (repo *accountRepository) GetAccountByCredentialRef(ctx context.Context, credentialRef string) (account.Account, error) {
	var link account.RoleLink
	err := repo.db.QueryRowContext(ctx,
		`SELECT credential_ref, profile_ref, identifier, role_code FROM role_links WHERE credential_ref = $1`,
		credentialRef,
	).Scan(&link.CredentialRef, &link.ProfileRef, &link.Identifier, &link.RoleCode)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "querying role link")
	}

	role := account.RoleStudent
	if link.RoleCode == account.RoleCode(account.RoleTeacher) {
		role = account.RoleTeacher
	}
	return repo.GetAccountByIdentifier(ctx, role, link.Identifier)
}

func (repo *accountRepository) toAccount(ctx context.Context, role string, row accountRow) (account.Account, error) {
	acct := account.Account{
		Role:          role,
		DisplayName:   row.Name,
		Identifier:    row.Identifier,
		CredentialRef: row.CredentialRef,
		ProfileRef:    row.ProfileRef,
		Email:         row.Email.String,
		CreatedAt:     row.CreatedAt,
	}
	if row.ClassLevel.Valid {
		acct.ClassAssignment = row.ClassLevel.String
	}
	if role == account.RoleTeacher {
		var subjects []string
		err := repo.db.SelectContext(ctx, &subjects,
			`SELECT subject FROM teacher_subjects WHERE profile_ref = $1 ORDER BY subject`, row.ProfileRef)
		if err != nil {
			return account.Account{}, errors.Wrap(err, "querying subject assignments")
		}
		acct.SubjectAssignments = subjects
	}
	return acct, nil
}

// GetCounter lazily initializes a missing space. The student space bootstraps
// from the max roll number already on file so a rebuilt counter table never
// re-issues a taken identifier.
func (repo *accountRepository) GetCounter(ctx context.Context, space string) (account.Counter, error) {
	bootstrapQ := `INSERT INTO sequence_counters (space, last_issued) VALUES ($1, 0) ON CONFLICT (space) DO NOTHING`
	if space == account.SpaceStudent {
		bootstrapQ = `INSERT INTO sequence_counters (space, last_issued)
			VALUES ($1, COALESCE((SELECT MAX(identifier::integer) FROM students), 0))
			ON CONFLICT (space) DO NOTHING`
	}
	if _, err := repo.db.ExecContext(ctx, bootstrapQ, space); err != nil {
		return account.Counter{}, errors.Wrap(err, "bootstrapping counter")
	}

	counter := account.Counter{Space: space}
	err := repo.db.QueryRowContext(ctx,
		`SELECT last_issued FROM sequence_counters WHERE space = $1`, space,
	).Scan(&counter.LastIssued)
	if err != nil {
		return account.Counter{}, errors.Wrap(err, "reading counter")
	}
	return counter, nil
}

// UpdateCounter is the allocator's compare-and-swap: the write only lands if
// the stored value still equals `from`.
func (repo *accountRepository) UpdateCounter(ctx context.Context, space string, from, to uint) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE sequence_counters SET last_issued = $1 WHERE space = $2 AND last_issued = $3`,
		to, space, from,
	)
	if err != nil {
		return errors.Wrap(err, "updating counter")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating counter")
	}
	if affected == 0 {
		return account.ErrCounterConflict
	}
	return nil
}
