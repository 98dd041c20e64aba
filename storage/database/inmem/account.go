package inmem

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ebusmomentum88/school-portal-backend/core/account"
)

type (
	teacherRow struct {
		name       string
		email      string
		identifier string
		createdAt  time.Time
	}

	studentRow struct {
		name       string
		classLevel string
		identifier string
		createdAt  time.Time
	}

	accountRepository struct {
		db *accountTables
	}
)

var (
	_ account.Repository        = (*accountRepository)(nil)
	_ account.CounterRepository = (*accountRepository)(nil)
)

func NewAccountRepository(db *DB) *accountRepository {
	return &accountRepository{db: db.accounts}
}

func (r *accountRepository) CreateTeacherProfile(_ context.Context, name, email, identifier string, createdAt time.Time) (string, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	ref := uuid.New().String()
	r.db.teachers[ref] = teacherRow{name: name, email: email, identifier: identifier, createdAt: createdAt}
	return ref, nil
}

func (r *accountRepository) CreateStudentProfile(_ context.Context, name, classLevel, identifier string, createdAt time.Time) (string, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	ref := uuid.New().String()
	r.db.students[ref] = studentRow{name: name, classLevel: classLevel, identifier: identifier, createdAt: createdAt}
	return ref, nil
}

func (r *accountRepository) DeleteProfile(_ context.Context, role, profileRef string) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if role == account.RoleTeacher {
		delete(r.db.teachers, profileRef)
	} else {
		delete(r.db.students, profileRef)
	}
	return nil
}

func (r *accountRepository) CreateRoleLink(_ context.Context, link account.RoleLink) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.links[link.CredentialRef] = link
	return nil
}

func (r *accountRepository) DeleteRoleLink(_ context.Context, credentialRef string) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	delete(r.db.links, credentialRef)
	return nil
}

func (r *accountRepository) AddSubjectAssignments(_ context.Context, profileRef string, subjects []string) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.subjects[profileRef] = append(r.db.subjects[profileRef], subjects...)
	return nil
}

func (r *accountRepository) DeleteSubjectAssignments(_ context.Context, profileRef string) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	delete(r.db.subjects, profileRef)
	return nil
}

func (r *accountRepository) GetAccountByIdentifier(_ context.Context, role, identifier string) (account.Account, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	for _, link := range r.db.links {
		if link.RoleCode == account.RoleCode(role) && link.Identifier == identifier {
			return r.toAccount(role, link)
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (r *accountRepository) GetAccountByCredentialRef(_ context.Context, credentialRef string) (account.Account, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	link, ok := r.db.links[credentialRef]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	role := account.RoleStudent
	if link.RoleCode == account.RoleCode(account.RoleTeacher) {
		role = account.RoleTeacher
	}
	return r.toAccount(role, link)
}

// toAccount expects the read lock to be held.
func (r *accountRepository) toAccount(role string, link account.RoleLink) (account.Account, error) {
	acct := account.Account{
		Role:          role,
		Identifier:    link.Identifier,
		CredentialRef: link.CredentialRef,
		ProfileRef:    link.ProfileRef,
	}
	switch role {
	case account.RoleTeacher:
		row, ok := r.db.teachers[link.ProfileRef]
		if !ok {
			return account.Account{}, account.ErrNotFound
		}
		acct.DisplayName = row.name
		acct.Email = row.email
		acct.CreatedAt = row.createdAt
		acct.SubjectAssignments = append([]string(nil), r.db.subjects[link.ProfileRef]...)
	case account.RoleStudent:
		row, ok := r.db.students[link.ProfileRef]
		if !ok {
			return account.Account{}, account.ErrNotFound
		}
		acct.DisplayName = row.name
		acct.ClassAssignment = row.classLevel
		acct.CreatedAt = row.createdAt
	default:
		return account.Account{}, account.ErrNotFound
	}
	return acct, nil
}

func (r *accountRepository) GetCounter(_ context.Context, space string) (account.Counter, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	return account.Counter{Space: space, LastIssued: r.db.counters[space]}, nil
}

func (r *accountRepository) UpdateCounter(_ context.Context, space string, from, to uint) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if r.db.counters[space] != from {
		return account.ErrCounterConflict
	}
	r.db.counters[space] = to
	return nil
}
