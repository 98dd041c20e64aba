package account

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ebusmomentum88/school-portal-backend/core"
)

// teacherHandleRetries bounds suffix regeneration when a derived teacher
// identifier is already taken.
const teacherHandleRetries = 5

type (
	// sagaStep is one forward step of a provisioning saga, paired with the
	// compensating step that undoes it. compensate may be nil when nothing
	// needs undoing.
	sagaStep struct {
		name       string
		run        func(ctx context.Context) error
		compensate func(ctx context.Context) error
	}

	stepStatus int

	// stepResult records the outcome of one step, as a tagged variant rather
	// than a bare error, so the orchestrator handles every case explicitly.
	stepResult struct {
		step   string
		status stepStatus
		err    error
	}
)

const (
	stepDone stepStatus = iota
	stepFailed
	stepCompensated
	stepCompensationFailed
)

// Service orchestrates multi-step account creation against the identity and
// storage collaborators, compensating completed steps in reverse order when a
// later step fails.
type Service struct {
	repo     Repository
	alloc    *Allocator
	identity core.IdentityProvider
	policy   PasswordPolicy
	mailSvc  core.EmailService
	logger   core.Logger
}

func NewService(
	repo Repository,
	counters CounterRepository,
	identity core.IdentityProvider,
	policy PasswordPolicy,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		alloc:    NewAllocator(counters),
		identity: identity,
		policy:   policy,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

// runSaga executes steps in order. On the first failure it runs the
// compensations of all completed steps in reverse order. A failed
// compensation means partial state is left behind that needs manual
// reconciliation; that is reported as provisioning_inconsistent and logged,
// never swallowed.
func (svc *Service) runSaga(ctx context.Context, op string, steps []sagaStep) error {
	results := make([]stepResult, 0, len(steps))

	for i, step := range steps {
		err := step.run(ctx)
		if err == nil {
			results = append(results, stepResult{step: step.name, status: stepDone})
			continue
		}
		results = append(results, stepResult{step: step.name, status: stepFailed, err: err})

		// compensate completed steps, newest first
		var inconsistent []stepResult
		for j := i - 1; j >= 0; j-- {
			if steps[j].compensate == nil {
				continue
			}
			if cerr := steps[j].compensate(ctx); cerr != nil {
				res := stepResult{step: steps[j].name, status: stepCompensationFailed, err: cerr}
				results = append(results, res)
				inconsistent = append(inconsistent, res)
			} else {
				results = append(results, stepResult{step: steps[j].name, status: stepCompensated})
			}
		}

		if len(inconsistent) > 0 {
			names := make([]string, 0, len(inconsistent))
			for _, res := range inconsistent {
				names = append(names, fmt.Sprintf("%s (%v)", res.step, res.err))
			}
			appErr := core.NewAppError(core.KindProvisioningInconsistent,
				fmt.Sprintf("%s: %q failed and compensation left partial state behind", op, step.name),
				errors.Errorf("uncompensated steps: %s", strings.Join(names, "; ")))
			svc.logger.Error(fmt.Sprintf("%s: manual reconciliation required: %s", op, formatResults(results)), appErr)
			return appErr
		}
		svc.logger.Debug(fmt.Sprintf("%s: rolled back: %s", op, formatResults(results)))
		return errors.Wrap(err, op)
	}
	return nil
}

func formatResults(results []stepResult) string {
	statusNames := map[stepStatus]string{
		stepDone:               "done",
		stepFailed:             "failed",
		stepCompensated:        "compensated",
		stepCompensationFailed: "compensation failed",
	}
	parts := make([]string, 0, len(results))
	for _, res := range results {
		part := fmt.Sprintf("%s=%s", res.step, statusNames[res.status])
		if res.err != nil {
			part += fmt.Sprintf(" (%v)", res.err)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

// ProvisionTeacher creates a teacher account: identity credential, profile
// row, role-link row and optional subject assignments, all-or-nothing.
func (svc *Service) ProvisionTeacher(ctx context.Context, nt NewTeacher) (ProvisionedAccount, error) {
	if err := nt.Validate(); err != nil {
		return ProvisionedAccount{}, err
	}

	pwd := nt.Password
	if pwd == "" {
		var err error
		if pwd, err = svc.policy.InitialPassword(RoleTeacher); err != nil {
			return ProvisionedAccount{}, errors.Wrap(err, "resolving initial password")
		}
	}

	now := time.Now().UTC()
	var (
		cred       core.Credential
		identifier string
		profileRef string
	)

	steps := []sagaStep{
		{
			name: "create credential",
			run: func(ctx context.Context) error {
				var lastErr error
				for attempt := 0; attempt < teacherHandleRetries; attempt++ {
					identifier = TeacherIdentifier(nt.Name)
					c, err := svc.identity.CreateCredential(ctx, identifier, pwd, map[string]string{
						"role":  RoleTeacher,
						"name":  nt.Name,
						"email": nt.Email,
					})
					if err == nil {
						cred = c
						return nil
					}
					if errors.Cause(err) == core.ErrDuplicateHandle {
						lastErr = err // regenerate the suffix and retry
						continue
					}
					return core.NewAppError(core.KindCollaboratorUnavailable, "creating credential", err)
				}
				return core.NewAppError(core.KindDuplicateIdentifier,
					"could not derive an unused teacher identifier", lastErr)
			},
			compensate: func(ctx context.Context) error {
				return svc.identity.DeleteCredential(ctx, cred.Ref)
			},
		},
		{
			name: "create teacher profile",
			run: func(ctx context.Context) error {
				ref, err := svc.repo.CreateTeacherProfile(ctx, nt.Name, nt.Email, identifier, now)
				if err != nil {
					return core.NewAppError(core.KindCollaboratorUnavailable, "creating teacher profile", err)
				}
				profileRef = ref
				return nil
			},
			compensate: func(ctx context.Context) error {
				return svc.repo.DeleteProfile(ctx, RoleTeacher, profileRef)
			},
		},
		{
			name: "create role link",
			run: func(ctx context.Context) error {
				link := RoleLink{
					CredentialRef: cred.Ref,
					ProfileRef:    profileRef,
					Identifier:    identifier,
					RoleCode:      RoleCode(RoleTeacher),
				}
				if err := svc.repo.CreateRoleLink(ctx, link); err != nil {
					return core.NewAppError(core.KindCollaboratorUnavailable, "creating role link", err)
				}
				return nil
			},
			compensate: func(ctx context.Context) error {
				return svc.repo.DeleteRoleLink(ctx, cred.Ref)
			},
		},
	}
	if len(nt.Subjects) > 0 {
		steps = append(steps, sagaStep{
			name: "assign subjects",
			run: func(ctx context.Context) error {
				if err := svc.repo.AddSubjectAssignments(ctx, profileRef, nt.Subjects); err != nil {
					return core.NewAppError(core.KindCollaboratorUnavailable, "assigning subjects", err)
				}
				return nil
			},
			compensate: func(ctx context.Context) error {
				return svc.repo.DeleteSubjectAssignments(ctx, profileRef)
			},
		})
	}

	if err := svc.runSaga(ctx, "provisioning teacher", steps); err != nil {
		return ProvisionedAccount{}, err
	}

	acct := Account{
		Role:               RoleTeacher,
		DisplayName:        nt.Name,
		Identifier:         identifier,
		CredentialRef:      cred.Ref,
		ProfileRef:         profileRef,
		Email:              nt.Email,
		SubjectAssignments: nt.Subjects,
		CreatedAt:          now,
	}
	svc.sendWelcomeEmail(acct, pwd)
	return ProvisionedAccount{Account: acct, InitialPassword: pwd}, nil
}

// ProvisionStudent creates a student account. The identifier comes from the
// sequence allocator, zero-padded to the roll-number width.
func (svc *Service) ProvisionStudent(ctx context.Context, ns NewStudent) (ProvisionedAccount, error) {
	if err := ns.Validate(); err != nil {
		return ProvisionedAccount{}, err
	}

	ordinal, err := svc.alloc.Allocate(ctx, SpaceStudent)
	if err != nil {
		return ProvisionedAccount{}, err
	}
	identifier := StudentIdentifier(ordinal)

	pwd, err := svc.policy.InitialPassword(RoleStudent)
	if err != nil {
		return ProvisionedAccount{}, errors.Wrap(err, "resolving initial password")
	}

	now := time.Now().UTC()
	var (
		cred       core.Credential
		profileRef string
	)

	steps := []sagaStep{
		{
			name: "create credential",
			run: func(ctx context.Context) error {
				c, err := svc.identity.CreateCredential(ctx, identifier, pwd, map[string]string{
					"role":        RoleStudent,
					"name":        ns.Name,
					"class_level": ns.ClassLevel,
				})
				if err != nil {
					if errors.Cause(err) == core.ErrDuplicateHandle {
						// allocator guarantees fresh ordinals; a duplicate here
						// means the counter and the identity store disagree
						return core.NewAppError(core.KindDuplicateIdentifier,
							fmt.Sprintf("student identifier %q already has a credential", identifier), err)
					}
					return core.NewAppError(core.KindCollaboratorUnavailable, "creating credential", err)
				}
				cred = c
				return nil
			},
			compensate: func(ctx context.Context) error {
				return svc.identity.DeleteCredential(ctx, cred.Ref)
			},
		},
		{
			name: "create student profile",
			run: func(ctx context.Context) error {
				ref, err := svc.repo.CreateStudentProfile(ctx, ns.Name, ns.ClassLevel, identifier, now)
				if err != nil {
					return core.NewAppError(core.KindCollaboratorUnavailable, "creating student profile", err)
				}
				profileRef = ref
				return nil
			},
			compensate: func(ctx context.Context) error {
				return svc.repo.DeleteProfile(ctx, RoleStudent, profileRef)
			},
		},
		{
			name: "create role link",
			run: func(ctx context.Context) error {
				link := RoleLink{
					CredentialRef: cred.Ref,
					ProfileRef:    profileRef,
					Identifier:    identifier,
					RoleCode:      RoleCode(RoleStudent),
				}
				if err := svc.repo.CreateRoleLink(ctx, link); err != nil {
					return core.NewAppError(core.KindCollaboratorUnavailable, "creating role link", err)
				}
				return nil
			},
			compensate: func(ctx context.Context) error {
				return svc.repo.DeleteRoleLink(ctx, cred.Ref)
			},
		},
	}

	if err := svc.runSaga(ctx, "provisioning student", steps); err != nil {
		return ProvisionedAccount{}, err
	}

	acct := Account{
		Role:            RoleStudent,
		DisplayName:     ns.Name,
		Identifier:      identifier,
		CredentialRef:   cred.Ref,
		ProfileRef:      profileRef,
		ClassAssignment: ns.ClassLevel,
		CreatedAt:       now,
	}
	return ProvisionedAccount{Account: acct, InitialPassword: pwd}, nil
}

// Authenticate verifies a login against the identity provider and resolves
// the matching account. Accounts known only to the identity provider (the
// bootstrap admin) are reconstructed from credential metadata.
func (svc *Service) Authenticate(ctx context.Context, handle, password string) (Account, error) {
	cred, err := svc.identity.Authenticate(ctx, core.CleanString(handle, true /* lower */), password)
	if err != nil {
		switch errors.Cause(err) {
		case core.ErrAuthenticationFailed, core.ErrCredentialNotFound:
			return Account{}, core.ErrAuthenticationFailed
		}
		return Account{}, core.NewAppError(core.KindCollaboratorUnavailable, "authenticating", err)
	}

	acct, err := svc.repo.GetAccountByCredentialRef(ctx, cred.Ref)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{
				Role:          cred.Metadata["role"],
				DisplayName:   cred.Metadata["name"],
				Identifier:    cred.Handle,
				CredentialRef: cred.Ref,
			}, nil
		}
		return Account{}, core.NewAppError(core.KindCollaboratorUnavailable, "resolving account", err)
	}
	return acct, nil
}

// GetByIdentifier looks an account up in its role-scoped identifier space.
func (svc *Service) GetByIdentifier(ctx context.Context, role, identifier string) (Account, error) {
	return svc.repo.GetAccountByIdentifier(ctx, role, core.CleanString(identifier, true /* lower */))
}

func (svc *Service) sendWelcomeEmail(acct Account, pwd string) {
	if acct.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acct.DisplayName, Address: acct.Email}},
		Subject:      "Your account is ready",
		TemplateName: "welcome-credentials",
		TemplateData: struct {
			Name       string
			Identifier string
			Password   string
		}{acct.DisplayName, acct.Identifier, pwd},
	})
}
