package dummyident

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ebusmomentum88/school-portal-backend/core"
)

type credentialRow struct {
	ref          string
	handle       string
	passwordHash []byte
	metadata     map[string]string
}

// Provider is an in-memory identity provider for tests and local development.
type Provider struct {
	mutex   sync.RWMutex
	byRef   map[string]*credentialRow
	handles map[string]string // handle -> ref
}

var _ core.IdentityProvider = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{
		byRef:   make(map[string]*credentialRow),
		handles: make(map[string]string),
	}
}

func (p *Provider) CreateCredential(_ context.Context, handle, password string, metadata map[string]string) (core.Credential, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if _, taken := p.handles[handle]; taken {
		return core.Credential{}, core.ErrDuplicateHandle
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return core.Credential{}, err
	}

	row := &credentialRow{
		ref:          uuid.New().String(),
		handle:       handle,
		passwordHash: hash,
		metadata:     metadata,
	}
	p.byRef[row.ref] = row
	p.handles[handle] = row.ref
	return core.Credential{Ref: row.ref, Handle: handle, Metadata: metadata}, nil
}

func (p *Provider) DeleteCredential(_ context.Context, ref string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	row, ok := p.byRef[ref]
	if !ok {
		return core.ErrCredentialNotFound
	}
	delete(p.handles, row.handle)
	delete(p.byRef, ref)
	return nil
}

func (p *Provider) Authenticate(_ context.Context, handle, password string) (core.Credential, error) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	ref, ok := p.handles[handle]
	if !ok {
		return core.Credential{}, core.ErrAuthenticationFailed
	}
	row := p.byRef[ref]
	if err := bcrypt.CompareHashAndPassword(row.passwordHash, []byte(password)); err != nil {
		return core.Credential{}, core.ErrAuthenticationFailed
	}
	return core.Credential{Ref: row.ref, Handle: row.handle, Metadata: row.metadata}, nil
}

// HasHandle reports whether a credential exists for the handle.
func (p *Provider) HasHandle(handle string) bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	_, ok := p.handles[handle]
	return ok
}

// Len returns the number of stored credentials.
func (p *Provider) Len() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return len(p.byRef)
}
