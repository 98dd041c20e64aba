package core

import (
	"context"
	"errors"
)

var (
	// ErrDuplicateHandle is returned by IdentityProvider.CreateCredential when
	// the login handle is already taken.
	ErrDuplicateHandle = errors.New("a credential with this login handle already exists")

	// ErrCredentialNotFound is returned when no credential matches the given
	// handle or reference.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrAuthenticationFailed is returned by Authenticate on a bad handle/password pair.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

type (
	// Credential is an account's identity record as known by the provider.
	Credential struct {
		Ref      string // opaque provider reference
		Handle   string // login handle
		Metadata map[string]string
	}

	// IdentityProvider is the external identity collaborator. Any transport or
	// provider failure must be reported wrapped, never swallowed; callers map
	// those to KindCollaboratorUnavailable.
	IdentityProvider interface {
		// CreateCredential registers a new login. Fails with ErrDuplicateHandle
		// when the handle is taken.
		CreateCredential(ctx context.Context, handle, password string, metadata map[string]string) (Credential, error)

		// DeleteCredential removes a credential by its opaque reference. Used
		// for compensation; best-effort from the provider's point of view but
		// an error here must be surfaced to the caller.
		DeleteCredential(ctx context.Context, ref string) error

		// Authenticate verifies a handle/password pair, failing with
		// ErrAuthenticationFailed on mismatch.
		Authenticate(ctx context.Context, handle, password string) (Credential, error)
	}
)
