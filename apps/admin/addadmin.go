package main

import (
	"context"

	"github.com/ebusmomentum88/school-portal-backend/core"
	"github.com/ebusmomentum88/school-portal-backend/core/account"
)

// addAdmin registers an admin credential with the identity provider. Admins
// have no profile row; they are reconstructed from credential metadata at
// login.
func (cli *commandLine) addAdmin(handle, name, email, pwd string) error {
	ctx := context.Background()
	handle = core.CleanString(handle, true /* lower */)

	_, err := cli.identity.CreateCredential(ctx, handle, pwd, map[string]string{
		"role":  account.RoleAdmin,
		"name":  core.CleanString(name),
		"email": core.CleanString(email, true /* lower */),
	})
	return err
}
