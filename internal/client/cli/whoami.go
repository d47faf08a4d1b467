package cli

import (
	"context"

	"github.com/iudanet/infradash/internal/client/auth"
)

var allPermissions = []auth.Permission{auth.PermView, auth.PermAdd, auth.PermChange, auth.PermDelete}

func (c *Cli) runWhoami(ctx context.Context) error {
	user, err := c.requireUser(ctx)
	if err != nil {
		return err
	}

	var perms []string
	for _, p := range allPermissions {
		if c.app.Auth.HasPermission(p) {
			perms = append(perms, string(p))
		}
	}

	return c.render(whoamiTmpl, whoamiView{
		User:        user,
		DisplayName: c.app.Auth.DisplayName(),
		Permissions: perms,
	})
}
