package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/iudanet/infradash/internal/client/auth"
)

func (c *Cli) runCan(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: Usage: infradash can <view|add|change|delete> [resource [id]]", ErrUsage)
	}

	perm := auth.Permission(args[0])
	if !slices.Contains(allPermissions, perm) {
		return fmt.Errorf("%w: unknown permission %q", ErrUsage, args[0])
	}

	var (
		resource string
		id       int64
	)
	if len(args) > 1 {
		if _, err := c.collection(args[1]); err != nil {
			return err
		}
		resource = args[1]
	}
	if len(args) > 2 {
		var err error
		if id, err = parseID(args[2]); err != nil {
			return err
		}
	}

	if _, err := c.requireUser(ctx); err != nil {
		return err
	}

	if c.app.Auth.HasResourcePermission(perm, resource, id) {
		c.io.Println("yes")
	} else {
		c.io.Println("no")
	}
	return nil
}
