package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/iudanet/infradash/internal/client/auth"
	"github.com/iudanet/infradash/internal/client/iocli"
)

// ErrPermissionDenied у текущего пользователя нет нужного права
var ErrPermissionDenied = errors.New("permission denied")

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(c.io)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	rest := fs.Args()
	if len(rest) < 2 {
		return fmt.Errorf("%w: Usage: infradash delete [--yes] <resource> <id> [id...]", ErrUsage)
	}

	svc, err := c.collection(rest[0])
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(rest)-1)
	for _, arg := range rest[1:] {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	if _, err := c.requireUser(ctx); err != nil {
		return err
	}
	for _, id := range ids {
		if !c.app.Auth.HasResourcePermission(auth.PermDelete, rest[0], id) {
			return fmt.Errorf("%w: delete on %s", ErrPermissionDenied, rest[0])
		}
	}

	if !*yes {
		ok, err := iocli.Confirm(c.io, fmt.Sprintf("Delete %d item(s) from %s?", len(ids), rest[0]))
		if err != nil {
			return err
		}
		if !ok {
			c.io.Println("Deletion cancelled.")
			return nil
		}
	}

	if len(ids) == 1 {
		err = svc.Delete(ctx, ids[0])
	} else {
		err = svc.BulkDelete(ctx, ids)
	}
	if err != nil {
		return err
	}

	c.io.Printf("✓ Deleted %d item(s) from %s\n", len(ids), rest[0])
	return nil
}
