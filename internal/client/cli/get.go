package cli

import (
	"context"
	"encoding/json"
	"fmt"
)

func (c *Cli) runGet(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: Usage: infradash get <resource> <id>", ErrUsage)
	}

	svc, err := c.collection(args[0])
	if err != nil {
		return err
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}

	if _, err := c.requireUser(ctx); err != nil {
		return err
	}

	item, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.printJSON(item)
}

func (c *Cli) printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = c.io.Write(append(out, '\n'))
	return err
}
