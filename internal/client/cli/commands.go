package cli

import (
	"context"
	"fmt"
)

// Run выполняет команду args[0] с аргументами args[1:]
func (c *Cli) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	command, rest := args[0], args[1:]
	switch command {
	case "login":
		return c.runLogin(ctx, rest)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "whoami":
		return c.runWhoami(ctx)
	case "health":
		return c.runHealth(ctx)
	case "list":
		return c.runList(ctx, rest)
	case "get":
		return c.runGet(ctx, rest)
	case "delete":
		return c.runDelete(ctx, rest)
	case "upload":
		return c.runUpload(ctx, rest)
	case "can":
		return c.runCan(ctx, rest)
	case "settings":
		return c.runSettings(ctx, rest)
	case "password":
		return c.runPassword(ctx)
	case "shell":
		return c.runShell(ctx)
	case "help":
		PrintUsage(c.io)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
}
