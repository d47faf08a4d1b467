package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/infradash/internal/models"
)

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		var err error
		username, err = c.io.ReadInput("Username: ")
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
	}

	password, err := c.getPassword()
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	result, err := c.app.Auth.Login(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Welcome, %s\n", c.app.Auth.DisplayName())
	if exp, err := parseExpiration(result.Tokens.Access); err == nil {
		c.io.Printf("Access token expires: %s\n", exp)
	}
	c.io.Println()
	c.io.Println("Your session has been saved.")

	return nil
}
