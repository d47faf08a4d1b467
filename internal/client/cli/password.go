package cli

import (
	"context"
	"errors"
	"fmt"
)

// ErrPasswordMismatch новый пароль и подтверждение не совпадают
var ErrPasswordMismatch = errors.New("passwords do not match")

func (c *Cli) runPassword(ctx context.Context) error {
	if _, err := c.requireUser(ctx); err != nil {
		return err
	}

	c.io.Println("=== Change Password ===")
	c.io.Println()

	oldPassword, err := c.io.ReadPassword("Current password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	newPassword, err := c.io.ReadPassword("New password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm new password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}

	if err := c.app.Auth.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}

	c.io.Println("✓ Password changed")
	return nil
}
