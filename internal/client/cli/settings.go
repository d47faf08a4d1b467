package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

func (c *Cli) runSettings(ctx context.Context, args []string) error {
	if _, err := c.requireUser(ctx); err != nil {
		return err
	}

	if len(args) > 0 {
		patch, err := parseSettings(args)
		if err != nil {
			return err
		}
		if err := c.app.Auth.SaveUserSettings(ctx, patch); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		c.io.Println("✓ Settings saved")
	}

	settings, err := c.app.Auth.UserSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if len(settings) == 0 {
		c.io.Println("No settings saved.")
		return nil
	}
	return c.printJSON(settings)
}

// parseSettings разбирает key=value. Значение, похожее на JSON (число, bool, объект),
// сохраняется с типом, остальное как строка.
func parseSettings(args []string) (map[string]any, error) {
	patch := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: setting %q must be key=value", ErrUsage, arg)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		patch[key] = value
	}
	return patch, nil
}
