package cli

import (
	"context"
	"fmt"
	"time"
)

func (c *Cli) runStatus(ctx context.Context) error {
	view := statusView{
		Server:        c.app.Client.BaseURL(),
		IdleTimeout:   c.app.Auth.SessionTimeout(),
		Authenticated: c.app.Auth.IsAuthenticated(ctx),
	}

	if view.Authenticated {
		last, ok, err := c.app.Tokens.LastActivity(ctx)
		if err != nil {
			return fmt.Errorf("failed to read last activity: %w", err)
		}
		view.LastActivity, view.HasActivity = last, ok
		// Статус только показывает истечение, сессию не очищает
		view.SessionExpired = c.app.Auth.IsSessionExpired(ctx)

		if exp, ok := c.app.Auth.TokenExpiration(ctx); ok {
			view.HasToken = true
			view.TokenExpires = exp
			view.TokenExpired = c.app.Auth.IsTokenExpired(ctx)
			view.Remaining = time.Until(exp).Round(time.Second)
		}
	}

	return c.render(statusTmpl, view)
}
