package cli

import (
	"context"
)

func (c *Cli) runHealth(ctx context.Context) error {
	resp, err := c.app.Client.HealthCheck(ctx)
	if err != nil {
		return err
	}

	c.io.Printf("Server:    %s\n", c.app.Client.BaseURL())
	c.io.Printf("Status:    %s\n", resp.Status)
	if resp.Timestamp != "" {
		c.io.Printf("Timestamp: %s\n", resp.Timestamp)
	}
	return nil
}
