package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iudanet/infradash/internal/client/api"
	"github.com/iudanet/infradash/internal/client/auth"
)

func (c *Cli) runUpload(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: Usage: infradash upload <resource> <file>", ErrUsage)
	}

	svc, err := c.collection(args[0])
	if err != nil {
		return err
	}

	if _, err := c.requireUser(ctx); err != nil {
		return err
	}
	if !c.app.Auth.HasPermission(auth.PermAdd) {
		return fmt.Errorf("%w: add on %s", ErrPermissionDenied, args[0])
	}

	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	lastPercent := int64(-1)
	progress := api.WithProgress(func(sent, total int64) {
		if total <= 0 {
			return
		}
		percent := sent * 100 / total
		// печатаем каждые 25%
		if percent/25 != lastPercent/25 {
			lastPercent = percent
			c.io.Printf("Uploading... %d%%\n", percent)
		}
	})

	var result map[string]any
	if err := svc.Upload(ctx, filepath.Base(args[1]), f, &result, progress); err != nil {
		return err
	}

	c.io.Println("✓ Upload complete")
	return c.printJSON(result)
}
