package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/infradash/internal/client/api"
)

// SignalCommand вид взаимодействия: пользователь ввел команду в shell
const SignalCommand = "command"

const shellPrompt = "infradash> "

type shellLine struct {
	err  error
	text string
}

// runShell интерактивный режим. Каждая введенная команда продлевает сессию,
// после периода бездействия монитор завершает сессию и shell выходит.
func (c *Cli) runShell(ctx context.Context) error {
	user, err := c.requireUser(ctx)
	if err != nil {
		return err
	}

	monitor := c.app.NewMonitor(c.nav)
	monitor.Start(ctx)
	defer monitor.Stop()

	if addr := c.app.Config.Metrics.Addr; addr != "" {
		stop := c.serveMetrics(ctx, addr)
		defer stop()
	}

	c.io.Printf("Signed in as %s. Idle timeout: %s. Type 'help' or 'exit'.\n",
		user.Username, c.app.Auth.SessionTimeout())

	lines := make(chan shellLine)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			text, err := c.io.ReadInput(shellPrompt)
			select {
			case lines <- shellLine{text: text, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-monitor.Expired():
			return nil
		case line := <-lines:
			if line.err != nil {
				if errors.Is(line.err, io.EOF) {
					c.io.Println()
					return nil
				}
				return line.err
			}

			args := strings.Fields(line.text)
			if len(args) == 0 {
				continue
			}
			if !monitor.Signal(ctx, SignalCommand) {
				// монитор уже завершил сессию
				return nil
			}

			switch args[0] {
			case "exit", "quit":
				return nil
			case "shell", "login":
				c.io.Printf("'%s' is not available inside the shell\n", args[0])
				continue
			}

			err := c.Run(ctx, args)
			if err != nil {
				c.io.Printf("Error: %v\n", err)
			}
			if args[0] == "logout" || errors.Is(err, api.ErrSessionExpired) || errors.Is(err, ErrNotAuthenticated) {
				return nil
			}
		}
	}
}

// serveMetrics поднимает HTTP с метриками клиента на время shell
func (c *Cli) serveMetrics(ctx context.Context, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.app.MetricsHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		c.app.Logger.InfoContext(ctx, "metrics server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.app.Logger.ErrorContext(ctx, "metrics server failed", slog.Any("error", err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			c.app.Logger.WarnContext(ctx, "failed to stop metrics server", slog.Any("error", err))
		}
	}
}
