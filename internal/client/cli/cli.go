package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/iudanet/infradash/internal/app"
	"github.com/iudanet/infradash/internal/client/api"
	"github.com/iudanet/infradash/internal/client/iocli"
	"github.com/iudanet/infradash/internal/models"
)

// EnvPassword переменная окружения с паролем для login
const EnvPassword = "INFRADASH_PASSWORD"

var (
	// ErrUsage неверные аргументы команды
	ErrUsage = errors.New("invalid usage")
	// ErrNotAuthenticated нет сохраненной сессии
	ErrNotAuthenticated = errors.New("not authenticated. Please run 'infradash login' first")
)

// Passwords источники пароля для login
type Passwords struct {
	FromFile string
}

type Cli struct {
	app       *app.App
	io        iocli.IO
	nav       api.Navigator
	passwords Passwords
}

func New(a *app.App, io iocli.IO, passwords Passwords) *Cli {
	return &Cli{
		app:       a,
		io:        io,
		nav:       Navigator(io),
		passwords: passwords,
	}
}

// Navigator сообщает пользователю, что нужно войти заново.
// Переход на экран входа в CLI означает подсказку про 'infradash login'.
func Navigator(io iocli.IO) api.Navigator {
	return api.NavigatorFunc(func(_ context.Context, target string) {
		reason := ""
		if u, err := url.Parse(target); err == nil {
			reason = u.Query().Get("reason")
		}

		if reason == api.ReasonSessionExpired {
			io.Println("⚠️  Session expired due to inactivity.")
		} else {
			io.Println("⚠️  Your session has expired.")
		}
		io.Println("Run 'infradash login' to sign in again.")
	})
}

// requireUser восстанавливает сессию или возвращает ErrNotAuthenticated
func (c *Cli) requireUser(ctx context.Context) (*models.User, error) {
	user := c.app.Auth.Initialize(ctx)
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

// getPassword получает пароль из источников по приоритету:
// 1. переменная окружения INFRADASH_PASSWORD
// 2. файл --password-file
// 3. интерактивный ввод
func (c *Cli) getPassword() (string, error) {
	if envPassword := os.Getenv(EnvPassword); envPassword != "" {
		return envPassword, nil
	}

	if c.passwords.FromFile != "" {
		content, err := os.ReadFile(c.passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

func PrintUsage(io iocli.IO) {
	io.Println("InfraDash Client")
	io.Println()
	io.Println("Usage:")
	io.Println("  infradash [OPTIONS] COMMAND [ARGS]")
	io.Println()
	io.Println("Options:")
	io.Println("  --version              Show version information")
	io.Println("  --config PATH          Path to YAML config (default: $INFRADASH_CONFIG or ./infradash.yaml)")
	io.Println("  --server URL           API base URL, overrides api.base_url")
	io.Println("  --db PATH              Session storage path, overrides storage.path")
	io.Println("  --password-file PATH   File containing the login password")
	io.Println()
	io.Println("Password Priority (highest to lowest):")
	io.Println("  1. INFRADASH_PASSWORD environment variable")
	io.Println("  2. --password-file (file path)")
	io.Println("  3. Interactive prompt (fallback)")
	io.Println()
	io.Println("Commands:")
	io.Println("  login [username]                     Sign in and store the session")
	io.Println("  logout                               Sign out and clear the local session")
	io.Println("  status                               Show session and token status")
	io.Println("  whoami                               Show the current user and permissions")
	io.Println("  health                               Check backend availability")
	io.Println("  list <resource> [flags] [field=val]  List a collection page (--page, --page-size, --search, --ordering, --all)")
	io.Println("  get <resource> <id>                  Show one item as JSON")
	io.Println("  delete [--yes] <resource> <id>...    Delete one or more items")
	io.Println("  upload <resource> <file>             Upload a file to a collection")
	io.Println("  can <permission> [resource [id]]     Check a permission (view, add, change, delete)")
	io.Println("  settings [key=value]...              Show or update user settings")
	io.Println("  password                             Change the password")
	io.Println("  shell                                Interactive session with inactivity timeout")
	io.Println()
	io.Println("Resources:")
	io.Printf("  %s\n", strings.Join(resourceNames(), ", "))
	io.Println()
	io.Println("Examples:")
	io.Println("  infradash --server https://infra.example.com/api/v1 login admin")
	io.Println("  infradash list racks --search A1 --page-size 50")
	io.Println("  infradash list baremetals rack=12")
	io.Println("  infradash delete --yes vlans 10 11 12")
}
