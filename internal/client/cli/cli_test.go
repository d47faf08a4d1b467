package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/infradash/internal/app"
	"github.com/iudanet/infradash/internal/client/api"
	"github.com/iudanet/infradash/internal/client/apitest"
	"github.com/iudanet/infradash/internal/client/iocli"
	"github.com/iudanet/infradash/internal/config"
	"github.com/iudanet/infradash/internal/models"
)

const testPassword = "secret-password"

// syncBuffer вывод CLI, в который пишет и горутина чтения shell
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	backend *apitest.Backend
	app     *app.App
	out     *syncBuffer
	cli     *Cli
}

func newFixture(t *testing.T, input io.Reader, mutate ...func(*config.Config)) *fixture {
	t.Helper()

	backend := apitest.New(t)
	backend.AddUser(models.User{
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "alice@example.com",
		IsActive:  true,
		IsStaff:   true,
		Groups:    []string{"operators"},
	}, testPassword)
	backend.AddUser(models.User{Username: "root", IsActive: true, IsSuperuser: true}, testPassword)

	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: backend.BaseURL(), Timeout: 5 * time.Second},
		Storage: config.StorageConfig{Driver: config.DriverMemory},
		Session: config.SessionConfig{Timeout: time.Hour, Signals: []string{SignalCommand}},
	}
	for _, m := range mutate {
		m(cfg)
	}

	out := &syncBuffer{}
	stdio := iocli.New(input, out)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := app.New(context.Background(), cfg, logger, Navigator(stdio))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return &fixture{
		backend: backend,
		app:     a,
		out:     out,
		cli:     New(a, stdio, Passwords{}),
	}
}

func (f *fixture) signIn(t *testing.T, username string) {
	t.Helper()
	_, err := f.app.Auth.Login(context.Background(), models.Credentials{Username: username, Password: testPassword})
	require.NoError(t, err)
}

func TestRun_Usage(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()

	require.ErrorIs(t, f.cli.Run(ctx, nil), ErrUsage)
	require.ErrorIs(t, f.cli.Run(ctx, []string{"sync"}), ErrUsage)

	require.NoError(t, f.cli.Run(ctx, []string{"help"}))
	assert.Contains(t, f.out.String(), "infradash [OPTIONS] COMMAND")
	assert.Contains(t, f.out.String(), "data-centers, rooms, racks")
}

func TestGetPassword(t *testing.T) {
	t.Run("from env", func(t *testing.T) {
		t.Setenv(EnvPassword, "env-password")
		c := &Cli{passwords: Passwords{FromFile: "/does/not/exist"}}

		password, err := c.getPassword()
		require.NoError(t, err)
		assert.Equal(t, "env-password", password)
	})

	t.Run("from file", func(t *testing.T) {
		t.Setenv(EnvPassword, "")
		path := filepath.Join(t.TempDir(), "password")
		require.NoError(t, os.WriteFile(path, []byte("file-password\n"), 0o600))
		c := &Cli{passwords: Passwords{FromFile: path}}

		password, err := c.getPassword()
		require.NoError(t, err)
		assert.Equal(t, "file-password", password)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Setenv(EnvPassword, "")
		path := filepath.Join(t.TempDir(), "password")
		require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))
		c := &Cli{passwords: Passwords{FromFile: path}}

		_, err := c.getPassword()
		assert.ErrorContains(t, err, "password file is empty")
	})

	t.Run("prompt", func(t *testing.T) {
		t.Setenv(EnvPassword, "")
		c := &Cli{io: iocli.New(strings.NewReader("typed-password\n"), io.Discard)}

		password, err := c.getPassword()
		require.NoError(t, err)
		assert.Equal(t, "typed-password", password)
	})

	t.Run("empty prompt", func(t *testing.T) {
		t.Setenv(EnvPassword, "")
		c := &Cli{io: iocli.New(strings.NewReader("\n"), io.Discard)}

		_, err := c.getPassword()
		assert.ErrorContains(t, err, "password cannot be empty")
	})
}

func TestLogin_Interactive(t *testing.T) {
	t.Setenv(EnvPassword, "")
	f := newFixture(t, strings.NewReader("alice\n"+testPassword+"\n"))
	ctx := context.Background()

	require.NoError(t, f.cli.Run(ctx, []string{"login"}))

	out := f.out.String()
	assert.Contains(t, out, "Username: ")
	assert.Contains(t, out, "✓ Login successful!")
	assert.Contains(t, out, "Welcome, Alice Smith")
	assert.Contains(t, out, "Access token expires:")
	assert.True(t, f.app.Auth.IsAuthenticated(ctx))
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Setenv(EnvPassword, "wrong-password")
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()

	err := f.cli.Run(ctx, []string{"login", "alice"})
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, f.app.Auth.IsAuthenticated(ctx))
	assert.Equal(t, 0, f.backend.Refreshes())
}

func TestLogout(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()

	require.NoError(t, f.cli.Run(ctx, []string{"logout"}))
	assert.Contains(t, f.out.String(), "Not logged in.")

	f.signIn(t, "alice")
	require.NoError(t, f.cli.Run(ctx, []string{"logout"}))
	assert.Contains(t, f.out.String(), "✓ Logout successful!")
	assert.False(t, f.app.Auth.IsAuthenticated(ctx))
	assert.Equal(t, 1, f.backend.Logouts())
}

func TestStatus(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()

	require.NoError(t, f.cli.Run(ctx, []string{"status"}))
	assert.Contains(t, f.out.String(), "Status:  Not authenticated")

	f.signIn(t, "alice")
	require.NoError(t, f.cli.Run(ctx, []string{"status"}))

	out := f.out.String()
	assert.Contains(t, out, "Status:  Authenticated")
	assert.Contains(t, out, "Last activity:")
	assert.Contains(t, out, "Idle timeout:   1h0m0s")
	assert.Contains(t, out, "Token expires:")
	assert.Contains(t, out, "Time remaining:")
	assert.NotContains(t, out, "Session expired")
}

func TestWhoami(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()

	require.ErrorIs(t, f.cli.Run(ctx, []string{"whoami"}), ErrNotAuthenticated)

	f.signIn(t, "alice")
	require.NoError(t, f.cli.Run(ctx, []string{"whoami"}))

	out := f.out.String()
	assert.Contains(t, out, "Name:      Alice Smith")
	assert.Contains(t, out, "Username:  alice")
	assert.Contains(t, out, "Email:     alice@example.com")
	assert.Contains(t, out, "Role:      staff")
	assert.Contains(t, out, "Groups:    operators")
	assert.Contains(t, out, "Permissions: view, add, change")
}

func TestHealth(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))

	require.NoError(t, f.cli.Run(context.Background(), []string{"health"}))
	assert.Contains(t, f.out.String(), "Status:    ok")
}

func TestList(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()
	f.backend.Seed("racks", apitest.Item{"name": "A1"}, apitest.Item{"name": "A2"}, apitest.Item{"name": "B1"})

	require.ErrorIs(t, f.cli.Run(ctx, []string{"list", "racks"}), ErrNotAuthenticated)

	f.signIn(t, "alice")
	require.NoError(t, f.cli.Run(ctx, []string{"list", "racks", "--page-size", "2"}))

	out := f.out.String()
	assert.Contains(t, out, "ID  NAME")
	assert.Contains(t, out, "A1")
	assert.Contains(t, out, "A2")
	assert.NotContains(t, out, "B1")
	assert.Contains(t, out, "Showing 2 of 3 (more with --page 2)")

	require.NoError(t, f.cli.Run(ctx, []string{"list", "racks", "--all", "--page-size", "2"}))
	assert.Contains(t, f.out.String(), "B1")
	assert.Contains(t, f.out.String(), "Total: 3")
}

func TestList_Errors(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()
	f.signIn(t, "alice")

	require.ErrorIs(t, f.cli.Run(ctx, []string{"list"}), ErrUsage)
	require.ErrorIs(t, f.cli.Run(ctx, []string{"list", "printers"}), ErrUsage)
	require.ErrorIs(t, f.cli.Run(ctx, []string{"list", "racks", "--bogus"}), ErrUsage)
	require.ErrorIs(t, f.cli.Run(ctx, []string{"list", "racks", "room"}), ErrUsage)

	require.NoError(t, f.cli.Run(ctx, []string{"list", "vlans"}))
	assert.Contains(t, f.out.String(), "No items found.")
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{"room=3", "status=active", "status=planned"})
	require.NoError(t, err)
	assert.Equal(t, "3", filters.Get("room"))
	assert.Equal(t, []string{"active", "planned"}, filters["status"])

	filters, err = parseFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, filters)

	_, err = parseFilters([]string{"=x"})
	require.ErrorIs(t, err, ErrUsage)
}

func TestGet(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()
	seeded := f.backend.Seed("baremetals", apitest.Item{"hostname": "node-01", "cpu": 64})
	f.signIn(t, "alice")

	id := recordID(seeded[0])
	require.NoError(t, f.cli.Run(ctx, []string{"get", "baremetals", id}))
	assert.Contains(t, f.out.String(), `"hostname": "node-01"`)
	assert.Contains(t, f.out.String(), `"cpu": 64`)

	err := f.cli.Run(ctx, []string{"get", "baremetals", "999"})
	require.ErrorIs(t, err, api.ErrNotFound)

	require.ErrorIs(t, f.cli.Run(ctx, []string{"get", "baremetals", "abc"}), ErrUsage)
	require.ErrorIs(t, f.cli.Run(ctx, []string{"get", "baremetals"}), ErrUsage)
}

func TestDelete_StaffDenied(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()
	f.backend.Seed("vlans", apitest.Item{"name": "v10"})
	f.signIn(t, "alice")

	err := f.cli.Run(ctx, []string{"delete", "--yes", "vlans", "1"})
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Len(t, f.backend.Items("vlans"), 1)
}

func TestDelete_Confirm(t *testing.T) {
	f := newFixture(t, strings.NewReader("no\nyes\n"))
	ctx := context.Background()
	f.backend.Seed("vlans", apitest.Item{"name": "v10"}, apitest.Item{"name": "v11"})
	f.signIn(t, "root")

	require.NoError(t, f.cli.Run(ctx, []string{"delete", "vlans", "1"}))
	assert.Contains(t, f.out.String(), "Deletion cancelled.")
	assert.Len(t, f.backend.Items("vlans"), 2)

	require.NoError(t, f.cli.Run(ctx, []string{"delete", "vlans", "1"}))
	assert.Contains(t, f.out.String(), "✓ Deleted 1 item(s) from vlans")
	assert.Len(t, f.backend.Items("vlans"), 1)
}

func TestDelete_Bulk(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()
	f.backend.Seed("vlans", apitest.Item{"name": "v10"}, apitest.Item{"name": "v11"}, apitest.Item{"name": "v12"})
	f.signIn(t, "root")

	require.NoError(t, f.cli.Run(ctx, []string{"delete", "--yes", "vlans", "1", "3"}))
	assert.Equal(t, 1, f.backend.Hits("DELETE", "/vlans/bulk_delete/"))

	items := f.backend.Items("vlans")
	require.Len(t, items, 1)
	assert.Equal(t, "v11", items[0]["name"])
}

func TestUpload(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()
	f.signIn(t, "alice")

	path := filepath.Join(t.TempDir(), "racks.csv")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("A1,room-1\n"), 100), 0o600))

	require.NoError(t, f.cli.Run(ctx, []string{"upload", "racks", path}))

	out := f.out.String()
	assert.Contains(t, out, "Uploading... 100%")
	assert.Contains(t, out, "✓ Upload complete")
	assert.Contains(t, out, `"filename": "racks.csv"`)
	assert.Contains(t, out, `"size": 1000`)
}

func TestCan(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()
	f.signIn(t, "alice")

	require.NoError(t, f.cli.Run(ctx, []string{"can", "change", "racks", "5"}))
	require.NoError(t, f.cli.Run(ctx, []string{"can", "delete"}))
	assert.Equal(t, "yes\nno\n", f.out.String())

	require.ErrorIs(t, f.cli.Run(ctx, []string{"can", "destroy"}), ErrUsage)
	require.ErrorIs(t, f.cli.Run(ctx, []string{"can", "view", "printers"}), ErrUsage)
}

func TestSettings(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()
	f.signIn(t, "alice")

	require.NoError(t, f.cli.Run(ctx, []string{"settings"}))
	assert.Contains(t, f.out.String(), "No settings saved.")

	require.NoError(t, f.cli.Run(ctx, []string{"settings", "theme=dark", "page_size=50"}))
	require.NoError(t, f.cli.Run(ctx, []string{"settings", "theme=light"}))

	settings, err := f.app.Auth.UserSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"theme": "light", "page_size": float64(50)}, settings)

	require.ErrorIs(t, f.cli.Run(ctx, []string{"settings", "theme"}), ErrUsage)
}

func TestPassword(t *testing.T) {
	f := newFixture(t, strings.NewReader(
		testPassword+"\nnew-password-1\nnew-password-2\n"+
			testPassword+"\nnew-password-1\nnew-password-1\n"))
	ctx := context.Background()
	f.signIn(t, "alice")

	require.ErrorIs(t, f.cli.Run(ctx, []string{"password"}), ErrPasswordMismatch)

	require.NoError(t, f.cli.Run(ctx, []string{"password"}))
	assert.Contains(t, f.out.String(), "✓ Password changed")

	_, err := f.app.Auth.Login(ctx, models.Credentials{Username: "alice", Password: "new-password-1"})
	require.NoError(t, err)
}

func TestCommand_SessionExpiredOnFailedRefresh(t *testing.T) {
	f := newFixture(t, strings.NewReader(""))
	ctx := context.Background()
	f.signIn(t, "alice")

	f.backend.ExpireAccessTokens()
	f.backend.RevokeRefreshTokens()

	err := f.cli.Run(ctx, []string{"list", "racks"})
	require.ErrorIs(t, err, api.ErrSessionExpired)
	assert.Contains(t, f.out.String(), "Your session has expired.")
	assert.Contains(t, f.out.String(), "Run 'infradash login' to sign in again.")
	assert.False(t, f.app.Auth.IsAuthenticated(ctx))
}

func TestNavigator(t *testing.T) {
	var out bytes.Buffer
	nav := Navigator(iocli.New(strings.NewReader(""), &out))

	nav.Redirect(context.Background(), api.LoginTarget(api.ReasonSessionExpired))
	assert.Contains(t, out.String(), "Session expired due to inactivity.")

	out.Reset()
	nav.Redirect(context.Background(), api.LoginPath)
	assert.Contains(t, out.String(), "Your session has expired.")
}

func TestShell(t *testing.T) {
	f := newFixture(t, strings.NewReader("\nwhoami\nsync\nlogin\nexit\n"))
	ctx := context.Background()

	require.ErrorIs(t, f.cli.Run(ctx, []string{"shell"}), ErrNotAuthenticated)

	f.signIn(t, "alice")
	require.NoError(t, f.cli.Run(ctx, []string{"shell"}))

	out := f.out.String()
	assert.Contains(t, out, "Signed in as alice. Idle timeout: 1h0m0s.")
	assert.Contains(t, out, "=== Current User ===")
	assert.Contains(t, out, `Error: invalid usage: unknown command "sync"`)
	assert.Contains(t, out, "'login' is not available inside the shell")
	assert.True(t, f.app.Auth.IsAuthenticated(ctx))
}

func TestShell_LogoutEndsShell(t *testing.T) {
	f := newFixture(t, strings.NewReader("logout\nwhoami\n"))
	ctx := context.Background()
	f.signIn(t, "alice")

	require.NoError(t, f.cli.Run(ctx, []string{"shell"}))
	assert.Contains(t, f.out.String(), "✓ Logout successful!")
	assert.NotContains(t, f.out.String(), "=== Current User ===")
}

func TestShell_EOF(t *testing.T) {
	f := newFixture(t, strings.NewReader("health"))
	ctx := context.Background()
	f.signIn(t, "alice")

	require.NoError(t, f.cli.Run(ctx, []string{"shell"}))
	assert.Contains(t, f.out.String(), "Status:    ok")
}

func TestShell_IdleTimeout(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = w.Close()
		_ = r.Close()
	})

	f := newFixture(t, r, func(cfg *config.Config) {
		cfg.Session.Timeout = 300 * time.Millisecond
	})
	ctx := context.Background()
	f.signIn(t, "alice")

	done := make(chan error, 1)
	go func() { done <- f.cli.Run(ctx, []string{"shell"}) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shell did not exit after idle timeout")
	}

	assert.Contains(t, f.out.String(), "Session expired due to inactivity.")
	assert.False(t, f.app.Auth.IsAuthenticated(ctx))
	assert.Equal(t, 1, f.backend.Logouts())
}
