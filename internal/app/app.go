// Package app собирает клиент InfraDash из конфигурации:
// хранилище сессии, api.Client, сервис авторизации и ресурсы.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/infradash/internal/client/api"
	"github.com/iudanet/infradash/internal/client/auth"
	"github.com/iudanet/infradash/internal/client/resources"
	"github.com/iudanet/infradash/internal/client/storage"
	"github.com/iudanet/infradash/internal/client/storage/boltdb"
	"github.com/iudanet/infradash/internal/client/storage/memory"
	"github.com/iudanet/infradash/internal/client/storage/redis"
	"github.com/iudanet/infradash/internal/client/storage/sqlite"
	"github.com/iudanet/infradash/internal/config"
	"github.com/iudanet/infradash/internal/crypto"
)

// ErrUnknownDriver драйвер хранилища не поддерживается
var ErrUnknownDriver = errors.New("unknown storage driver")

// App связанные компоненты клиента
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	KV        storage.KVStorage
	Tokens    *storage.TokenStore
	Client    *api.Client
	Auth      *auth.Service
	Inventory *resources.Inventory
}

// New открывает хранилище и создает сервисы.
// nav получает переходы на страницу входа после истечения сессии.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, nav api.Navigator) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	kv, err := OpenStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	sealer, err := newSealer(cfg.Storage)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	tokens := storage.NewTokenStore(kv, sealer)
	client := api.NewClient(cfg.API.BaseURL, tokens,
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger),
		api.WithNavigator(nav),
		api.WithMetrics(api.NewMetrics(registry)),
	)

	svc := auth.NewService(client, tokens,
		auth.WithLogger(logger),
		auth.WithSessionTimeout(cfg.Session.Timeout),
	)

	logger.DebugContext(ctx, "client assembled",
		slog.String("base_url", client.BaseURL()),
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("encrypted", sealer != nil),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Registry:  registry,
		KV:        kv,
		Tokens:    tokens,
		Client:    client,
		Auth:      svc,
		Inventory: resources.NewInventory(client),
	}, nil
}

// OpenStorage открывает KV-хранилище выбранного драйвера
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (storage.KVStorage, error) {
	switch cfg.Driver {
	case config.DriverBolt:
		s, err := boltdb.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt storage: %w", err)
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return s, nil
	case config.DriverRedis:
		s, err := redis.New(ctx, cfg.RedisURL, cfg.Prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis storage: %w", err)
		}
		return s, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func newSealer(cfg config.StorageConfig) (*crypto.Sealer, error) {
	if !cfg.Encrypted() {
		return nil, nil
	}
	key, err := crypto.DeriveStoreKey(cfg.Passphrase, cfg.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive storage key: %w", err)
	}
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create sealer: %w", err)
	}
	return sealer, nil
}

// NewMonitor создает монитор неактивности с параметрами из конфигурации
func (a *App) NewMonitor(nav api.Navigator) *auth.Monitor {
	opts := []auth.MonitorOption{
		auth.WithIdleTimeout(a.Config.Session.Timeout),
		auth.WithMonitorLogger(a.Logger),
	}
	if len(a.Config.Session.Signals) > 0 {
		opts = append(opts, auth.WithSignals(a.Config.Session.Signals...))
	}
	return auth.NewMonitor(a.Auth, nav, opts...)
}

// MetricsHandler отдает метрики клиента в формате Prometheus
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
}

// Close закрывает хранилище
func (a *App) Close() error {
	if err := a.KV.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
