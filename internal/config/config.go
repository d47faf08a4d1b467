// Package config загружает конфигурацию клиента InfraDash.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. INFRADASH_CONFIG;
//  3. ./infradash.yaml;
//  4. только ENV (cleanenv).
//
// Переменные окружения всегда перекрывают значения из файла.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfigPath переменная окружения с путем к файлу конфигурации
const EnvConfigPath = "INFRADASH_CONFIG"

// LocalFile файл конфигурации в текущем каталоге
const LocalFile = "infradash.yaml"

// Драйверы хранилища сессии
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// ErrInvalidConfig конфигурация загружена, но не прошла проверку
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env       string        `yaml:"env"        env:"INFRADASH_ENV"        env-default:"local"`
	LogLevel  string        `yaml:"log_level"  env:"INFRADASH_LOG_LEVEL"  env-default:"info"`
	LogFormat string        `yaml:"log_format" env:"INFRADASH_LOG_FORMAT" env-default:"text"`
	API       APIConfig     `yaml:"api"`
	Storage   StorageConfig `yaml:"storage"`
	Session   SessionConfig `yaml:"session"`
	Metrics   MetricsConfig `yaml:"metrics"`
}

// APIConfig адрес backend'а и таймаут запросов
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"INFRADASH_API_BASE_URL" env-default:"http://localhost:8000/api/v1"`
	Timeout time.Duration `yaml:"timeout"  env:"INFRADASH_API_TIMEOUT"  env-default:"30s"`
}

// StorageConfig хранилище токенов и состояния сессии.
// Passphrase включает шифрование токенов на диске.
type StorageConfig struct {
	Driver     string `yaml:"driver"     env:"INFRADASH_STORAGE_DRIVER" env-default:"bolt"`
	Path       string `yaml:"path"       env:"INFRADASH_STORAGE_PATH"   env-default:"infradash-session.db"`
	RedisURL   string `yaml:"redis_url"  env:"INFRADASH_REDIS_URL"      env-default:"redis://localhost:6379/0"`
	Prefix     string `yaml:"prefix"     env:"INFRADASH_STORAGE_PREFIX"`
	Passphrase string `yaml:"passphrase" env:"INFRADASH_STORAGE_PASSPHRASE"`
	Salt       string `yaml:"salt"       env:"INFRADASH_STORAGE_SALT" env-default:"infradash"`
}

// Encrypted true, если токены шифруются перед записью
func (s StorageConfig) Encrypted() bool { return s.Passphrase != "" }

// SessionConfig параметры истечения сессии по неактивности.
// Signals виды взаимодействия, продлевающие сессию (в CLI это введенная команда).
type SessionConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"INFRADASH_SESSION_TIMEOUT" env-default:"24h"`
	Signals []string      `yaml:"signals" env:"INFRADASH_SESSION_SIGNALS" env-separator:"," env-default:"command"`
}

// MetricsConfig адрес HTTP для Prometheus в режиме shell. Пустой адрес отключает.
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"INFRADASH_METRICS_ADDR"`
}

// MustLoad паника при ошибке загрузки
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}
		return &cfg, cfg.Validate()
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) INFRADASH_CONFIG
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./infradash.yaml
	if _, err := os.Stat(LocalFile); err == nil {
		return tryRead(LocalFile)
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	return &cfg, cfg.Validate()
}

// Validate проверяет значения, которые cleanenv не проверяет сам
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", ErrInvalidConfig)
	}
	if c.Session.Timeout <= 0 {
		return fmt.Errorf("%w: session.timeout must be positive", ErrInvalidConfig)
	}
	drivers := []string{DriverBolt, DriverSQLite, DriverRedis, DriverMemory}
	if !slices.Contains(drivers, c.Storage.Driver) {
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	return nil
}
