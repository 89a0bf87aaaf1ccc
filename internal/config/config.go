package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is read once at startup and passed explicitly to every component.
// Precedence: defaults, then the YAML file named by CONFIG_FILE, then env.
type Config struct {
	AppEnv       string     `envconfig:"APP_ENV" yaml:"app_env"`
	LogLevelName string     `envconfig:"LOG_LEVEL" yaml:"log_level"`
	LogLevel     slog.Level `ignored:"true" yaml:"-"`
	HTTPAddr     string     `envconfig:"HTTP_ADDR" yaml:"http_addr"`

	// Driver is the database/sql driver name: "sqlite3" (cgo) or "sqlite" (pure Go).
	Driver string `envconfig:"DB_DRIVER" yaml:"db_driver"`
	// DSN overrides the DSN built from Path.
	DSN             string        `envconfig:"DB_DSN" yaml:"db_dsn"`
	Path            string        `envconfig:"SQLITE_PATH" yaml:"sqlite_path"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" yaml:"db_max_open_conns"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" yaml:"db_max_idle_conns"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" yaml:"db_conn_max_lifetime"`
	LogSQL          bool          `envconfig:"LOG_SQL" yaml:"log_sql"`

	// RateLimitRPS of 0 disables rate limiting.
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" yaml:"rate_limit_rps"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" yaml:"rate_limit_burst"`
}

func Defaults() Config {
	return Config{
		AppEnv:         "dev",
		LogLevelName:   "info",
		LogLevel:       slog.LevelInfo,
		HTTPAddr:       ":8080",
		Driver:         "sqlite3",
		Path:           "Resources/hawaii.sqlite",
		MaxOpenConns:   4,
		MaxIdleConns:   4,
		RateLimitBurst: 20,
	}
}

func LoadFromEnv() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	// A variable that is set but blank means "not configured".
	unsetBlankEnv()
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("env config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// unsetBlankEnv removes every Config variable whose value is blank so
// envconfig keeps the default or file value instead of parsing "".
func unsetBlankEnv() {
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("envconfig")
		if key == "" {
			continue
		}
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) == "" {
			os.Unsetenv(key)
		}
	}
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("CONFIG_FILE %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("CONFIG_FILE %q: %w", path, err)
	}
	return nil
}

// normalize trims values, falls back to defaults for blank strings and
// validates everything that has a closed set of values.
func (c *Config) normalize() error {
	def := Defaults()

	c.AppEnv = orDefault(c.AppEnv, def.AppEnv)
	switch c.AppEnv {
	case "dev", "prod":
	default:
		return fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", c.AppEnv)
	}

	c.LogLevelName = orDefault(c.LogLevelName, def.LogLevelName)
	level, err := parseLogLevel(c.LogLevelName)
	if err != nil {
		return err
	}
	c.LogLevel = level

	c.HTTPAddr = orDefault(c.HTTPAddr, def.HTTPAddr)

	c.Driver = orDefault(c.Driver, def.Driver)
	switch c.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q (allowed: sqlite3, sqlite)", c.Driver)
	}
	c.DSN = strings.TrimSpace(c.DSN)
	c.Path = orDefault(c.Path, def.Path)

	if c.MaxOpenConns < 0 {
		return fmt.Errorf("invalid DB_MAX_OPEN_CONNS %d (must be >= 0)", c.MaxOpenConns)
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("invalid DB_MAX_IDLE_CONNS %d (must be >= 0)", c.MaxIdleConns)
	}
	if c.ConnMaxLifetime < 0 {
		return fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %s (must be >= 0)", c.ConnMaxLifetime)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("invalid RATE_LIMIT_RPS %g (must be >= 0)", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("invalid RATE_LIMIT_BURST %d (must be >= 1 when rate limiting)", c.RateLimitBurst)
	}
	return nil
}

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
