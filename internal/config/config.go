package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendREST   = "rest"
	BackendSQLite = "sqlite"
)

// Config holds application configuration.
type Config struct {
	Store    StoreConfig
	Database DatabaseConfig
	Log      LogConfig
	UI       UIConfig
}

// StoreConfig selects and parameterizes the record store.
type StoreConfig struct {
	Backend string
	URL     string
	AnonKey string `mapstructure:"anon_key"`
	Table   string
	Timeout time.Duration
}

// DatabaseConfig holds sqlite settings for the local backend.
type DatabaseConfig struct {
	Path string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Timezone       string
	DateFormat     string `mapstructure:"date_format"`
	DateTimeFormat string `mapstructure:"datetime_format"`
}

// RESTConfigured reports whether both the endpoint and the key are present.
func (s StoreConfig) RESTConfigured() bool {
	return strings.TrimSpace(s.URL) != "" && strings.TrimSpace(s.AnonKey) != ""
}

// Location resolves the configured timezone, falling back to local time.
func (u UIConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(u.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("load timezone %q: %w", u.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from file and env. Env var overrides use prefix
// MCCHECK_; a .env file in the working directory is read first. The Supabase
// variable names are accepted for the store endpoint and key.
func Load() (Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()

	home := os.Getenv("HOME")
	v.SetDefault("store.backend", BackendREST)
	v.SetDefault("store.url", "")
	v.SetDefault("store.anon_key", "")
	v.SetDefault("store.table", "mc_verifications")
	v.SetDefault("store.timeout", 15*time.Second)
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "mccheck", "mccheck.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", filepath.Join(home, ".local", "state", "mccheck", "mccheck.log"))
	v.SetDefault("ui.timezone", "")
	v.SetDefault("ui.date_format", "01/02/2006")
	v.SetDefault("ui.datetime_format", "01/02/2006 3:04:05 PM")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("MCCHECK_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "mccheck"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MCCHECK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("store.url", "MCCHECK_STORE_URL", "SUPABASE_URL", "VITE_SUPABASE_URL")
	_ = v.BindEnv("store.anon_key", "MCCHECK_STORE_ANON_KEY", "SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case BackendREST, BackendSQLite:
	default:
		return Config{}, fmt.Errorf("store.backend %q: want %s or %s", c.Store.Backend, BackendREST, BackendSQLite)
	}
	return c, nil
}

// Path returns where Save writes the config file.
func Path() string {
	if p := os.Getenv("MCCHECK_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "mccheck", "config.toml")
}

// Save writes the provided config to disk, creating the config directory if needed.
// The anon key is stored in plain text; prefer the environment for it.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("store.backend", cfg.Store.Backend)
	v.Set("store.url", cfg.Store.URL)
	v.Set("store.anon_key", cfg.Store.AnonKey)
	v.Set("store.table", cfg.Store.Table)
	v.Set("store.timeout", cfg.Store.Timeout.String())
	v.Set("database.path", cfg.Database.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("log.file", cfg.Log.File)
	v.Set("ui.timezone", cfg.UI.Timezone)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.datetime_format", cfg.UI.DateTimeFormat)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
