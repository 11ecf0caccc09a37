// Package config loads the proxy, cache and widget configuration from an
// optional TOML or YAML file and the process environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed config.example.toml
var exampleConf []byte

// Cache drivers.
const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Widget offline policies.
const (
	OfflineSample = "sample"
	OfflineHidden = "hidden"
)

var (
	// ErrMissingCredentials is returned when CLIENT_ID, CLIENT_SECRET or REFRESH_TOKEN is not set.
	ErrMissingCredentials = errors.New("missing Spotify credentials")

	// ErrInvalidConfig is returned when a setting has an unsupported value.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the full application configuration.
type Config struct {
	LogLevel string        `toml:"log_level" yaml:"log_level"`
	Spotify  SpotifyConfig `toml:"spotify" yaml:"spotify"`
	Server   ServerConfig  `toml:"server" yaml:"server"`
	Cache    CacheConfig   `toml:"cache" yaml:"cache"`
	Widget   WidgetConfig  `toml:"widget" yaml:"widget"`
	Site     SiteConfig    `toml:"site" yaml:"site"`
}

// SpotifyConfig holds the single account's credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string        `toml:"client_id" yaml:"client_id"`
	ClientSecret string        `toml:"client_secret" yaml:"client_secret"`
	RefreshToken string        `toml:"refresh_token" yaml:"refresh_token"`
	TokenURL     string        `toml:"token_url" yaml:"token_url"`
	APIBaseURL   string        `toml:"api_base_url" yaml:"api_base_url"`
	Timeout      time.Duration `toml:"timeout" yaml:"timeout"`
}

// ServerConfig configures the now-playing HTTP endpoint.
type ServerConfig struct {
	Addr           string   `toml:"addr" yaml:"addr"`
	Path           string   `toml:"path" yaml:"path"`
	APIKey         string   `toml:"api_key" yaml:"api_key"`
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins"`
	RateLimit      float64  `toml:"rate_limit" yaml:"rate_limit"`
	RateBurst      int      `toml:"rate_burst" yaml:"rate_burst"`
}

// CacheConfig selects the last-known-track store.
type CacheConfig struct {
	Driver      string `toml:"driver" yaml:"driver"`
	Table       string `toml:"table" yaml:"table"`
	DatabaseURL string `toml:"database_url" yaml:"database_url"`
	SQLitePath  string `toml:"sqlite_path" yaml:"sqlite_path"`
}

// WidgetConfig configures the polling widget.
type WidgetConfig struct {
	APIURL   string        `toml:"api_url" yaml:"api_url"`
	APIKey   string        `toml:"api_key" yaml:"api_key"`
	Interval time.Duration `toml:"interval" yaml:"interval"`
	Timeout  time.Duration `toml:"timeout" yaml:"timeout"`
	Offline  string        `toml:"offline" yaml:"offline"`
}

// SiteConfig configures the portfolio page server.
type SiteConfig struct {
	Addr  string `toml:"addr" yaml:"addr"`
	Title string `toml:"title" yaml:"title"`
}

// Default returns a Config populated from the embedded example file.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("parsing embedded default config: %v", err))
	}
	return &cfg
}

// Load builds a Config from defaults, the file at path (if not empty), and
// then the environment. Environment variables win over file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.check(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile decodes path over the receiver, choosing the format by extension.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing TOML config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing YAML config: %w", err)
		}
	default:
		return fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, ext)
	}

	return nil
}

// applyEnv overlays environment variables. lookup is os.LookupEnv outside tests.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("CLIENT_ID", &c.Spotify.ClientID)
	str("CLIENT_SECRET", &c.Spotify.ClientSecret)
	str("REFRESH_TOKEN", &c.Spotify.RefreshToken)
	str("API_KEY", &c.Server.APIKey)
	str("CACHE_DRIVER", &c.Cache.Driver)
	str("DATABASE_URL", &c.Cache.DatabaseURL)
	str("TABLE_NAME", &c.Cache.Table)
	str("PUBLIC_API_URL", &c.Widget.APIURL)
	str("PUBLIC_API_KEY", &c.Widget.APIKey)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}

	if v, ok := lookup("RATE_LIMIT"); ok && v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: RATE_LIMIT %q: %v", ErrInvalidConfig, v, err)
		}
		c.Server.RateLimit = limit
	}

	return nil
}

// check validates settings that do not depend on secrets.
func (c *Config) check() error {
	switch c.Cache.Driver {
	case DriverNone, DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown cache driver %q", ErrInvalidConfig, c.Cache.Driver)
	}

	switch c.Widget.Offline {
	case OfflineSample, OfflineHidden:
	default:
		return fmt.Errorf("%w: unknown widget offline policy %q", ErrInvalidConfig, c.Widget.Offline)
	}

	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("%w: server.allowed_origins must list at least one origin", ErrInvalidConfig)
	}

	if c.Cache.Driver == DriverPostgres && c.Cache.DatabaseURL == "" {
		return fmt.Errorf("%w: postgres cache requires DATABASE_URL", ErrInvalidConfig)
	}

	return nil
}

// Validate reports ErrMissingCredentials naming every missing Spotify secret.
func (s SpotifyConfig) Validate() error {
	var missing []string
	if s.ClientID == "" {
		missing = append(missing, "CLIENT_ID")
	}
	if s.ClientSecret == "" {
		missing = append(missing, "CLIENT_SECRET")
	}
	if s.RefreshToken == "" {
		missing = append(missing, "REFRESH_TOKEN")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// WriteExample writes the example configuration to path. It refuses to
// overwrite an existing file.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
