package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Resolver ResolverConfig `toml:"resolver"`
	Database DatabaseConfig `toml:"database"`
	Bot      BotConfig      `toml:"bot"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// ResolverConfig contains settings for playlist resolution.
type ResolverConfig struct {
	YouTube            YouTubeConfig `toml:"youtube"`
	Spotify            SpotifyConfig `toml:"spotify"`
	TimeoutSeconds     int           `toml:"timeout_seconds"`      // Overall deadline per resolution, 0 disables
	HTTPTimeoutSeconds int           `toml:"http_timeout_seconds"` // Per HTTP request
	RequestsPerSecond  float64       `toml:"requests_per_second"`  // Outbound pacing, 0 disables
}

// YouTubeConfig contains settings for the flat playlist enumerator process.
type YouTubeConfig struct {
	Binary        string   `toml:"binary"`
	Args          []string `toml:"args"`
	SkipMalformed bool     `toml:"skip_malformed"`
}

// SpotifyConfig contains Spotify endpoints.
type SpotifyConfig struct {
	TokenURL string `toml:"token_url"`
	APIURL   string `toml:"api_url"`
	MaxPages int    `toml:"max_pages"` // 1 consumes only the first page, 0 follows every page
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver       string `toml:"driver"` // sqlite3 or postgres
	Path         string `toml:"path"`   // File path for sqlite3, DSN for postgres
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// BotConfig contains chat command settings.
type BotConfig struct {
	Prefix  string `toml:"prefix"`
	GuildID int64  `toml:"guild_id"` // Guild used by the console
	UserID  int64  `toml:"user_id"`  // User used by the console
}

// ServerConfig contains settings for the HTTP resolution endpoint.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Timeout returns the per-resolution deadline.
func (c ResolverConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HTTPTimeout returns the per-request HTTP client timeout.
func (c ResolverConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var problems []string

	if c.Resolver.YouTube.Binary == "" {
		problems = append(problems, "resolver.youtube.binary cannot be empty")
	}

	for _, field := range []struct{ name, raw string }{
		{"resolver.spotify.token_url", c.Resolver.Spotify.TokenURL},
		{"resolver.spotify.api_url", c.Resolver.Spotify.APIURL},
	} {
		name, raw := field.name, field.raw
		if raw == "" {
			problems = append(problems, fmt.Sprintf("%s cannot be empty", name))
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("%s is not a valid URL: %s", name, raw))
		}
	}

	if c.Resolver.Spotify.MaxPages < 0 {
		problems = append(problems, "resolver.spotify.max_pages cannot be negative")
	}
	if c.Resolver.TimeoutSeconds < 0 || c.Resolver.HTTPTimeoutSeconds < 0 {
		problems = append(problems, "resolver timeouts cannot be negative")
	}
	if c.Resolver.RequestsPerSecond < 0 {
		problems = append(problems, "resolver.requests_per_second cannot be negative")
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		problems = append(problems, fmt.Sprintf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver))
	}
	if c.Database.Path == "" {
		problems = append(problems, "database.path cannot be empty")
	}

	if strings.TrimSpace(c.Bot.Prefix) == "" {
		problems = append(problems, "bot.prefix cannot be empty")
	}

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr cannot be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
