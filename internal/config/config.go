// Package config loads startup configuration. Values are layered, later
// layers winning: built-in defaults, an optional TOML file, then environment
// variables. A .env file, when present, seeds the environment without
// overriding variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/ggoodman/ez-mcp/mcp"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultEnvFile is the dotenv file read by Load when no other is named.
const DefaultEnvFile = ".env"

// Config is the server's startup configuration.
type Config struct {
	// Environment names the deployment, e.g. development. ENV: ENVIRONMENT
	Environment string `toml:"environment" env:"ENVIRONMENT"`
	// GreetingPrefix is reported at startup and by config://settings. ENV: GREETING_PREFIX
	GreetingPrefix string `toml:"greeting_prefix" env:"GREETING_PREFIX"`
	// LogLevel is one of debug, info, warn, error. ENV: LOG_LEVEL
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`
	// LogFormat is text or json. ENV: LOG_FORMAT
	LogFormat string `toml:"log_format" env:"LOG_FORMAT"`
	// HTTPAddr, when set, serves HTTP instead of stdio. ENV: EZMCP_HTTP_ADDR
	HTTPAddr string `toml:"http_addr" env:"EZMCP_HTTP_ADDR"`
	// ServerName is reported in initialize. ENV: EZMCP_SERVER_NAME
	ServerName    string `toml:"server_name" env:"EZMCP_SERVER_NAME"`
	ServerVersion string `toml:"server_version"`
	// ProtocolVersion is offered to clients asking for an unknown protocol
	// revision. Empty means the latest. ENV: EZMCP_PROTOCOL_VERSION
	ProtocolVersion string `toml:"protocol_version" env:"EZMCP_PROTOCOL_VERSION"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Environment:    "development",
		GreetingPrefix: "Welcome",
		LogLevel:       "info",
		LogFormat:      "text",
		ServerName:     "EZ-MCP Demo Server",
		ServerVersion:  "1.0.0",
	}
}

// Load builds the configuration. path names an optional TOML file; an empty
// path skips that layer. envFiles default to DefaultEnvFile; missing files
// are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file '%s': %w", f, err)
		}
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: want text or json", c.LogFormat)
	}
	if c.ProtocolVersion != "" && !slices.Contains(mcp.SupportedProtocolVersions, c.ProtocolVersion) {
		return fmt.Errorf("unsupported protocol version %q: want one of %s", c.ProtocolVersion, strings.Join(mcp.SupportedProtocolVersions, ", "))
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
