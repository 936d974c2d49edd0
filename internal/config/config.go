// Package config loads the terminal client's configuration.
//
// Values come from a YAML file, by default
// $XDG_CONFIG_HOME/codemaster/config.yaml, in which ${VAR} and
// ${VAR:default} are expanded from the environment. CODEMASTER_* variables
// then override individual keys. A missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the client configuration.
type Config struct {
	BaseURL       string              `yaml:"base_url"`
	Language      string              `yaml:"language"`
	Timeout       time.Duration       `yaml:"timeout"`
	LogLevel      string              `yaml:"log_level"`
	Session       SessionConfig       `yaml:"session"`
	GitHub        GitHubConfig        `yaml:"github"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

// SessionConfig selects where the login is persisted.
type SessionConfig struct {
	Backend       string `yaml:"backend"` // file, redis or memory
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

type GitHubConfig struct {
	// ClientID of the GitHub OAuth app used for device-flow sign-in.
	ClientID string `yaml:"client_id"`
}

type NotificationsConfig struct {
	TTL time.Duration `yaml:"ttl"`
	Max int           `yaml:"max"`
}

const (
	DefaultBaseURL  = "http://localhost:8080/api/v1"
	DefaultLanguage = "Java"
	DefaultTimeout  = 15 * time.Second
	DefaultLogLevel = "warn"
)

// Dir returns the directory holding the config and session files.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locating user config dir: %w", err)
	}
	return filepath.Join(base, "codemaster"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads path, applies environment overrides and defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	default:
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:default}.
func expandEnvVars(content string) string {
	return envPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"CODEMASTER_BASE_URL":         &c.BaseURL,
		"CODEMASTER_LANGUAGE":         &c.Language,
		"CODEMASTER_LOG_LEVEL":        &c.LogLevel,
		"CODEMASTER_SESSION_BACKEND":  &c.Session.Backend,
		"CODEMASTER_SESSION_PATH":     &c.Session.Path,
		"CODEMASTER_REDIS_ADDR":       &c.Session.RedisAddr,
		"CODEMASTER_REDIS_PASSWORD":   &c.Session.RedisPassword,
		"CODEMASTER_GITHUB_CLIENT_ID": &c.GitHub.ClientID,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("CODEMASTER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: CODEMASTER_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("CODEMASTER_NOTIFICATIONS_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CODEMASTER_NOTIFICATIONS_MAX: %w", err)
		}
		c.Notifications.Max = n
	}
	return nil
}

func (c *Config) applyDefaults() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "file"
	}
	if c.Session.Backend == "file" && c.Session.Path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		c.Session.Path = filepath.Join(dir, "session.json")
	}
	if c.Notifications.TTL == 0 {
		c.Notifications.TTL = 3 * time.Second
	}
	if c.Notifications.Max == 0 {
		c.Notifications.Max = 5
	}
	return nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute http(s) URL", c.BaseURL)
	}
	switch c.Session.Backend {
	case "file", "memory":
	case "redis":
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("session.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("session.backend %q must be file, redis or memory", c.Session.Backend)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Notifications.Max < 0 || c.Notifications.TTL < 0 {
		return fmt.Errorf("notifications.ttl and notifications.max must be positive")
	}
	return nil
}
