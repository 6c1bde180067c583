package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL = "http://localhost:8000"

	envAPIURL       = "DIALOG_SEARCH_API_URL"
	envStorage      = "DIALOG_SEARCH_STORAGE"
	envQueryTimeout = "DIALOG_SEARCH_QUERY_TIMEOUT"
	envLoginTimeout = "DIALOG_SEARCH_LOGIN_TIMEOUT"
)

// Config holds client settings. Precedence, lowest first: defaults, config
// file, environment (including .env), command-line flags.
type Config struct {
	APIURL  string `yaml:"api_url"`
	Storage string `yaml:"storage"`
	// Zero means no timeout.
	QueryTimeout time.Duration `yaml:"query_timeout"`
	LoginTimeout time.Duration `yaml:"login_timeout"`
}

// LoadConfig builds the configuration. An explicitly named config file must
// exist; the default one is optional.
func LoadConfig(paths DataPaths, explicitPath string) (*Config, error) {
	cfg := &Config{
		APIURL:  DefaultAPIURL,
		Storage: paths.DatabasePath,
	}

	path := paths.ConfigPath
	if explicitPath != "" {
		path = explicitPath
	}
	if err := cfg.loadFile(path); err != nil {
		if explicitPath != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		LogDebug("No config file at %s, using defaults", path)
	}

	// .env is a development convenience, absence is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		LogWarn("Could not load .env file: %v", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ParseError{Source: "config", Key: path, Err: err}
	}
	LogDebug("Loaded config from %s", path)
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(envAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(envStorage); v != "" {
		c.Storage = v
	}
	if v := os.Getenv(envQueryTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envQueryTimeout, v, err)
		}
		c.QueryTimeout = d
	}
	if v := os.Getenv(envLoginTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envLoginTimeout, v, err)
		}
		c.LoginTimeout = d
	}
	return nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
