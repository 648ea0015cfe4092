// Package config loads application settings from an optional YAML file with
// environment variable overrides. Environment always wins, so deployments
// can run config-file-free.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server needs at startup.
type Config struct {
	Raindrop RaindropConfig `yaml:"raindrop"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Feeds    FeedsConfig    `yaml:"feeds"`
}

// RaindropConfig carries the OAuth app credentials.
type RaindropConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
	// TestToken bypasses session auth on the bookmark API when set.
	// Development convenience only.
	TestToken string `yaml:"test_token"`
}

// ServerConfig carries HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	// Environment toggles Secure cookies when set to "production".
	Environment string `yaml:"environment"`
}

// DatabaseConfig carries the SQLite path.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// FeedsConfig names the two tag feeds shown by the app.
type FeedsConfig struct {
	Read  string `yaml:"read"`
	Watch string `yaml:"watch"`
}

// Load reads path (when non-empty and present), applies environment
// overrides, and fills in defaults. A missing file is not an error; missing
// OAuth credentials are, but only when the auth flow is exercised, so Load
// does not reject them here.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// fall through to env + defaults
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Raindrop.ClientID, "RAINDROP_CLIENT_ID")
	setFromEnv(&cfg.Raindrop.ClientSecret, "RAINDROP_CLIENT_SECRET")
	setFromEnv(&cfg.Raindrop.RedirectURI, "RAINDROP_REDIRECT_URI")
	setFromEnv(&cfg.Raindrop.TestToken, "RAINDROP_TEST_TOKEN")
	setFromEnv(&cfg.Server.Host, "HOST")
	setFromEnv(&cfg.Server.Port, "PORT")
	setFromEnv(&cfg.Server.Environment, "YABA_ENV")
	setFromEnv(&cfg.Database.Path, "YABA_DB_PATH")
	setFromEnv(&cfg.Feeds.Read, "YABA_READ_TAG")
	setFromEnv(&cfg.Feeds.Watch, "YABA_WATCH_TAG")
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "yaba.db"
	}
	if cfg.Feeds.Read == "" {
		cfg.Feeds.Read = "read"
	}
	if cfg.Feeds.Watch == "" {
		cfg.Feeds.Watch = "watch"
	}
}

// Production reports whether Secure cookies should be set.
func (c *Config) Production() bool {
	return c.Server.Environment == "production"
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
