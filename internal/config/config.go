package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, eg. RESURCH_API_URL.
const EnvPrefix = "RESURCH"

// DefaultAPIURL is the local development endpoint of the catalog service.
const DefaultAPIURL = "http://localhost:8000"

// Config holds the client configuration loaded from .env, the environment
// and command-line flags bound into viper.
type Config struct {
	APIURL                    string        `mapstructure:"api_url"`
	UserID                    string        `mapstructure:"user_id"`
	SearchLimit               int           `mapstructure:"search_limit"`
	RequestTimeoutSeconds     int64         `mapstructure:"request_timeout_seconds"`
	InteractionTimeoutSeconds int64         `mapstructure:"interaction_timeout_seconds"`
	LogLevel                  string        `mapstructure:"log_level"`
	LogFile                   string        `mapstructure:"log_file"`
	RequestTimeout            time.Duration `mapstructure:"-"`
	InteractionTimeout        time.Duration `mapstructure:"-"`
}

// New returns a viper instance seeded with defaults and environment binding.
// Callers may bind flags onto it before handing it to Load.
func New() *viper.Viper {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("user_id", "")
	v.SetDefault("search_limit", 10)
	v.SetDefault("request_timeout_seconds", 15)
	v.SetDefault("interaction_timeout_seconds", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", defaultLogFile())

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads configuration from a fresh viper instance.
func Load() (*Config, error) {
	return FromViper(New())
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return nil, fmt.Errorf("invalid api_url %q (must start with http:// or https://)", cfg.APIURL)
	}
	cfg.UserID = strings.TrimSpace(cfg.UserID)

	if cfg.SearchLimit <= 0 {
		return nil, fmt.Errorf("invalid search_limit (must be positive)")
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	if cfg.InteractionTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid interaction_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	cfg.InteractionTimeout = time.Duration(cfg.InteractionTimeoutSeconds) * time.Second

	return &cfg, nil
}

func defaultLogFile() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "resurch", "resurch.log")
}
