package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string        `mapstructure:"app_name"`
	Env            string        `mapstructure:"app_env"`
	LogLevel       string        `mapstructure:"log_level"`
	BaseURL        string        `mapstructure:"base_url"`
	Passphrase     string        `mapstructure:"passphrase" json:"-"`
	TimeoutSeconds int64         `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
	SinksFile      string        `mapstructure:"sinks_file"`

	ArchiveType            string        `mapstructure:"archive_type"`
	ArchivePath            string        `mapstructure:"archive_path"`
	ArchiveTTLSeconds      int64         `mapstructure:"archive_ttl_seconds"`
	ArchiveCleanupSeconds  int64         `mapstructure:"archive_cleanup_interval_seconds"`
	ArchiveTTL             time.Duration `mapstructure:"-"`
	ArchiveCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "samvad-http-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("base_url", "")
	v.SetDefault("passphrase", "")
	v.SetDefault("timeout_seconds", 0)
	v.SetDefault("sinks_file", "")
	v.SetDefault("archive_type", "none")
	v.SetDefault("archive_path", "./data/requests.db")
	v.SetDefault("archive_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("archive_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url is required")
	}
	if cfg.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid timeout_seconds (must not be negative)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	if cfg.ArchiveTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid archive_ttl_seconds (must be positive seconds)")
	}
	if cfg.ArchiveCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid archive_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.ArchiveTTL = time.Duration(cfg.ArchiveTTLSeconds) * time.Second
	cfg.ArchiveCleanupInterval = time.Duration(cfg.ArchiveCleanupSeconds) * time.Second

	return &cfg, nil
}
