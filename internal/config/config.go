package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full runtime configuration, loaded from the
// environment with an optional .env file underneath.
type Config struct {
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Port            int
	ShutdownTimeout time.Duration
	Bootstrap       BootstrapConfig
}

// BootstrapConfig provisions the initial tenant and admin key. The
// three values are required together; Enabled reports whether all are
// set.
type BootstrapConfig struct {
	TenantName string
	KeyName    string
	RawApiKey  string
}

func (b BootstrapConfig) Enabled() bool {
	return b.TenantName != "" && b.KeyName != "" && b.RawApiKey != ""
}

func (b BootstrapConfig) partial() bool {
	any := b.TenantName != "" || b.KeyName != "" || b.RawApiKey != ""
	return any && !b.Enabled()
}

// Load reads configuration from the environment. A .env file in the
// working directory is read first and overridden by real env vars.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()
	viper.ReadInConfig()

	// The .env reader keeps keys under their flat lower-case names
	// (database_url), which the dotted keys below never look up. Copy
	// them into the process environment wherever the real environment
	// leaves them unset, so the env bindings see them.
	for _, name := range []string{"DATABASE_URL", "DATABASE_MAX_OPEN_CONNS", "DATABASE_MAX_IDLE_CONNS",
		"DATABASE_CONN_MAX_LIFETIME", "PORT", "SHUTDOWN_TIMEOUT",
		"BOOTSTRAP_TENANT_NAME", "BOOTSTRAP_KEY_NAME", "BOOTSTRAP_API_KEY"} {
		if _, set := os.LookupEnv(name); !set {
			if v := viper.GetString(strings.ToLower(name)); v != "" {
				os.Setenv(name, v)
			}
		}
	}

	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.conn_max_lifetime", "DATABASE_CONN_MAX_LIFETIME")
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("server.shutdown_timeout", "SHUTDOWN_TIMEOUT")
	viper.BindEnv("bootstrap.tenant_name", "BOOTSTRAP_TENANT_NAME")
	viper.BindEnv("bootstrap.key_name", "BOOTSTRAP_KEY_NAME")
	viper.BindEnv("bootstrap.api_key", "BOOTSTRAP_API_KEY")

	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.shutdown_timeout", 30*time.Second)

	cfg := &Config{
		DatabaseURL:     viper.GetString("database.url"),
		MaxOpenConns:    viper.GetInt("database.max_open_conns"),
		MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: viper.GetDuration("database.conn_max_lifetime"),
		Port:            viper.GetInt("server.port"),
		ShutdownTimeout: viper.GetDuration("server.shutdown_timeout"),
		Bootstrap: BootstrapConfig{
			TenantName: viper.GetString("bootstrap.tenant_name"),
			KeyName:    viper.GetString("bootstrap.key_name"),
			RawApiKey:  viper.GetString("bootstrap.api_key"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MaxOpenConns <= 0 || cfg.MaxIdleConns <= 0 {
		return nil, fmt.Errorf("database pool sizes must be positive, got open=%d idle=%d", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime <= 0 {
		return nil, fmt.Errorf("DATABASE_CONN_MAX_LIFETIME must be positive")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be in 1..65535, got %d", cfg.Port)
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.Bootstrap.partial() {
		return nil, fmt.Errorf("BOOTSTRAP_TENANT_NAME, BOOTSTRAP_KEY_NAME and BOOTSTRAP_API_KEY must be set together")
	}

	return cfg, nil
}
