package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	DefaultTenant   string   `mapstructure:"DEFAULT_TENANT"`
	AccessSecret    string   `mapstructure:"ACCESS_TOKEN_SECRET"`
	RefreshSecret   string   `mapstructure:"REFRESH_TOKEN_SECRET"`
	AccessTokenTTL  string   `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL string   `mapstructure:"REFRESH_TOKEN_TTL"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS    float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int      `mapstructure:"RATE_LIMIT_BURST"`
	TLSEnabled      bool     `mapstructure:"TLS_ENABLED"`
	TLSCertFile     string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile      string   `mapstructure:"TLS_KEY_FILE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults. Token TTLs mirror the historical platform behavior:
	// 30-day access tokens, 90-day refresh tokens.
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_TENANT", "default")
	v.SetDefault("ACCESS_TOKEN_TTL", "720h")
	v.SetDefault("REFRESH_TOKEN_TTL", "2160h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("DEFAULT_TENANT")
	v.BindEnv("ACCESS_TOKEN_SECRET")
	v.BindEnv("REFRESH_TOKEN_SECRET")
	v.BindEnv("ACCESS_TOKEN_TTL")
	v.BindEnv("REFRESH_TOKEN_TTL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("TLS_ENABLED")
	v.BindEnv("TLS_CERT_FILE")
	v.BindEnv("TLS_KEY_FILE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AccessTTL parses the configured access-token lifetime.
func (c *Config) AccessTTL() (time.Duration, error) {
	return time.ParseDuration(c.AccessTokenTTL)
}

// RefreshTTL parses the configured refresh-token lifetime.
func (c *Config) RefreshTTL() (time.Duration, error) {
	return time.ParseDuration(c.RefreshTokenTTL)
}

// Validate checks that the configuration is safe to run. Token signing
// secrets are always required, must differ from one another, and must not be
// trivially short in production.
func (c *Config) Validate() error {
	if c.AccessSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	if c.RefreshSecret == "" {
		return fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.IsProduction() && (len(c.AccessSecret) < 32 || len(c.RefreshSecret) < 32) {
		return fmt.Errorf("token secrets must be at least 32 bytes in production")
	}

	if _, err := c.AccessTTL(); err != nil {
		return fmt.Errorf("ACCESS_TOKEN_TTL is not a valid duration: %w", err)
	}
	if _, err := c.RefreshTTL(); err != nil {
		return fmt.Errorf("REFRESH_TOKEN_TTL is not a valid duration: %w", err)
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
