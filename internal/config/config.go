package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// devSigningKey signs tokens when ENV=development and SECRET_KEY is unset.
const devSigningKey = "medbase-development-signing-key-do-not-use"

type Config struct {
	AppName                  string   `mapstructure:"APP_NAME"`
	Port                     string   `mapstructure:"PORT"`
	Env                      string   `mapstructure:"ENV"`
	DatabaseURL              string   `mapstructure:"DATABASE_URL"`
	DBMaxConns               int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns               int32    `mapstructure:"DB_MIN_CONNS"`
	DBRetryMaxAttempts       uint     `mapstructure:"DB_RETRY_MAX_ATTEMPTS"`
	SecretKey                string   `mapstructure:"SECRET_KEY"`
	AccessTokenExpireMinutes int      `mapstructure:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	CORSOrigins              []string `mapstructure:"CORS_ORIGINS"`
	BodyLimit                string   `mapstructure:"BODY_LIMIT"`
	LogLevel                 string   `mapstructure:"LOG_LEVEL"`
	LogFile                  string   `mapstructure:"LOG_FILE"`
	LogMaxSizeMB             int      `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups            int      `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays            int      `mapstructure:"LOG_MAX_AGE_DAYS"`
	SequenceMaxAttempts      uint     `mapstructure:"SEQUENCE_MAX_ATTEMPTS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("APP_NAME", "MedBase-API")
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_RETRY_MAX_ATTEMPTS", 5)
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BODY_LIMIT", "2M")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 30)
	v.SetDefault("SEQUENCE_MAX_ATTEMPTS", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"APP_NAME", "PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"DB_RETRY_MAX_ATTEMPTS", "SECRET_KEY", "ACCESS_TOKEN_EXPIRE_MINUTES", "CORS_ORIGINS",
		"BODY_LIMIT", "LOG_LEVEL", "LOG_FILE", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS",
		"LOG_MAX_AGE_DAYS", "SEQUENCE_MAX_ATTEMPTS",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.SecretKey == "" {
		log.Println("WARNING: SECRET_KEY is not set, using the development signing key.")
		log.Println("WARNING: Set ENV=production and SECRET_KEY before exposing this server.")
		cfg.SecretKey = devSigningKey
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

// AccessTokenTTL is the lifetime of tokens issued by the login endpoint.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// Validate checks that the configuration is safe to run. Outside development a
// SECRET_KEY of at least 32 bytes is required because it signs access tokens.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("ENV must be \"development\" or \"production\", got %q", c.Env)
	}
	if !c.IsDev() {
		if c.SecretKey == "" {
			return fmt.Errorf("SECRET_KEY is required when ENV=%q", c.Env)
		}
		if len(c.SecretKey) < 32 {
			return fmt.Errorf("SECRET_KEY must be at least 32 bytes, got %d", len(c.SecretKey))
		}
	}
	if c.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.AccessTokenExpireMinutes)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.SequenceMaxAttempts == 0 {
		return fmt.Errorf("SEQUENCE_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
