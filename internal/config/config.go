package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config stores all configuration for the application.
// The values are read by viper from a .env file or environment variables.
type Config struct {
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	StorageDriver     string        `mapstructure:"STORAGE_DRIVER"`
	AutoMigrate       bool          `mapstructure:"AUTO_MIGRATE"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`

	SecretKey                string `mapstructure:"SECRET_KEY"`
	Algorithm                string `mapstructure:"ALGORITHM"`
	AccessTokenExpireMinutes int    `mapstructure:"ACCESS_TOKEN_EXPIRE_MINUTES"`

	APIV1Str           string `mapstructure:"API_V1_STR"`
	ProjectName        string `mapstructure:"PROJECT_NAME"`
	Port               string `mapstructure:"PORT"`
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	GinMode            string `mapstructure:"GIN_MODE"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]interface{}{
	"STORAGE_DRIVER":              StorageDriverPostgres,
	"AUTO_MIGRATE":                false,
	"DB_MAX_OPEN_CONNS":           25,
	"DB_MAX_IDLE_CONNS":           5,
	"DB_CONN_MAX_LIFETIME":        "30m",
	"ALGORITHM":                   "HS256",
	"ACCESS_TOKEN_EXPIRE_MINUTES": 30,
	"API_V1_STR":                  "/api/v1",
	"PROJECT_NAME":                "FinTechBank API",
	"PORT":                        "8080",
	"CORS_ALLOWED_ORIGINS":        "*",
	"GIN_MODE":                    "release",
	"LOG_LEVEL":                   "info",
	"LOG_FORMAT":                  "console",
}

// LoadConfig reads configuration from a .env file in path (optional) and
// from environment variables, which take precedence.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// Keys without defaults still need binding so Unmarshal sees env values.
	for _, key := range []string{"DATABASE_URL", "SECRET_KEY"} {
		_ = v.BindEnv(key)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres storage driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported ALGORITHM %q", c.Algorithm)
	}
	if c.AccessTokenExpireMinutes <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	return nil
}

// AccessTokenTTL is the lifetime of issued access tokens.
func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS into trimmed, non-empty origins.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
