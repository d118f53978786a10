// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// Credential verification modes accepted by AUTH_MODE.
const (
	AuthModeDemo   = "demo"
	AuthModeBcrypt = "bcrypt"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env            string `mapstructure:"APP_ENV"`
	Port           string `mapstructure:"PORT"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	StorageDriver      string        `mapstructure:"STORAGE_DRIVER"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	DBHost             string        `mapstructure:"DB_HOST"`
	DBPort             string        `mapstructure:"DB_PORT"`
	DBUser             string        `mapstructure:"DB_USER"`
	DBPassword         string        `mapstructure:"DB_PASSWORD"`
	DBName             string        `mapstructure:"DB_NAME"`
	DBSSLMode          string        `mapstructure:"DB_SSLMODE"`
	SQLitePath         string        `mapstructure:"SQLITE_PATH"`
	BadgerPath         string        `mapstructure:"BADGER_PATH"`
	CheckpointInterval time.Duration `mapstructure:"CHECKPOINT_INTERVAL"`

	AuthMode      string `mapstructure:"AUTH_MODE"`
	StrictSaves   bool   `mapstructure:"STRICT_SAVES"`
	SeedDemo      bool   `mapstructure:"SEED_DEMO"`
	DefaultAvatar string `mapstructure:"DEFAULT_AVATAR"`
	DefaultBio    string `mapstructure:"DEFAULT_BIO"`

	OpenAIAPIKey   string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel    string        `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL  string        `mapstructure:"OPENAI_BASE_URL"`
	CaptionTimeout time.Duration `mapstructure:"CAPTION_TIMEOUT"`

	ImageMaxEdge         int `mapstructure:"IMAGE_MAX_EDGE"`
	ImageMaxUploadSizeMB int `mapstructure:"IMAGE_MAX_UPLOAD_MB"`

	FeatureFlags    string `mapstructure:"FEATURE_FLAGS"`
	TracingEnabled  bool   `mapstructure:"TRACING_ENABLED"`
	TracingExporter string `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string `mapstructure:"OTLP_ENDPOINT"`
}

var allKeys = []string{
	"APP_ENV", "PORT", "JWT_SECRET", "ALLOWED_ORIGINS",
	"STORAGE_DRIVER", "REDIS_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"DB_SSLMODE", "SQLITE_PATH", "BADGER_PATH", "CHECKPOINT_INTERVAL",
	"AUTH_MODE", "STRICT_SAVES", "SEED_DEMO", "DEFAULT_AVATAR", "DEFAULT_BIO",
	"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "CAPTION_TIMEOUT",
	"IMAGE_MAX_EDGE", "IMAGE_MAX_UPLOAD_MB",
	"FEATURE_FLAGS", "TRACING_ENABLED", "TRACING_EXPORTER", "OTLP_ENDPOINT",
}

// LoadConfig loads application configuration from .env, config files and
// environment variables, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	for _, key := range allKeys {
		_ = v.BindEnv(key)
	}

	// The base file is optional.
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8375")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	v.SetDefault("STORAGE_DRIVER", DriverSQLite)
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "rupl")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "rupl.db")
	v.SetDefault("BADGER_PATH", "data/badger")
	v.SetDefault("CHECKPOINT_INTERVAL", "2s")
	v.SetDefault("AUTH_MODE", AuthModeDemo)
	v.SetDefault("STRICT_SAVES", false)
	v.SetDefault("SEED_DEMO", true)
	v.SetDefault("DEFAULT_AVATAR", "https://picsum.photos/200/200")
	v.SetDefault("DEFAULT_BIO", "New to Rupl.")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("CAPTION_TIMEOUT", "15s")
	v.SetDefault("IMAGE_MAX_EDGE", 1080)
	v.SetDefault("IMAGE_MAX_UPLOAD_MB", 10)
	v.SetDefault("FEATURE_FLAGS", "")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.AuthMode = strings.ToLower(strings.TrimSpace(c.AuthMode))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
}

// IsProduction reports whether the app runs with production rules.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	drivers := []string{DriverMemory, DriverRedis, DriverSQLite, DriverPostgres, DriverBadger}
	if !slices.Contains(drivers, c.StorageDriver) {
		return fmt.Errorf("STORAGE_DRIVER must be one of %s", strings.Join(drivers, ", "))
	}
	if c.AuthMode != AuthModeDemo && c.AuthMode != AuthModeBcrypt {
		return errors.New("AUTH_MODE must be demo or bcrypt")
	}
	if c.ImageMaxEdge <= 0 {
		return errors.New("IMAGE_MAX_EDGE must be positive")
	}
	if c.ImageMaxUploadSizeMB <= 0 {
		return errors.New("IMAGE_MAX_UPLOAD_MB must be positive")
	}
	if c.CheckpointInterval < 0 {
		return errors.New("CHECKPOINT_INTERVAL must not be negative")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.StorageDriver == DriverPostgres {
			if c.DBPassword == "password" || c.DBPassword == "" {
				return errors.New("a strong DB_PASSWORD is required in production")
			}
			if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
				return errors.New("DB_SSLMODE must not be disabled in production")
			}
		}
		if c.StorageDriver == DriverMemory {
			log.Println("WARNING: STORAGE_DRIVER is 'memory' in production. State is lost on restart.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	sslMode := c.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, sslMode,
	)
}
