package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                  "development",
		Port:                 "8080",
		JWTSecret:            "secure-secret-at-least-32-chars-long",
		StorageDriver:        DriverMemory,
		AuthMode:             AuthModeDemo,
		ImageMaxEdge:         1080,
		ImageMaxUploadSizeMB: 10,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown driver", func(c *Config) { c.StorageDriver = "mongo" }, true},
		{"unknown auth mode", func(c *Config) { c.AuthMode = "ldap" }, true},
		{"zero image edge", func(c *Config) { c.ImageMaxEdge = 0 }, true},
		{"negative checkpoint", func(c *Config) { c.CheckpointInterval = -time.Second }, true},
		{"production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"production short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "short"
		}, true},
		{"production postgres without ssl", func(c *Config) {
			c.Env = "production"
			c.StorageDriver = DriverPostgres
			c.DBPassword = "strong-password"
			c.DBSSLMode = "disable"
		}, true},
		{"production postgres with ssl", func(c *Config) {
			c.Env = "production"
			c.StorageDriver = DriverPostgres
			c.DBPassword = "strong-password"
			c.DBSSLMode = "require"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORAGE_DRIVER", "  MEMORY ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("STRICT_SAVES", "true")
	t.Setenv("CHECKPOINT_INTERVAL", "500ms")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, c.StorageDriver)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.True(t, c.StrictSaves)
	assert.Equal(t, 500*time.Millisecond, c.CheckpointInterval)
	assert.Equal(t, "New to Rupl.", c.DefaultBio)
	assert.Equal(t, "https://picsum.photos/200/200", c.DefaultAvatar)
	assert.Equal(t, AuthModeDemo, c.AuthMode)
}

func TestConfig_DSN(t *testing.T) {
	c := &Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "rupl"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=rupl sslmode=disable", c.DSN())
}
