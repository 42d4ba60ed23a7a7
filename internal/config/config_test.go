package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, logger.LevelInfo, cfg.Logger.Level)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "development-secret-change-in-production", cfg.SigningSecret())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "dynamodb")
	t.Setenv("DYNAMODB_TABLE", "eyecare-test")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REMINDER_MIN_INTERVAL", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "eyecare-test", cfg.DynamoDB.Table)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 30*time.Second, cfg.Reminder.MinInterval)
	assert.Equal(t, logger.LevelDebug, cfg.Logger.Level)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: "development",
			Storage:     StorageConfig{Backend: BackendMemory},
			Auth:        AuthConfig{TokenTTL: time.Hour},
			Reminder:    ReminderConfig{MinInterval: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid memory config", mutate: func(c *Config) {}},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "mongo" },
			wantErr: "unknown STORAGE_BACKEND",
		},
		{
			name:    "firestore without project",
			mutate:  func(c *Config) { c.Storage.Backend = BackendFirestore },
			wantErr: "FIRESTORE_PROJECT_ID",
		},
		{
			name: "production without secret",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.Storage.Backend = BackendPostgres
			},
			wantErr: "JWT_SECRET",
		},
		{
			name: "production on memory backend",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.Auth.JWTSecret = "secret"
			},
			wantErr: "memory backend",
		},
		{
			name:    "zero token ttl",
			mutate:  func(c *Config) { c.Auth.TokenTTL = 0 },
			wantErr: "TOKEN_TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "eyes"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=eyes sslmode=disable", c.DSN())
}
