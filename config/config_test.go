package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8080"},
		Database:  DatabaseConfig{Driver: StoreDriverMemory, StoreTimeout: time.Second},
		Firebase:  FirebaseConfig{AuthMode: AuthModeHeader},
		RateLimit: RateLimitConfig{RPS: 10, Burst: 20},
		App:       AppConfig{Environment: "development"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "PORT"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, "STORE_DRIVER"},
		{"postgres needs host", func(c *Config) { c.Database.Driver = StoreDriverPostgres }, "DB_HOST"},
		{"firebase needs credentials", func(c *Config) { c.Firebase.AuthMode = AuthModeFirebase }, "FIREBASE_CREDENTIALS_PATH"},
		{"header mode banned in production", func(c *Config) { c.App.Environment = "production" }, "production"},
		{"unknown auth mode", func(c *Config) { c.Firebase.AuthMode = "basic" }, "AUTH_MODE"},
		{"non-positive timeout", func(c *Config) { c.Database.StoreTimeout = 0 }, "STORE_TIMEOUT"},
		{"non-positive rate", func(c *Config) { c.RateLimit.Burst = 0 }, "RATE_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("AUTH_MODE", "header")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.Database.Driver)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.Database.StoreTimeout)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.False(t, cfg.Redis.Enabled())
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "soon")
	assert.Equal(t, 7, getEnvAsInt("X_INT", 7))
	assert.Equal(t, time.Minute, getEnvAsDuration("X_DUR", time.Minute))
	assert.Equal(t, "def", getEnv("X_UNSET_FOR_TEST", "def"))
}
