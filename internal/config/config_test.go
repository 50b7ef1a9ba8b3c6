package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Primary.Env)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.False(t, cfg.HasDatabase())
	assert.False(t, cfg.HasRedis())
	assert.Equal(t, AuthProviderNone, cfg.Auth.Provider)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.RateLimit.Limit)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, "development", cfg.Observability.Environment)
	assert.False(t, cfg.Observability.NewRelic.Enabled())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CALCAPI_PRIMARY__ENV", "production")
	t.Setenv("CALCAPI_SERVER__PORT", "8080")
	t.Setenv("CALCAPI_SERVER__READ_TIMEOUT", "5")
	t.Setenv("CALCAPI_SERVER__CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CALCAPI_DATABASE__HOST", "db")
	t.Setenv("CALCAPI_DATABASE__PORT", "5432")
	t.Setenv("CALCAPI_DATABASE__USER", "calc")
	t.Setenv("CALCAPI_DATABASE__NAME", "calc")
	t.Setenv("CALCAPI_REDIS__ADDRESS", "redis:6379")
	t.Setenv("CALCAPI_RATE_LIMIT__LIMIT", "10")
	t.Setenv("CALCAPI_RATE_LIMIT__WINDOW", "1m")
	t.Setenv("CALCAPI_OBSERVABILITY__LOGGING__LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.ReadTimeout)
	assert.Equal(t, 30, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)

	require.True(t, cfg.HasDatabase())
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)

	require.True(t, cfg.HasRedis())
	assert.Equal(t, "redis:6379", cfg.Redis.Address)

	assert.Equal(t, 10, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)

	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "production", cfg.Observability.Environment)
	assert.True(t, cfg.Observability.IsProduction())
}

func TestLoadConfig_PlainPortWins(t *testing.T) {
	t.Setenv("CALCAPI_SERVER__PORT", "8080")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadConfig_AuthValidation(t *testing.T) {
	t.Setenv("PORT", "")

	t.Run("clerk needs a secret", func(t *testing.T) {
		t.Setenv("CALCAPI_AUTH__PROVIDER", "clerk")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.secret_key")
	})

	t.Run("local needs a long secret", func(t *testing.T) {
		t.Setenv("CALCAPI_AUTH__PROVIDER", "local")
		t.Setenv("CALCAPI_AUTH__LOCAL__JWT_SECRET", "short")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt_secret")
	})

	t.Run("local with secret", func(t *testing.T) {
		t.Setenv("CALCAPI_AUTH__PROVIDER", "local")
		t.Setenv("CALCAPI_AUTH__LOCAL__JWT_SECRET", "0123456789abcdef0123456789abcdef")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, cfg.Auth.Local.AccessTTL)
		assert.Equal(t, ServiceName, cfg.Auth.Local.Issuer)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Setenv("CALCAPI_AUTH__PROVIDER", "ldap")
		_, err := LoadConfig()
		require.Error(t, err)
	})
}

func TestObservabilityConfig_Validate(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	require.NoError(t, cfg.Validate())

	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = DefaultObservabilityConfig()
	cfg.HealthChecks.Checks = []string{"database", "kafka"}
	assert.Error(t, cfg.Validate())
}

func TestObservabilityConfig_HasCheck(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	assert.True(t, cfg.HasCheck("database"))
	assert.True(t, cfg.HasCheck("identity"))
	assert.False(t, cfg.HasCheck("kafka"))

	cfg.HealthChecks.Enabled = false
	assert.False(t, cfg.HasCheck("database"))
}

func TestObservabilityConfig_GetLogLevel(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	cfg.Logging.Level = ""

	cfg.Environment = "production"
	assert.Equal(t, "info", cfg.GetLogLevel())

	cfg.Environment = "development"
	assert.Equal(t, "debug", cfg.GetLogLevel())

	cfg.Logging.Level = "warn"
	assert.Equal(t, "warn", cfg.GetLogLevel())
}
