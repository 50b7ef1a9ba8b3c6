// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types, and validates them so they
// can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for optional config blocks (e.g. observability,
//     rate limiting).
//
// Collaborators are optional. A missing database block disables persistence,
// a missing redis block disables rate limiting, caching and background jobs,
// and an empty auth provider disables identity. The calculator itself always
// works.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: triggers godotenv's autoload feature.
	// If a `.env` file exists, it gets loaded into process env
	// *before* we read env vars. No explicit call needed.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	`koanf` reads a config source (env vars here) and unmarshals it into
	our structs.

	Key idea in this file:
	- Env vars are read using a prefix: CALCAPI_
	- Keys are normalized (lowercased, prefix removed)
	- A double underscore marks nesting, a single underscore stays part of the key
	  e.g. CALCAPI_SERVER__READ_TIMEOUT -> server.read_timeout -> Config.Server.ReadTimeout
*/

const (
	// EnvPrefix is the prefix every application env var carries.
	EnvPrefix = "CALCAPI_"

	// ServiceName identifies this service in logs, traces and health output.
	ServiceName = "calculator-api"
)

// Version is reported by the health and banner endpoints.
// Overridden at build time with -ldflags "-X .../internal/config.Version=...".
var Version = "1.0.0"

// Auth providers accepted in auth.provider.
const (
	AuthProviderNone  = ""
	AuthProviderClerk = "clerk"
	AuthProviderLocal = "local"
)

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf should map values from.
// The `validate:"..."` tags are enforced by go-playground/validator.
//
// Database and Redis are pointers because they are optional: nil means
// "not configured" and the dependent features switch off.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      *DatabaseConfig      `koanf:"database"`
	Redis         *RedisConfig         `koanf:"redis"`
	Auth          AuthConfig           `koanf:"auth"`
	Integration   IntegrationConfig    `koanf:"integration"`
	RateLimit     RateLimitConfig      `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
// Used to tag logs/traces and switch behavior based on env.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
//
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,min=1"`
	ShutdownTimeout    int      `koanf:"shutdown_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time"`
}

// RedisConfig contains Redis connection details.
// Address is "host:port".
type RedisConfig struct {
	Address  string `koanf:"address" validate:"required"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"min=0"`
}

// AuthConfig selects and configures the identity collaborator.
//
// Provider:
//   - ""      identity disabled; protected routes answer 503
//   - "clerk" tokens are verified against Clerk, SecretKey required
//   - "local" self-hosted accounts in sqlite with HS256 tokens
type AuthConfig struct {
	Provider  string          `koanf:"provider" validate:"omitempty,oneof=clerk local"`
	SecretKey string          `koanf:"secret_key"`
	Local     LocalAuthConfig `koanf:"local"`
}

// LocalAuthConfig configures the self-hosted identity provider.
type LocalAuthConfig struct {
	DBPath     string        `koanf:"db_path"`
	JWTSecret  string        `koanf:"jwt_secret"`
	Issuer     string        `koanf:"issuer"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
}

// IntegrationConfig holds third-party service credentials.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	EmailFrom    string `koanf:"email_from"`
}

// RateLimitConfig controls the per-IP limiter on /api routes.
// It only takes effect when Redis is configured.
type RateLimitConfig struct {
	Enabled bool          `koanf:"enabled"`
	Limit   int           `koanf:"limit" validate:"min=1"`
	Window  time.Duration `koanf:"window" validate:"min=1s"`
}

// HasDatabase reports whether persistence is configured.
func (c *Config) HasDatabase() bool {
	return c.Database != nil && c.Database.Host != ""
}

// HasRedis reports whether Redis is configured.
func (c *Config) HasRedis() bool {
	return c.Redis != nil && c.Redis.Address != ""
}

// Validate applies cross-field rules the struct tags cannot express.
func (a AuthConfig) Validate() error {
	switch a.Provider {
	case AuthProviderNone:
		return nil
	case AuthProviderClerk:
		if a.SecretKey == "" {
			return fmt.Errorf("auth.secret_key is required for the clerk provider")
		}
	case AuthProviderLocal:
		if len(a.Local.JWTSecret) < 32 {
			return fmt.Errorf("auth.local.jwt_secret must be at least 32 characters")
		}
		if a.Local.AccessTTL <= 0 || a.Local.RefreshTTL <= 0 {
			return fmt.Errorf("auth.local token TTLs must be positive")
		}
	default:
		return fmt.Errorf("unknown auth provider: %s", a.Provider)
	}
	return nil
}

// defaultConfig is the baseline that env vars are layered on top of.
// koanf only overwrites fields present in the environment.
func defaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "3000",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			ShutdownTimeout:    30,
			CORSAllowedOrigins: []string{"*"},
		},
		Auth: AuthConfig{
			Local: LocalAuthConfig{
				DBPath:     "calcapi-users.db",
				Issuer:     ServiceName,
				AccessTTL:  15 * time.Minute,
				RefreshTTL: 7 * 24 * time.Hour,
			},
		},
		Integration: IntegrationConfig{
			EmailFrom: "Calculator <onboarding@resend.dev>",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Limit:   100,
			Window:  15 * time.Minute,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// listKeys are comma separated in the environment.
var listKeys = map[string]bool{
	"server.cors_allowed_origins":        true,
	"observability.health_checks.checks": true,
}

// envKey turns CALCAPI_SERVER__READ_TIMEOUT into server.read_timeout.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, validates it, applies defaults, and returns the result.
//
// Behavior summary:
//   - Loads env vars with prefix CALCAPI_ on top of defaultConfig()
//   - Plain PORT (as set by container platforms) overrides server.port
//   - Validates required config blocks/fields
//   - Sets default observability if missing
//   - Overrides observability service name + environment
func LoadConfig() (*Config, error) {
	// The "." is the key-path delimiter koanf uses to represent nesting.
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = envKey(key)
		if listKeys[key] {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return key, parts
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := defaultConfig()

	// Unmarshal everything from the root ("") into the pre-filled struct.
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if port := os.Getenv("PORT"); port != "" {
		mainConfig.Server.Port = port
	}

	// A block with only some keys set still allocates the pointer.
	// Treat it as absent unless it names a server.
	if mainConfig.Database != nil && mainConfig.Database.Host == "" {
		mainConfig.Database = nil
	}
	if mainConfig.Database != nil {
		applyDatabaseDefaults(mainConfig.Database)
	}
	if mainConfig.Redis != nil && mainConfig.Redis.Address == "" {
		mainConfig.Redis = nil
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Auth.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// If observability config wasn't provided, inject a default.
	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Force service name and environment so tracing/logging sees consistent
	// naming regardless of what was configured.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

func applyDatabaseDefaults(db *DatabaseConfig) {
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}
	if db.MaxOpenConns <= 0 {
		db.MaxOpenConns = 10
	}
	if db.MaxIdleConns <= 0 {
		db.MaxIdleConns = 2
	}
	if db.ConnMaxLifetime <= 0 {
		db.ConnMaxLifetime = 3600
	}
	if db.ConnMaxIdleTime <= 0 {
		db.ConnMaxIdleTime = 300
	}
}
