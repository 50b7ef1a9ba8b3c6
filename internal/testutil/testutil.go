// Package testutil holds in-memory collaborators for handler and service tests.
package testutil

import (
	"github.com/rs/zerolog"

	"github.com/deppfellow/calculator-api/internal/config"
	"github.com/deppfellow/calculator-api/internal/server"
)

// NopLogger returns a logger that discards everything.
func NopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// NewServer builds a Server with defaults and no collaborators. Tests set
// the collaborators they need on the returned value.
func NewServer() *server.Server {
	return &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "test"},
			Server: config.ServerConfig{
				Port:               "0",
				ReadTimeout:        5,
				WriteTimeout:       5,
				IdleTimeout:        5,
				ShutdownTimeout:    5,
				CORSAllowedOrigins: []string{"*"},
			},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger: NopLogger(),
	}
}
