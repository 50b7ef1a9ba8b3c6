// Package server defines the Server struct that composes the app's shared
// dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - the optional collaborators: database pool, redis client, identity provider
//   - the background job service (asynq, only with redis)
//   - http.Server
//
// Every collaborator except the config and logger may be nil. Handlers check
// for nil and degrade (503, anonymous, no cache) instead of failing startup.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/deppfellow/calculator-api/internal/config"
	"github.com/deppfellow/calculator-api/internal/database"
	"github.com/deppfellow/calculator-api/internal/identity"
	"github.com/deppfellow/calculator-api/internal/lib/job"
	loggerPkg "github.com/deppfellow/calculator-api/internal/logger"
)

// Server is the application container that holds shared resources.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService

	// DB is nil when no database is configured or it was unreachable at startup.
	DB *database.Database

	// Redis is nil when no redis address is configured.
	Redis *redis.Client

	// Job is nil without redis.
	Job *job.JobService

	// Identity is nil when auth.provider is empty.
	Identity identity.Provider

	// Denylist is nil without redis.
	Denylist *identity.Denylist

	StartedAt time.Time

	httpServer *http.Server
}

// New constructs a Server and initializes the configured collaborators.
//
// An unreachable database or redis is logged and the server continues
// without it. A misconfigured identity provider is an error.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	s := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		StartedAt:     time.Now(),
	}

	if cfg.HasDatabase() {
		db, err := database.New(cfg, logger, loggerService)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to database, continuing without persistence")
		} else {
			s.DB = db
		}
	} else {
		logger.Warn().Msg("no database configured, history and stats will answer 503")
	}

	if cfg.HasRedis() {
		s.Redis = newRedisClient(cfg.Redis, logger, loggerService)
		s.Denylist = identity.NewDenylist(s.Redis)
		s.Job = job.NewJobService(logger, cfg)
	}

	provider, err := identity.New(cfg.Auth, logger)
	if err != nil {
		s.closeCollaborators()
		return nil, fmt.Errorf("failed to initialize identity provider: %w", err)
	}
	s.Identity = provider

	return s, nil
}

func newRedisClient(cfg *config.RedisConfig, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if loggerService != nil && loggerService.GetApplication() != nil {
		client.AddHook(nrredis.NewHook(client.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Redis connections are lazy; a failed ping only means features relying
	// on it fail open until it comes back.
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis, continuing without Redis")
	}

	return client
}

// StartJobs wires the purge handler and starts the workers. No-op without
// a job service.
func (s *Server) StartJobs(purger job.HistoryPurger) error {
	if s.Job == nil {
		return nil
	}
	s.Job.SetHistoryPurger(purger)
	return s.Job.Start()
}

// SetupHTTPServer configures the internal net/http server.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. SetupHTTPServer must be called first.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Bool("persistence", s.DB != nil).
		Bool("redis", s.Redis != nil).
		Str("identity", s.IdentityName()).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// IdentityName is the configured provider name, or "disabled".
func (s *Server) IdentityName() string {
	if s.Identity == nil {
		return "disabled"
	}
	return s.Identity.Name()
}

// Shutdown stops the HTTP server, then the workers, then closes the
// collaborators.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	return s.closeCollaborators()
}

func (s *Server) closeCollaborators() error {
	var errList []error

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errList = append(errList, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errList = append(errList, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if closer, ok := s.Identity.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errList = append(errList, fmt.Errorf("failed to close identity store: %w", err))
		}
	}

	return errors.Join(errList...)
}
