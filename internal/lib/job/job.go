// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - tasks are enqueued (producer) with an asynq.Client
//   - a server runs workers that process them (consumer) with an asynq.Server
//
// Jobs need Redis. Without it NewJobService returns nil and callers do the
// work inline or skip it.
package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/deppfellow/calculator-api/internal/config"
	"github.com/deppfellow/calculator-api/internal/lib/email"
)

// HistoryPurger deletes an owner's calculation history.
type HistoryPurger interface {
	PurgeOwner(ctx context.Context, owner string) (int64, error)
}

// Mailer is the subset of the email client the handlers use.
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, to, displayName string) error
	SendAccountDeletedEmail(ctx context.Context, to, displayName, removed string) error
}

// Enqueuer pushes tasks; *asynq.Client implements it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// JobService holds the Asynq client (enqueue) and server (worker execution)
// plus the dependencies the handlers need.
type JobService struct {
	client Enqueuer
	server *asynq.Server
	logger *zerolog.Logger

	mailer Mailer
	purger HistoryPurger
}

// NewJobService creates a JobService on the configured Redis, or nil when
// Redis is not configured.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	if !cfg.HasRedis() {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	// Queue weights share the 10 workers roughly 6:3:1.
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	var mailer Mailer
	if c := email.NewClient(cfg, logger); c != nil {
		mailer = c
	}

	return &JobService{
		client: asynq.NewClient(redisOpt),
		server: server,
		logger: logger,
		mailer: mailer,
	}
}

// SetHistoryPurger wires the purge handler to the persistence layer.
// Must be called before Start.
func (j *JobService) SetHistoryPurger(p HistoryPurger) {
	j.purger = p
}

func (j *JobService) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWelcome, j.handleWelcomeEmailTask)
	mux.HandleFunc(TaskPurgeHistory, j.handlePurgeHistoryTask)
	return mux
}

// Start registers task handlers and starts the workers in the background.
func (j *JobService) Start() error {
	j.logger.Info().Msg("Starting background job server")

	if err := j.server.Start(j.mux()); err != nil {
		return fmt.Errorf("starting job server: %w", err)
	}
	return nil
}

// Stop waits for running tasks and closes the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	if err := j.client.Close(); err != nil {
		j.logger.Warn().Err(err).Msg("closing job client")
	}
}

func (j *JobService) enqueue(ctx context.Context, task *asynq.Task, err error) error {
	if err != nil {
		return err
	}
	if j == nil || j.client == nil {
		return errors.New("job service not available")
	}

	info, err := j.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}

	j.logger.Debug().
		Str("task", task.Type()).
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Msg("task enqueued")
	return nil
}

// EnqueueWelcomeEmail schedules the welcome email for a new account.
func (j *JobService) EnqueueWelcomeEmail(ctx context.Context, to, displayName string) error {
	task, err := NewWelcomeEmailTask(to, displayName)
	return j.enqueue(ctx, task, err)
}

// EnqueuePurgeHistory schedules deletion of an owner's history, with an
// optional goodbye email.
func (j *JobService) EnqueuePurgeHistory(ctx context.Context, owner, notifyEmail, displayName string) error {
	task, err := NewPurgeHistoryTask(owner, notifyEmail, displayName)
	return j.enqueue(ctx, task, err)
}
