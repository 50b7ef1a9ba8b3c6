package job

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hibiken/asynq"
)

// handleWelcomeEmailTask sends the welcome email. Without a configured
// mailer the task is dropped instead of retried.
func (j *JobService) handleWelcomeEmailTask(ctx context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal welcome email payload: %w: %w", err, asynq.SkipRetry)
	}

	if j.mailer == nil {
		j.logger.Info().Str("type", "welcome").Msg("email not configured, skipping welcome email")
		return nil
	}

	j.logger.Info().
		Str("type", "welcome").
		Str("to", p.To).
		Msg("Processing welcome email task")

	if err := j.mailer.SendWelcomeEmail(ctx, p.To, p.DisplayName); err != nil {
		j.logger.Error().
			Str("type", "welcome").
			Str("to", p.To).
			Err(err).
			Msg("Failed to send welcome email")
		return err
	}

	j.logger.Info().
		Str("type", "welcome").
		Str("to", p.To).
		Msg("Successfully sent welcome email")

	return nil
}

// handlePurgeHistoryTask deletes the owner's calculations, then sends the
// optional goodbye email. A failed email does not undo or retry the purge.
func (j *JobService) handlePurgeHistoryTask(ctx context.Context, t *asynq.Task) error {
	var p PurgeHistoryPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal purge payload: %w: %w", err, asynq.SkipRetry)
	}
	if p.Owner == "" {
		return fmt.Errorf("purge payload without owner: %w", asynq.SkipRetry)
	}

	if j.purger == nil {
		return fmt.Errorf("history purger not wired")
	}

	removed, err := j.purger.PurgeOwner(ctx, p.Owner)
	if err != nil {
		j.logger.Error().Err(err).Str("owner", p.Owner).Msg("Failed to purge calculation history")
		return err
	}

	j.logger.Info().
		Str("owner", p.Owner).
		Int64("removed", removed).
		Msg("Purged calculation history")

	if p.NotifyEmail == "" || j.mailer == nil {
		return nil
	}

	if err := j.mailer.SendAccountDeletedEmail(ctx, p.NotifyEmail, p.DisplayName, strconv.FormatInt(removed, 10)); err != nil {
		j.logger.Warn().Err(err).Str("owner", p.Owner).Msg("Failed to send account deleted email")
	}
	return nil
}
