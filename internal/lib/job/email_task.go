package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

const (
	// TaskWelcome is the job type name stored in Redis.
	TaskWelcome = "email:welcome"

	// TaskPurgeHistory deletes the calculations of a deleted account.
	TaskPurgeHistory = "calculations:purge"
)

// WelcomeEmailPayload is the JSON payload of TaskWelcome.
type WelcomeEmailPayload struct {
	To          string `json:"to"`
	DisplayName string `json:"display_name"`
}

// PurgeHistoryPayload is the JSON payload of TaskPurgeHistory.
// NotifyEmail is optional.
type PurgeHistoryPayload struct {
	Owner       string `json:"owner"`
	NotifyEmail string `json:"notify_email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// NewWelcomeEmailTask builds the welcome email task: 3 retries, 30s timeout.
func NewWelcomeEmailTask(to, displayName string) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomeEmailPayload{
		To:          to,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskWelcome,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueDefault),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewPurgeHistoryTask builds the purge task. It goes to the critical queue
// since the account is already gone.
func NewPurgeHistoryTask(owner, notifyEmail, displayName string) (*asynq.Task, error) {
	payload, err := json.Marshal(PurgeHistoryPayload{
		Owner:       owner,
		NotifyEmail: notifyEmail,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskPurgeHistory,
		payload,
		asynq.MaxRetry(10),
		asynq.Queue(QueueCritical),
		asynq.Timeout(2*time.Minute),
	), nil
}
