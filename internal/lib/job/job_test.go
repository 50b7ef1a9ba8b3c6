package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/calculator-api/internal/config"
)

type sentMail struct {
	kind, to, name, removed string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendWelcomeEmail(_ context.Context, to, displayName string) error {
	m.sent = append(m.sent, sentMail{kind: "welcome", to: to, name: displayName})
	return m.err
}

func (m *fakeMailer) SendAccountDeletedEmail(_ context.Context, to, displayName, removed string) error {
	m.sent = append(m.sent, sentMail{kind: "deleted", to: to, name: displayName, removed: removed})
	return m.err
}

type fakePurger struct {
	owners []string
	err    error
}

func (p *fakePurger) PurgeOwner(_ context.Context, owner string) (int64, error) {
	p.owners = append(p.owners, owner)
	return 3, p.err
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "1", Queue: QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func newTestService(mailer Mailer, purger HistoryPurger) (*JobService, *fakeEnqueuer) {
	logger := zerolog.Nop()
	enq := &fakeEnqueuer{}
	return &JobService{client: enq, logger: &logger, mailer: mailer, purger: purger}, enq
}

func TestNewJobService_WithoutRedis(t *testing.T) {
	logger := zerolog.Nop()
	// A nil service is how callers learn jobs are unavailable.
	assert.Nil(t, NewJobService(&logger, testConfigWithoutRedis()))
}

func TestEnqueue(t *testing.T) {
	svc, enq := newTestService(nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.EnqueueWelcomeEmail(ctx, "ada@example.com", "Ada"))
	require.NoError(t, svc.EnqueuePurgeHistory(ctx, "user-1", "ada@example.com", "Ada"))
	require.Len(t, enq.tasks, 2)

	assert.Equal(t, TaskWelcome, enq.tasks[0].Type())
	var welcome WelcomeEmailPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &welcome))
	assert.Equal(t, WelcomeEmailPayload{To: "ada@example.com", DisplayName: "Ada"}, welcome)

	assert.Equal(t, TaskPurgeHistory, enq.tasks[1].Type())
	var purge PurgeHistoryPayload
	require.NoError(t, json.Unmarshal(enq.tasks[1].Payload(), &purge))
	assert.Equal(t, "user-1", purge.Owner)

	var nilSvc *JobService
	assert.Error(t, nilSvc.EnqueueWelcomeEmail(ctx, "a@b.co", "a"))
}

func TestHandleWelcomeEmail(t *testing.T) {
	mailer := &fakeMailer{}
	svc, _ := newTestService(mailer, nil)

	task, err := NewWelcomeEmailTask("ada@example.com", "Ada")
	require.NoError(t, err)
	require.NoError(t, svc.handleWelcomeEmailTask(context.Background(), task))
	assert.Equal(t, []sentMail{{kind: "welcome", to: "ada@example.com", name: "Ada"}}, mailer.sent)

	mailer.err = errors.New("resend down")
	assert.Error(t, svc.handleWelcomeEmailTask(context.Background(), task))

	bad := asynq.NewTask(TaskWelcome, []byte("{"))
	assert.ErrorIs(t, svc.handleWelcomeEmailTask(context.Background(), bad), asynq.SkipRetry)
}

func TestHandleWelcomeEmail_NoMailer(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	task, err := NewWelcomeEmailTask("ada@example.com", "Ada")
	require.NoError(t, err)
	assert.NoError(t, svc.handleWelcomeEmailTask(context.Background(), task))
}

func TestHandlePurgeHistory(t *testing.T) {
	mailer := &fakeMailer{}
	purger := &fakePurger{}
	svc, _ := newTestService(mailer, purger)
	ctx := context.Background()

	task, err := NewPurgeHistoryTask("user-1", "ada@example.com", "Ada")
	require.NoError(t, err)
	require.NoError(t, svc.handlePurgeHistoryTask(ctx, task))

	assert.Equal(t, []string{"user-1"}, purger.owners)
	assert.Equal(t, []sentMail{{kind: "deleted", to: "ada@example.com", name: "Ada", removed: "3"}}, mailer.sent)

	// A failed goodbye email does not fail the purge.
	mailer.err = errors.New("resend down")
	assert.NoError(t, svc.handlePurgeHistoryTask(ctx, task))

	purger.err = errors.New("db down")
	assert.Error(t, svc.handlePurgeHistoryTask(ctx, task))

	noOwner, err := NewPurgeHistoryTask("", "", "")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.handlePurgeHistoryTask(ctx, noOwner), asynq.SkipRetry)
}

func TestHandlePurgeHistory_NotWired(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	task, err := NewPurgeHistoryTask("user-1", "", "")
	require.NoError(t, err)
	assert.Error(t, svc.handlePurgeHistoryTask(context.Background(), task))
}

func testConfigWithoutRedis() *config.Config {
	return &config.Config{}
}
