package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdemos/orchestrator/internal/chatlog"
	"github.com/agentdemos/orchestrator/internal/job"
	"github.com/agentdemos/orchestrator/internal/llm"
	"github.com/agentdemos/orchestrator/internal/llm/llmtest"
	"github.com/agentdemos/orchestrator/internal/scheduler"
)

func TestJobObserver(t *testing.T) {
	o := NewJobObserver()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return clock }

	scheduled := testutil.ToFloat64(JobsScheduledTotal.WithLabelValues("metrics_test"))
	completed := testutil.ToFloat64(JobsFinishedTotal.WithLabelValues("metrics_test", "completed"))
	running := testutil.ToFloat64(RunningJobs)

	j := job.Job{ID: "a", TaskType: "metrics_test", Status: job.StatusPending}
	o.JobUpdated(j)
	j.Status = job.StatusRunning
	o.JobUpdated(j)
	assert.Equal(t, running+1, testutil.ToFloat64(RunningJobs))

	clock = clock.Add(2 * time.Second)
	j.Status = job.StatusCompleted
	o.JobUpdated(j)

	assert.Equal(t, scheduled+1, testutil.ToFloat64(JobsScheduledTotal.WithLabelValues("metrics_test")))
	assert.Equal(t, completed+1, testutil.ToFloat64(JobsFinishedTotal.WithLabelValues("metrics_test", "completed")))
	assert.Equal(t, running, testutil.ToFloat64(RunningJobs))
	assert.Empty(t, o.started)
}

func TestJobObserver_ClearWhileRunning(t *testing.T) {
	o := NewJobObserver()
	running := testutil.ToFloat64(RunningJobs)
	failed := testutil.ToFloat64(JobsFinishedTotal.WithLabelValues("metrics_clear", "failed"))

	var s *scheduler.Scheduler
	w := scheduler.WorkerFunc(func(ctx context.Context, taskType string, payload map[string]any) (any, error) {
		s.Clear()
		return "late", nil
	})
	s = scheduler.New(job.NewStore(), w, scheduler.WithObserver(o))
	_, err := s.ScheduleJob("metrics_clear", nil, 0)
	require.NoError(t, err)

	s.ExecutePendingJobs(context.Background())

	assert.Equal(t, running, testutil.ToFloat64(RunningJobs))
	assert.Equal(t, failed+1, testutil.ToFloat64(JobsFinishedTotal.WithLabelValues("metrics_clear", "failed")))
	assert.Empty(t, o.started)
}

func TestInstrumentCompleter(t *testing.T) {
	before := testutil.ToFloat64(LLMRequestsTotal.WithLabelValues("test-model", "true"))
	failedBefore := testutil.ToFloat64(LLMRequestsTotal.WithLabelValues("test-model", "false"))

	c := InstrumentCompleter(&llmtest.Fake{}, "test-model")
	resp, err := c.Complete(context.Background(), llm.Request{Messages: []llm.Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "reply: hi", resp.Text)

	_, err = InstrumentCompleter(llmtest.Failing("nope"), "test-model").Complete(context.Background(), llm.Request{})
	require.Error(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(LLMRequestsTotal.WithLabelValues("test-model", "true")))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(LLMRequestsTotal.WithLabelValues("test-model", "false")))
}

func TestObserveChat(t *testing.T) {
	before := testutil.ToFloat64(ChatMessagesTotal.WithLabelValues("error"))
	ObserveChat(chatlog.Entry{Type: chatlog.TypeError})
	assert.Equal(t, before+1, testutil.ToFloat64(ChatMessagesTotal.WithLabelValues("error")))
}
