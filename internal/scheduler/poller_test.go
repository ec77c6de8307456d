package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/agentdemos/orchestrator/internal/job"
)

func TestPoller_ExecutesDueJobs(t *testing.T) {
	s := New(job.NewStore(), echoWorker)
	id, err := s.ScheduleJob("summarize", map[string]any{"text": "x"}, 0)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	p := NewPoller(s, time.Second, nil)
	p.Start()
	defer p.Stop(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if j, _ := s.JobStatus(id); j.Status == job.StatusCompleted {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("job was not executed by the poller")
}

func TestPoller_StopWaits(t *testing.T) {
	s := New(job.NewStore(), echoWorker)
	p := NewPoller(s, time.Second, nil)
	p.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Errorf("stop: %v", err)
	}
}
