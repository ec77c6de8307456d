package metrics

import (
	"sync"
	"time"

	"github.com/agentdemos/orchestrator/internal/chatlog"
	"github.com/agentdemos/orchestrator/internal/job"
)

// JobObserver turns job transitions into metrics. It satisfies
// scheduler.Observer.
type JobObserver struct {
	now func() time.Time

	mu      sync.Mutex
	started map[string]time.Time
}

func NewJobObserver() *JobObserver {
	return &JobObserver{now: time.Now, started: make(map[string]time.Time)}
}

func (o *JobObserver) JobUpdated(j job.Job) {
	switch j.Status {
	case job.StatusPending:
		JobsScheduledTotal.WithLabelValues(j.TaskType).Inc()
	case job.StatusRunning:
		RunningJobs.Inc()
		o.mu.Lock()
		o.started[j.ID] = o.now()
		o.mu.Unlock()
	case job.StatusCompleted, job.StatusFailed:
		RunningJobs.Dec()
		JobsFinishedTotal.WithLabelValues(j.TaskType, string(j.Status)).Inc()

		o.mu.Lock()
		start, ok := o.started[j.ID]
		delete(o.started, j.ID)
		o.mu.Unlock()
		if ok {
			JobDurationSeconds.WithLabelValues(j.TaskType).Observe(o.now().Sub(start).Seconds())
		}
	}
}

// ObserveChat counts chat log entries; pass it to chatlog.Logger.OnLog.
func ObserveChat(e chatlog.Entry) {
	ChatMessagesTotal.WithLabelValues(string(e.Type)).Inc()
}
