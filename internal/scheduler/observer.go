package scheduler

import "github.com/agentdemos/orchestrator/internal/job"

// Observer is notified after every job transition, including creation.
// Implementations must not block; they run on the dispatching goroutine.
type Observer interface {
	JobUpdated(j job.Job)
}

type ObserverFunc func(j job.Job)

func (f ObserverFunc) JobUpdated(j job.Job) { f(j) }
