package scheduler

import (
	"context"
	"time"
)

// Worker performs a task on behalf of the scheduler. A returned error marks
// the job failed; the scheduler never retries.
type Worker interface {
	Perform(ctx context.Context, taskType string, payload map[string]any) (any, error)
}

// WorkerFunc adapts a plain function to the Worker interface.
type WorkerFunc func(ctx context.Context, taskType string, payload map[string]any) (any, error)

func (f WorkerFunc) Perform(ctx context.Context, taskType string, payload map[string]any) (any, error) {
	return f(ctx, taskType, payload)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}
