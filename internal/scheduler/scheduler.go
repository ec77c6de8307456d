package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentdemos/orchestrator/internal/job"
)

// Scheduler owns the job lifecycle: it creates pending jobs, decides which
// are due and drives them through a Worker.
//
// Calls to ExecutePendingJobs are serialized, so the Poller and manual
// triggers never dispatch the same job twice.
type Scheduler struct {
	driveMu sync.Mutex

	store       job.JobStore
	worker      Worker
	clock       Clock
	newID       func() string
	logger      *slog.Logger
	concurrency int
	observers   []Observer
}

func New(store job.JobStore, worker Worker, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:       store,
		worker:      worker,
		clock:       SystemClock,
		newID:       uuid.NewString,
		logger:      slog.Default(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ScheduleJob stores a pending job that becomes due after delay. The task
// type is not validated here; the worker decides at execution time.
func (s *Scheduler) ScheduleJob(taskType string, payload map[string]any, delay time.Duration) (string, error) {
	now := s.clock.Now()
	j := job.New(s.newID(), taskType, payload, now, now.Add(delay))
	if err := s.store.Add(j); err != nil {
		return "", fmt.Errorf("schedule %s: %w", taskType, err)
	}

	s.logger.Info("job scheduled",
		slog.String("job_id", j.ID),
		slog.String("task_type", taskType),
		slog.Time("scheduled_at", j.ScheduledAt),
	)
	if snap, ok := s.store.Get(j.ID); ok {
		s.notify(snap)
	}
	return j.ID, nil
}

// ExecutePendingJobs runs every job that is pending and due at call time.
// The due set is fixed before the first dispatch, so jobs becoming due while
// it runs wait for the next call. Worker failures are recorded on the job
// and never returned. The processed jobs are returned in store order.
//
// Once ctx is done, jobs that have not started yet stay pending.
func (s *Scheduler) ExecutePendingJobs(ctx context.Context) []job.Job {
	s.driveMu.Lock()
	defer s.driveMu.Unlock()

	due := s.store.Due(s.clock.Now())
	if len(due) == 0 {
		return nil
	}

	s.logger.Debug("executing pending jobs", slog.Int("count", len(due)))

	results := make([]*job.Job, len(due))
	if s.concurrency < 2 || len(due) == 1 {
		for i, id := range due {
			if ctx.Err() != nil {
				break
			}
			results[i] = s.run(ctx, id)
		}
	} else {
		s.runPool(ctx, due, results)
	}

	processed := make([]job.Job, 0, len(due))
	for _, j := range results {
		if j != nil {
			processed = append(processed, *j)
		}
	}
	return processed
}

// runPool fans the due ids out to a fixed set of goroutines. Each id is sent
// once, so a job never runs twice; the store serializes transitions.
func (s *Scheduler) runPool(ctx context.Context, due []string, results []*job.Job) {
	workers := s.concurrency
	if workers > len(due) {
		workers = len(due)
	}

	next := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range next {
				results[i] = s.run(ctx, due[i])
			}
		}()
	}

	for i := range due {
		if ctx.Err() != nil {
			break
		}
		next <- i
	}
	close(next)
	wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, id string) *job.Job {
	started, err := s.store.Start(id)
	if err != nil {
		s.logger.Warn("job not started", slog.String("job_id", id), slog.Any("error", err))
		return nil
	}
	s.notify(started)

	begin := time.Now()
	result, perr := s.perform(ctx, started)
	at := s.clock.Now()

	var final job.Job
	if perr != nil {
		msg := perr.Error()
		if msg == "" {
			msg = "worker failed"
		}
		final, err = s.store.Fail(id, msg, at)
		if err == nil {
			s.logger.Warn("job failed",
				slog.String("job_id", id),
				slog.String("task_type", started.TaskType),
				slog.String("error", msg),
			)
		}
	} else {
		final, err = s.store.Complete(id, result, at)
		if err == nil {
			s.logger.Info("job completed",
				slog.String("job_id", id),
				slog.String("task_type", started.TaskType),
				slog.Duration("elapsed", time.Since(begin)),
			)
		}
	}
	if err != nil {
		// The store was cleared while the worker ran. Observers still get a
		// terminal event so running counts settle.
		s.logger.Warn("job result dropped", slog.String("job_id", id), slog.Any("error", err))
		s.notify(dropped(started, at))
		return nil
	}

	s.notify(final)
	return &final
}

// errJobCleared is recorded on jobs whose result arrived after a Clear.
const errJobCleared = "job cleared while running"

func dropped(started job.Job, at time.Time) job.Job {
	j := started
	j.Status = job.StatusFailed
	j.Error = errJobCleared
	j.Result = nil
	completed := at
	j.CompletedAt = &completed
	return j
}

func (s *Scheduler) perform(ctx context.Context, j job.Job) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return s.worker.Perform(ctx, j.TaskType, j.Payload)
}

func (s *Scheduler) notify(j job.Job) {
	for _, o := range s.observers {
		o.JobUpdated(j)
	}
}

// JobStatus looks a job up by id; ok is false for unknown ids.
func (s *Scheduler) JobStatus(id string) (job.Job, bool) {
	return s.store.Get(id)
}

// ListJobs returns every job in scheduling order.
func (s *Scheduler) ListJobs() []job.Job {
	return s.store.All()
}

func (s *Scheduler) Jobs(limit, offset int, status string) ([]job.Job, int) {
	return s.store.List(limit, offset, status)
}

func (s *Scheduler) Stats() job.Stats {
	return s.store.Stats()
}

func (s *Scheduler) Clear() {
	s.store.Clear()
	s.logger.Info("jobs cleared")
}
