package job

import (
	"math"
	"time"
)

// MaxDelaySeconds is the first delay in seconds that no longer fits in a
// time.Duration.
const MaxDelaySeconds = float64(math.MaxInt64) / float64(time.Second)

// ValidDelaySeconds reports whether d is a non-negative delay representable
// as a time.Duration. NaN is rejected.
func ValidDelaySeconds(d float64) bool {
	return d >= 0 && d < MaxDelaySeconds
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Job struct {
	ID          string         `json:"id"`
	TaskType    string         `json:"task_type"`
	Payload     map[string]any `json:"payload,omitempty"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	Status      Status         `json:"status"`
	Result      any            `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// New returns a pending job eligible at scheduledAt.
func New(id, taskType string, payload map[string]any, createdAt, scheduledAt time.Time) *Job {
	return &Job{
		ID:          id,
		TaskType:    taskType,
		Payload:     payload,
		ScheduledAt: scheduledAt.UTC(),
		Status:      StatusPending,
		CreatedAt:   createdAt.UTC(),
	}
}

// Due reports whether the job is pending and its scheduled time has passed.
func (j *Job) Due(now time.Time) bool {
	return j.Status == StatusPending && !j.ScheduledAt.After(now)
}

func (j *Job) snapshot() Job {
	c := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return c
}
