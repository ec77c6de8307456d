// Package jobfile loads batches of delayed jobs from YAML.
package jobfile

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agentdemos/orchestrator/internal/job"
)

const (
	APIVersion = "agents/v1"
	Kind       = "JobBatch"
)

type Batch struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`
	Jobs       []Entry  `yaml:"jobs"`
}

type Metadata struct {
	Name string `yaml:"name"`
}

type Entry struct {
	TaskType     string         `yaml:"taskType"`
	DelaySeconds float64        `yaml:"delaySeconds"`
	Payload      map[string]any `yaml:"payload"`
}

func (e Entry) Delay() time.Duration {
	return time.Duration(e.DelaySeconds * float64(time.Second))
}

// Scheduler is the subset of the job scheduler a batch needs.
type Scheduler interface {
	ScheduleJob(taskType string, payload map[string]any, delay time.Duration) (string, error)
}

func Parse(data []byte) (*Batch, error) {
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}

	if b.APIVersion != APIVersion {
		return nil, fmt.Errorf("invalid apiVersion: %s", b.APIVersion)
	}
	if b.Kind != Kind {
		return nil, fmt.Errorf("invalid kind: %s", b.Kind)
	}

	for i, e := range b.Jobs {
		if e.TaskType == "" {
			return nil, fmt.Errorf("jobs[%d]: taskType is required", i)
		}
		if e.DelaySeconds < 0 {
			return nil, fmt.Errorf("jobs[%d]: negative delaySeconds %v", i, e.DelaySeconds)
		}
		if !job.ValidDelaySeconds(e.DelaySeconds) {
			return nil, fmt.Errorf("jobs[%d]: delaySeconds %v out of range", i, e.DelaySeconds)
		}
		if e.Payload == nil {
			b.Jobs[i].Payload = map[string]any{}
		}
	}
	return &b, nil
}

func Load(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	return Parse(data)
}

// Schedule submits every entry in file order and returns the new job ids.
// On failure the ids scheduled so far are returned with the error.
func (b *Batch) Schedule(s Scheduler) ([]string, error) {
	ids := make([]string, 0, len(b.Jobs))
	for i, e := range b.Jobs {
		id, err := s.ScheduleJob(e.TaskType, e.Payload, e.Delay())
		if err != nil {
			return ids, fmt.Errorf("jobs[%d]: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
