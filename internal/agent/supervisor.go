package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/agentdemos/orchestrator/internal/llm"
)

const DefaultActorPoolSize = 3

type ActorStatus struct {
	ID           int `json:"id"`
	HistoryCount int `json:"history_count"`
}

type PoolStatus struct {
	PoolSize int           `json:"pool_size"`
	Agents   []ActorStatus `json:"agents"`
}

// Supervisor owns a fixed pool of actors and spreads work across them.
type Supervisor struct {
	actors []*Actor
	next   atomic.Uint64
	logger *slog.Logger
}

func NewSupervisor(c llm.Completer, poolSize int, logger *slog.Logger) *Supervisor {
	if poolSize <= 0 {
		poolSize = DefaultActorPoolSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Supervisor{logger: logger}
	for i := range poolSize {
		s.actors = append(s.actors, NewActor(i, c, logger))
	}
	return s
}

// DistributeWork hands task i to actor i mod N and collects the replies in
// submission order.
func (s *Supervisor) DistributeWork(ctx context.Context, tasks []string) ([]string, error) {
	s.logger.Info("distributing work", slog.Int("tasks", len(tasks)), slog.Int("actors", len(s.actors)))

	futures := make([]*Future[string], len(tasks))
	for i, task := range tasks {
		idx := i % len(s.actors)
		futures[i] = s.actors[idx].Send(ctx, task, map[string]any{"task_index": i, "agent_id": idx})
	}

	results := make([]string, len(tasks))
	for i, f := range futures {
		text, err := f.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		results[i] = text
	}
	return results, nil
}

// Process routes a single message to the next actor in rotation.
func (s *Supervisor) Process(ctx context.Context, message string) (string, error) {
	idx := int((s.next.Add(1) - 1) % uint64(len(s.actors)))
	return s.actors[idx].Process(ctx, message, nil)
}

func (s *Supervisor) Status() PoolStatus {
	st := PoolStatus{PoolSize: len(s.actors), Agents: make([]ActorStatus, 0, len(s.actors))}
	for _, a := range s.actors {
		st.Agents = append(st.Agents, ActorStatus{ID: a.ID(), HistoryCount: a.HistoryLen()})
	}
	return st
}

func (s *Supervisor) Stop() {
	for _, a := range s.actors {
		a.Stop()
	}
}
