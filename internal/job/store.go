package job

import (
	"fmt"
	"sync"
	"time"
)

type Stats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Store is the in-memory job store. Jobs keep insertion order; all reads
// return copies so callers never share state with the scheduler.
type Store struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string // insertion order
	// every id ever added, kept across Clear
	seen map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		jobs:  make(map[string]*Job),
		order: make([]string, 0),
		seen:  make(map[string]struct{}),
	}
}

func (s *Store) Add(j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[j.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, j.ID)
	}
	s.seen[j.ID] = struct{}{}
	s.jobs[j.ID] = j
	s.order = append(s.order, j.ID)
	return nil
}

func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return j.snapshot(), true
}

func (s *Store) All() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]Job, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.jobs[id].snapshot())
	}
	return all
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Due returns the ids of pending jobs scheduled at or before now, in store order.
func (s *Store) Due(now time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []string
	for _, id := range s.order {
		if s.jobs[id].Due(now) {
			due = append(due, id)
		}
	}
	return due
}

func (s *Store) List(limit, offset int, status string) ([]Job, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []Job
	for _, id := range s.order {
		j := s.jobs[id]
		if status == "" || string(j.Status) == status {
			filtered = append(filtered, j.snapshot())
		}
	}

	total := len(filtered)
	if offset >= total {
		return []Job{}, total
	}

	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	return filtered[offset:end], total
}

func (s *Store) Start(id string) (Job, error) {
	return s.transition(id, StatusRunning, func(j *Job) {})
}

func (s *Store) Complete(id string, result any, at time.Time) (Job, error) {
	return s.transition(id, StatusCompleted, func(j *Job) {
		j.Result = result
		done := at.UTC()
		j.CompletedAt = &done
	})
}

func (s *Store) Fail(id string, errMsg string, at time.Time) (Job, error) {
	return s.transition(id, StatusFailed, func(j *Job) {
		j.Error = errMsg
		done := at.UTC()
		j.CompletedAt = &done
	})
}

func (s *Store) transition(id string, to Status, apply func(*Job)) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !IsValidTransition(j.Status, to) {
		return j.snapshot(), fmt.Errorf("%w: %s -> %s for job %s", ErrInvalidTransition, j.Status, to, id)
	}
	j.Status = to
	apply(j)
	return j.snapshot(), nil
}

// Clear drops every job. Calling it on an empty store is a no-op.
// Clear drops every job. Ids stay reserved so they are never reused.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]*Job)
	s.order = make([]string, 0)
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st Stats
	for _, j := range s.jobs {
		switch j.Status {
		case StatusPending:
			st.Pending++
		case StatusRunning:
			st.Running++
		case StatusCompleted:
			st.Completed++
		case StatusFailed:
			st.Failed++
		}
	}
	return st
}
