package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/agentdemos/orchestrator/internal/llm"
)

const DefaultPoolSize = 5

type Task struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

type TaskResult struct {
	Task     string `json:"task"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// Concurrent fans prompts out over a fixed-size pool of goroutines.
type Concurrent struct {
	llm      llm.Completer
	poolSize int
	logger   *slog.Logger
}

func NewConcurrent(c llm.Completer, poolSize int, logger *slog.Logger) *Concurrent {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Concurrent{llm: c, poolSize: poolSize, logger: logger}
}

// ExecuteParallelTasks runs every task on the pool and returns the results
// in submission order. The first failure cancels the remaining tasks.
func (a *Concurrent) ExecuteParallelTasks(ctx context.Context, tasks []Task) ([]TaskResult, error) {
	a.logger.Info("executing tasks concurrently", slog.Int("tasks", len(tasks)), slog.Int("pool_size", a.poolSize))

	results := make([]TaskResult, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.poolSize)
	for i, task := range tasks {
		g.Go(func() error {
			res, err := a.ask(gctx, task.Prompt, task.Name)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Info("all tasks completed", slog.Int("tasks", len(tasks)))
	return results, nil
}

// ExecuteWithPromise runs one prompt asynchronously and waits for it.
func (a *Concurrent) ExecuteWithPromise(ctx context.Context, prompt string) (string, error) {
	f := Async(ctx, func(ctx context.Context) (TaskResult, error) {
		return a.ask(ctx, prompt, "Promise Task")
	})
	res, err := f.Wait(ctx)
	if err != nil {
		return "", err
	}
	a.logger.Info("promise fulfilled", slog.Int("chars", len(res.Response)))
	return res.Response, nil
}

// ExecuteWithTracking labels each task "Task i/N" in the order tasks start.
func (a *Concurrent) ExecuteWithTracking(ctx context.Context, prompts []string) ([]TaskResult, error) {
	var counter atomic.Int64
	total := len(prompts)

	results := make([]TaskResult, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.poolSize)
	for i, prompt := range prompts {
		g.Go(func() error {
			name := fmt.Sprintf("Task %d/%d", counter.Add(1), total)
			res, err := a.ask(gctx, prompt, name)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Concurrent) ask(ctx context.Context, prompt, name string) (TaskResult, error) {
	a.logger.Debug("sending prompt", slog.String("task", name), slog.String("prompt", truncate(prompt, 50)))

	text, err := llm.Ask(ctx, a.llm, prompt, 500)
	if err != nil {
		return TaskResult{}, fmt.Errorf("%s: %w", name, err)
	}

	a.logger.Debug("received response", slog.String("task", name), slog.Int("chars", len(text)))
	return TaskResult{Task: name, Prompt: prompt, Response: text}, nil
}
