package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/agentdemos/orchestrator/internal/agent"
	"github.com/agentdemos/orchestrator/internal/config"
	"github.com/agentdemos/orchestrator/internal/job"
	"github.com/agentdemos/orchestrator/internal/jobfile"
	"github.com/agentdemos/orchestrator/internal/llm"
	"github.com/agentdemos/orchestrator/internal/logging"
	"github.com/agentdemos/orchestrator/internal/scheduler"
	"github.com/agentdemos/orchestrator/internal/scrape"
)

type demo struct {
	llm    llm.Completer
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	example := flag.String("example", "all", "background, concurrent, actor, web, jobs or all")
	jobsPath := flag.String("jobs", "examples/jobs.yaml", "Job batch file for the jobs example")
	url := flag.String("url", "https://example.com", "Page for the web example")
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat, cfg.Debug)
	if cfg.AnthropicAPIKey == "" {
		fmt.Fprintln(os.Stderr, "ANTHROPIC_API_KEY is not set")
		os.Exit(1)
	}

	d := &demo{
		llm: llm.NewClient(cfg.AnthropicAPIKey,
			llm.WithBaseURL(cfg.AnthropicBaseURL),
			llm.WithModel(cfg.AnthropicModel),
			llm.WithTimeout(cfg.LLMTimeout)),
		cfg:    cfg,
		logger: logger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runs := map[string]func(context.Context) error{
		"concurrent": d.concurrent,
		"actor":      d.actor,
		"background": d.background,
		"web":        func(ctx context.Context) error { return d.web(ctx, *url) },
		"jobs":       func(ctx context.Context) error { return d.jobs(ctx, *jobsPath) },
	}

	order := []string{"concurrent", "actor", "background", "web"}
	if *example != "all" {
		if _, ok := runs[*example]; !ok {
			fmt.Fprintf(os.Stderr, "unknown example %q\n", *example)
			flag.Usage()
			os.Exit(2)
		}
		order = []string{*example}
	}

	for _, name := range order {
		header(strings.ToUpper(name) + " AGENT DEMO")
		if err := runs[name](ctx); err != nil {
			fmt.Printf("\n%s demo failed: %v\n", name, err)
		}
	}
}

func header(title string) {
	line := strings.Repeat("=", 60)
	fmt.Printf("\n%s\n  %s\n%s\n", line, title, line)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func (d *demo) concurrent(ctx context.Context) error {
	a := agent.NewConcurrent(d.llm, d.cfg.PoolSize, d.logger)
	results, err := a.ExecuteParallelTasks(ctx, []agent.Task{
		{Name: "Go Info", Prompt: "Explain Go in one sentence"},
		{Name: "AI Info", Prompt: "What is an AI agent in one sentence?"},
		{Name: "Concurrency", Prompt: "Define concurrent programming in one sentence"},
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nCompleted %d parallel tasks\n", len(results))
	for _, r := range results {
		fmt.Printf("\n%s:\n   %s\n", r.Task, preview(r.Response, 100))
	}
	return nil
}

func (d *demo) actor(ctx context.Context) error {
	s := agent.NewSupervisor(d.llm, 2, d.logger)
	defer s.Stop()

	results, err := s.DistributeWork(ctx, []string{
		"What is the actor model?",
		"Explain message passing",
		"Benefits of actors",
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nProcessed %d messages through actor pool\n", len(results))
	st := s.Status()
	fmt.Printf("Pool status: %d agents\n", st.PoolSize)
	for _, a := range st.Agents {
		fmt.Printf("   agent %d handled %d messages\n", a.ID, a.HistoryCount)
	}
	return nil
}

func (d *demo) newScheduler() *scheduler.Scheduler {
	worker := agent.NewBackground(d.llm,
		agent.WithScriptTimeout(d.cfg.ScriptTimeout),
		agent.WithBackgroundLogger(d.logger))
	return scheduler.New(job.NewStore(), worker,
		scheduler.WithLogger(d.logger),
		scheduler.WithConcurrency(d.cfg.SchedulerConcurrency))
}

func (d *demo) background(ctx context.Context) error {
	s := d.newScheduler()
	if _, err := s.ScheduleJob(agent.TaskAnalyzeText, map[string]any{
		"text": "Ruby is a dynamic programming language",
	}, 0); err != nil {
		return err
	}
	if _, err := s.ScheduleJob(agent.TaskSummarize, map[string]any{
		"text": "Background jobs allow you to process tasks asynchronously, improving application responsiveness and user experience.",
	}, 0); err != nil {
		return err
	}

	fmt.Println("\nExecuting scheduled jobs...")
	s.ExecutePendingJobs(ctx)
	printJobs(s.ListJobs())
	return nil
}

func (d *demo) jobs(ctx context.Context, path string) error {
	batch, err := jobfile.Load(path)
	if err != nil {
		return err
	}
	s := d.newScheduler()
	ids, err := batch.Schedule(s)
	if err != nil {
		return err
	}
	fmt.Printf("\nScheduled %d jobs from %s\n", len(ids), path)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()
	for {
		s.ExecutePendingJobs(ctx)
		if st := s.Stats(); st.Pending == 0 && st.Running == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	printJobs(s.ListJobs())
	return nil
}

func printJobs(jobs []job.Job) {
	completed := 0
	for _, j := range jobs {
		switch j.Status {
		case job.StatusCompleted:
			completed++
			fmt.Printf("\n[%s] %s\n   %s\n", j.Status, j.TaskType, preview(fmt.Sprint(j.Result), 100))
		default:
			fmt.Printf("\n[%s] %s %s\n", j.Status, j.TaskType, j.Error)
		}
	}
	fmt.Printf("\nCompleted %d of %d background jobs\n", completed, len(jobs))
}

func (d *demo) web(ctx context.Context, url string) error {
	a := scrape.NewAgent(d.llm, scrape.WithLogger(d.logger))
	fmt.Printf("Attempting to scrape %s...\n", url)
	res, err := a.ScrapeAndAnalyze(ctx, url, "Describe this webpage briefly")
	if err != nil {
		return err
	}
	fmt.Printf("\nScraped %d characters\n%s\n", res.OriginalContentLength, res.Analysis)
	return nil
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Agent demos\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
}
