package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentdemos/orchestrator/internal/agent"
	"github.com/agentdemos/orchestrator/internal/api"
	"github.com/agentdemos/orchestrator/internal/chatlog"
	"github.com/agentdemos/orchestrator/internal/config"
	"github.com/agentdemos/orchestrator/internal/job"
	"github.com/agentdemos/orchestrator/internal/jobfile"
	"github.com/agentdemos/orchestrator/internal/llm"
	"github.com/agentdemos/orchestrator/internal/logging"
	"github.com/agentdemos/orchestrator/internal/metrics"
	"github.com/agentdemos/orchestrator/internal/scheduler"
	"github.com/agentdemos/orchestrator/internal/scrape"
	"github.com/agentdemos/orchestrator/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file")
	jobsPath := flag.String("jobs", "", "Job batch file to schedule at startup")
	watchURL := flag.String("watch", "", "Follow the event stream at this WebSocket URL instead of serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat, cfg.Debug)
	slog.SetDefault(logger)

	if *watchURL != "" {
		runWatch(*watchURL, logger)
		return
	}

	if err := runOrchestrator(cfg, *jobsPath, logger); err != nil {
		logger.Error("orchestrator failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func runWatch(url string, logger *slog.Logger) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("watching events", slog.String("url", url))
	c := ws.NewClient(url, func(j *ws.JobEvent, m *ws.MessageEvent) {
		switch {
		case j != nil:
			fmt.Printf("[job] %s %s -> %s\n", j.Job.ID, j.Job.TaskType, j.Job.Status)
		case m != nil:
			fmt.Printf("[%s] %s: %s\n", m.Entry.Type, m.Entry.Sender, m.Entry.Message)
		}
	}, logger)
	c.Run(ctx)
	logger.Info("watch stopped")
}

func openChatStore(cfg *config.Config, logger *slog.Logger) (chatlog.Store, func() error, error) {
	if cfg.ChatlogBackend == "badger" {
		s, err := chatlog.NewBadgerStore(cfg.DataDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	s, err := chatlog.NewFileStore(cfg.LogDir, logger)
	if err != nil {
		return nil, nil, err
	}
	return s, func() error { return nil }, nil
}

func runOrchestrator(cfg *config.Config, jobsPath string, logger *slog.Logger) error {
	logger.Info("starting orchestrator",
		slog.String("node_id", cfg.NodeID),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("model", cfg.AnthropicModel))

	if cfg.AnthropicAPIKey == "" {
		logger.Warn("ANTHROPIC_API_KEY is not set; agent calls will fail")
	}

	client := llm.NewClient(cfg.AnthropicAPIKey,
		llm.WithBaseURL(cfg.AnthropicBaseURL),
		llm.WithModel(cfg.AnthropicModel),
		llm.WithTimeout(cfg.LLMTimeout))
	completer := metrics.InstrumentCompleter(client, cfg.AnthropicModel)

	scrapeOpts := []scrape.Option{scrape.WithLogger(logger)}
	if cfg.ScrapeUserAgent != "" {
		scrapeOpts = append(scrapeOpts, scrape.WithUserAgent(cfg.ScrapeUserAgent))
	}
	web := scrape.NewAgent(completer, scrapeOpts...)

	background := agent.NewBackground(completer,
		agent.WithScraper(web),
		agent.WithScriptTimeout(cfg.ScriptTimeout),
		agent.WithBackgroundLogger(logger))
	concurrent := agent.NewConcurrent(completer, cfg.PoolSize, logger)
	actors := agent.NewSupervisor(completer, cfg.ActorPoolSize, logger)
	defer actors.Stop()

	hub := ws.NewHub(logger)

	sched := scheduler.New(job.NewStore(), background,
		scheduler.WithLogger(logger),
		scheduler.WithConcurrency(cfg.SchedulerConcurrency),
		scheduler.WithObserver(metrics.NewJobObserver()),
		scheduler.WithObserver(hub))

	if jobsPath != "" {
		batch, err := jobfile.Load(jobsPath)
		if err != nil {
			return err
		}
		ids, err := batch.Schedule(sched)
		if err != nil {
			return err
		}
		logger.Info("job batch scheduled", slog.String("file", jobsPath), slog.Int("jobs", len(ids)))
	}

	store, closeStore, err := openChatStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("open chat store: %w", err)
	}
	defer closeStore()

	chat, err := chatlog.NewLogger(store, chatlog.WithLogger(logger))
	if err != nil {
		return err
	}
	chat.OnLog(metrics.ObserveChat)
	chat.OnLog(hub.ChatLogged)

	archive, _ := store.(chatlog.Archive)

	router := api.NewRouter(api.Deps{
		Config:    cfg,
		Scheduler: sched,
		Chat:      chat,
		Archive:   archive,
		Actors:    actors,
		Hub:       hub,
		Logger:    logger,
		Agents: map[string]api.Responder{
			api.AgentConcurrent: api.ResponderFunc(concurrent.ExecuteWithPromise),
			api.AgentBackground: api.ResponderFunc(func(ctx context.Context, msg string) (string, error) {
				return background.GenerateContent(ctx, msg, "")
			}),
			api.AgentActor: api.ResponderFunc(actors.Process),
		},
	})

	poller := scheduler.NewPoller(sched, cfg.PollInterval, logger)
	poller.Start()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Addr()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := poller.Stop(ctx); err != nil {
		logger.Warn("poller stop", slog.String("error", err.Error()))
	}
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Agent orchestrator - chat agents and delayed background jobs\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         # Serve on HTTP_PORT\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --jobs examples/jobs.yaml               # Serve and schedule a batch\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --watch ws://localhost:3000/ws/events   # Tail live events\n", os.Args[0])
	}
}
