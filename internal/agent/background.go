package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentdemos/orchestrator/internal/llm"
	"github.com/agentdemos/orchestrator/internal/scrape"
	"github.com/agentdemos/orchestrator/internal/script"
)

const (
	TaskAnalyzeText     = "analyze_text"
	TaskGenerateContent = "generate_content"
	TaskSummarize       = "summarize"
	TaskBatchProcess    = "batch_process"
	TaskRunScript       = "run_script"
	TaskScrape          = "scrape"
)

// TaskTypes lists every task type the background agent understands.
var TaskTypes = []string{
	TaskAnalyzeText,
	TaskGenerateContent,
	TaskSummarize,
	TaskBatchProcess,
	TaskRunScript,
	TaskScrape,
}

// Background performs scheduler jobs. It satisfies scheduler.Worker.
type Background struct {
	llm           llm.Completer
	web           *scrape.Agent
	scriptTimeout time.Duration
	logger        *slog.Logger
}

type BackgroundOption func(*Background)

// WithScraper enables the scrape task type.
func WithScraper(a *scrape.Agent) BackgroundOption {
	return func(b *Background) { b.web = a }
}

func WithScriptTimeout(d time.Duration) BackgroundOption {
	return func(b *Background) { b.scriptTimeout = d }
}

func WithBackgroundLogger(l *slog.Logger) BackgroundOption {
	return func(b *Background) { b.logger = l }
}

func NewBackground(c llm.Completer, opts ...BackgroundOption) *Background {
	b := &Background{
		llm:           c,
		scriptTimeout: 5 * time.Second,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Background) Perform(ctx context.Context, taskType string, payload map[string]any) (any, error) {
	switch taskType {
	case TaskAnalyzeText:
		text, err := stringField(payload, "text")
		if err != nil {
			return nil, err
		}
		return b.AnalyzeText(ctx, text)
	case TaskGenerateContent:
		prompt, err := stringField(payload, "prompt")
		if err != nil {
			return nil, err
		}
		return b.GenerateContent(ctx, prompt, payload["context"])
	case TaskSummarize:
		text, err := stringField(payload, "text")
		if err != nil {
			return nil, err
		}
		return b.Summarize(ctx, text)
	case TaskBatchProcess:
		items, err := stringsField(payload, "items")
		if err != nil {
			return nil, err
		}
		return b.BatchProcess(ctx, items)
	case TaskRunScript:
		return b.runScript(ctx, payload)
	case TaskScrape:
		if b.web == nil {
			return nil, fmt.Errorf("scrape task: web agent not configured")
		}
		url, err := stringField(payload, "url")
		if err != nil {
			return nil, err
		}
		prompt, _ := payload["prompt"].(string)
		return b.web.ScrapeAndAnalyze(ctx, url, prompt)
	default:
		return nil, fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (b *Background) AnalyzeText(ctx context.Context, text string) (string, error) {
	b.logger.Info("analyzing text", slog.Int("chars", len(text)))
	return b.ask(ctx, TaskAnalyzeText, "Analyze the following text and provide insights:\n\n"+text, 800)
}

// GenerateContent writes content for prompt. A non-empty context is sent
// ahead of the task.
func (b *Background) GenerateContent(ctx context.Context, prompt string, extra any) (string, error) {
	b.logger.Info("generating content", slog.String("prompt", truncate(prompt, 50)))

	full := prompt
	if !isEmpty(extra) {
		full = fmt.Sprintf("Context: %s\n\nTask: %s", formatContext(extra), prompt)
	}
	return b.ask(ctx, TaskGenerateContent, full, 1000)
}

func (b *Background) Summarize(ctx context.Context, text string) (string, error) {
	b.logger.Info("summarizing text", slog.Int("chars", len(text)))
	return b.ask(ctx, TaskSummarize, "Provide a concise summary of:\n\n"+text, 500)
}

// BatchProcess analyzes items one after another; the first failure stops
// the batch.
func (b *Background) BatchProcess(ctx context.Context, items []string) ([]string, error) {
	b.logger.Info("batch processing", slog.Int("items", len(items)))

	results := make([]string, 0, len(items))
	for i, item := range items {
		b.logger.Debug("batch item", slog.Int("index", i+1), slog.Int("total", len(items)))
		res, err := b.AnalyzeText(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (b *Background) runScript(ctx context.Context, payload map[string]any) (*script.Result, error) {
	lang, err := stringField(payload, "lang")
	if err != nil {
		return nil, err
	}
	code, err := stringField(payload, "code")
	if err != nil {
		return nil, err
	}
	engine, err := script.Lookup(lang)
	if err != nil {
		return nil, err
	}
	input, _ := payload["input"].(map[string]any)
	return engine.Execute(ctx, code, input, b.scriptTimeout)
}

func (b *Background) ask(ctx context.Context, task, prompt string, maxTokens int) (string, error) {
	result, err := llm.Ask(ctx, b.llm, prompt, maxTokens)
	if err != nil {
		return "", fmt.Errorf("%s: %w", task, err)
	}
	b.logger.Info("task completed", slog.String("task_type", task), slog.Int("result_chars", len(result)))
	return result, nil
}
