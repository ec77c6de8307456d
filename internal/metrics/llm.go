package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/agentdemos/orchestrator/internal/llm"
)

type instrumented struct {
	next  llm.Completer
	model string
}

// InstrumentCompleter records request counts and latency for every call to
// next. model labels requests that do not name one.
func InstrumentCompleter(next llm.Completer, model string) llm.Completer {
	return &instrumented{next: next, model: model}
}

func (c *instrumented) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	start := time.Now()
	resp, err := c.next.Complete(ctx, req)
	LLMRequestDurationSeconds.WithLabelValues(model).Observe(time.Since(start).Seconds())
	LLMRequestsTotal.WithLabelValues(model, strconv.FormatBool(err == nil)).Inc()
	return resp, err
}
