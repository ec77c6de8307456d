// Package llmtest provides an in-process Completer for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentdemos/orchestrator/internal/llm"
)

// Fake answers every request with Reply(prompt), or "reply: <prompt>" when
// Reply is nil. Requests are recorded in order.
type Fake struct {
	Reply func(prompt string) (string, error)

	mu       sync.Mutex
	requests []llm.Request
}

func (f *Fake) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	prompt := ""
	if n := len(req.Messages); n > 0 {
		prompt = req.Messages[n-1].Content
	}
	if f.Reply == nil {
		return &llm.Response{Text: "reply: " + prompt}, nil
	}
	text, err := f.Reply(prompt)
	if err != nil {
		return nil, err
	}
	return &llm.Response{Text: text}, nil
}

func (f *Fake) Requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}

// Prompts returns the last user message of each request.
func (f *Fake) Prompts() []string {
	var out []string
	for _, r := range f.Requests() {
		if n := len(r.Messages); n > 0 {
			out = append(out, r.Messages[n-1].Content)
		}
	}
	return out
}

// Failing returns a Fake whose every call fails with msg.
func Failing(msg string) *Fake {
	return &Fake{Reply: func(string) (string, error) { return "", fmt.Errorf("%s", msg) }}
}
