// Package scrape fetches web pages, extracts text with CSS selectors and
// asks the LLM to analyze what it found.
package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/agentdemos/orchestrator/internal/llm"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
	DefaultPrompt    = "Summarize the main content of this page"

	maxContentChars = 3000
	formModel       = "claude-sonnet-4-20250514"
)

var ErrNoForm = errors.New("scrape: no form found on page")

type Analysis struct {
	OriginalContentLength int       `json:"original_content_length"`
	Analysis              string    `json:"analysis"`
	Timestamp             time.Time `json:"timestamp"`
}

type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
	URI  string `json:"uri"`
}

type LinkReport struct {
	Links    []Link    `json:"links"`
	Analysis *Analysis `json:"analysis"`
}

type SearchResult struct {
	Matches  int       `json:"matches"`
	Analysis *Analysis `json:"analysis"`
}

type FormData struct {
	Action string   `json:"action"`
	Method string   `json:"method"`
	Inputs []string `json:"inputs"`
	AIData string   `json:"ai_data"`
}

type Change struct {
	Timestamp time.Time `json:"timestamp"`
	SizeDiff  int       `json:"size_diff"`
	Analysis  *Analysis `json:"analysis,omitempty"`
}

type Agent struct {
	llm       llm.Completer
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

type Option func(*Agent)

func WithHTTPClient(c *http.Client) Option {
	return func(a *Agent) { a.client = c }
}

func WithUserAgent(ua string) Option {
	return func(a *Agent) {
		if ua != "" {
			a.userAgent = ua
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

func NewAgent(c llm.Completer, opts ...Option) *Agent {
	a := &Agent{
		llm:       c,
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type page struct {
	url  *url.URL
	body []byte
	doc  *goquery.Document
}

func (a *Agent) fetch(ctx context.Context, rawURL string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}

	return &page{url: resp.Request.URL, body: body, doc: doc}, nil
}

func selectionText(sel *goquery.Selection) string {
	parts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	return strings.Join(parts, "\n")
}

// ScrapeAndAnalyze extracts paragraph and heading text from url and asks
// the LLM to analyze it with prompt.
func (a *Agent) ScrapeAndAnalyze(ctx context.Context, rawURL, prompt string) (*Analysis, error) {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	a.logger.Info("scraping url", slog.String("url", rawURL))

	p, err := a.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	content := selectionText(p.doc.Find("p, h1, h2, h3"))
	a.logger.Debug("extracted content", slog.Int("chars", len(content)))

	return a.analyze(ctx, content, prompt)
}

// ExtractAndAnalyzeLinks collects the first maxLinks links of a page and
// asks the LLM what kind of site it is.
func (a *Agent) ExtractAndAnalyzeLinks(ctx context.Context, rawURL string, maxLinks int) (*LinkReport, error) {
	if maxLinks <= 0 {
		maxLinks = 5
	}
	p, err := a.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var links []Link
	p.doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		link := Link{Text: strings.TrimSpace(s.Text()), Href: href}
		if u, err := p.url.Parse(href); err == nil {
			link.URI = u.String()
		}
		links = append(links, link)
		return len(links) < maxLinks
	})

	var b strings.Builder
	b.WriteString("Analyze these links and describe what type of website this appears to be:\n\n")
	for i, l := range links {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s: %s", l.Text, l.URI)
	}

	analysis, err := a.analyze(ctx, b.String(), "Provide insights about this website")
	if err != nil {
		return nil, err
	}
	return &LinkReport{Links: links, Analysis: analysis}, nil
}

func (a *Agent) SearchAndExtract(ctx context.Context, rawURL, selector, prompt string) (*SearchResult, error) {
	p, err := a.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	sel := p.doc.Find(selector)
	a.logger.Info("selector matched", slog.String("selector", selector), slog.Int("matches", sel.Length()))

	analysis, err := a.analyze(ctx, selectionText(sel), prompt)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Matches: sel.Length(), Analysis: analysis}, nil
}

// FillForm inspects the first form on the page and has the LLM generate
// values for fields. The form is never submitted.
func (a *Agent) FillForm(ctx context.Context, rawURL string, fields []string) (*FormData, error) {
	p, err := a.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	form := p.doc.Find("form").First()
	if form.Length() == 0 {
		return nil, ErrNoForm
	}

	data := &FormData{
		Action: form.AttrOr("action", ""),
		Method: strings.ToUpper(form.AttrOr("method", "GET")),
	}
	form.Find("input[name], textarea[name], select[name]").Each(func(_ int, s *goquery.Selection) {
		data.Inputs = append(data.Inputs, s.AttrOr("name", ""))
	})

	prompt := fmt.Sprintf("Generate realistic data for a form with these fields: %s. Return as JSON.", strings.Join(fields, ", "))
	resp, err := a.llm.Complete(ctx, llm.Request{
		Model:     formModel,
		MaxTokens: 500,
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("generate form data: %w", err)
	}
	data.AIData = resp.Text

	a.logger.Info("form data generated, submission disabled", slog.String("url", rawURL))
	return data, nil
}

// MonitorPageChanges polls url every interval until duration elapses and
// records each body change together with an LLM guess at what changed.
func (a *Agent) MonitorPageChanges(ctx context.Context, rawURL string, interval, duration time.Duration) ([]Change, error) {
	p, err := a.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	last := p.body

	var changes []Change
	deadline := time.NewTimer(duration)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return changes, ctx.Err()
		case <-deadline.C:
			return changes, nil
		case <-ticker.C:
		}

		cur, err := a.fetch(ctx, rawURL)
		if err != nil {
			a.logger.Warn("monitor fetch failed", slog.String("url", rawURL), slog.Any("error", err))
			continue
		}
		if bytes.Equal(cur.body, last) {
			continue
		}

		change := Change{Timestamp: time.Now().UTC(), SizeDiff: len(cur.body) - len(last)}
		a.logger.Info("page change detected", slog.String("url", rawURL), slog.Int("size_diff", change.SizeDiff))

		change.Analysis, err = a.analyze(ctx,
			fmt.Sprintf("Previous size: %d, New size: %d", len(last), len(cur.body)),
			"What might have changed on this webpage?")
		if err != nil {
			a.logger.Warn("change analysis failed", slog.Any("error", err))
		}
		changes = append(changes, change)
		last = cur.body
	}
}

// DownloadAndAnalyze summarizes a document; kind "html" uses the body text,
// anything else the raw response.
func (a *Agent) DownloadAndAnalyze(ctx context.Context, rawURL, kind string) (*Analysis, error) {
	p, err := a.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	content := string(p.body)
	if kind == "html" {
		content = p.doc.Find("body").Text()
	}
	a.logger.Debug("downloaded document", slog.String("url", rawURL), slog.Int("chars", len(content)))

	return a.analyze(ctx, content, "Summarize this document")
}

func (a *Agent) analyze(ctx context.Context, content, prompt string) (*Analysis, error) {
	full := fmt.Sprintf("%s\n\nContent:\n%s", prompt, truncate(content, maxContentChars))
	text, err := llm.Ask(ctx, a.llm, full, 800)
	if err != nil {
		return nil, fmt.Errorf("analyze content: %w", err)
	}
	return &Analysis{
		OriginalContentLength: len(content),
		Analysis:              text,
		Timestamp:             time.Now().UTC(),
	}, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
