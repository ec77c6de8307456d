package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HTTPPort != 3000 {
		t.Errorf("expected port 3000, got %d", cfg.HTTPPort)
	}
	if cfg.Addr() != ":3000" {
		t.Errorf("expected addr :3000, got %s", cfg.Addr())
	}
	if cfg.PoolSize != 5 || cfg.ActorPoolSize != 3 {
		t.Errorf("unexpected pool sizes %d/%d", cfg.PoolSize, cfg.ActorPoolSize)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Errorf("expected 60s llm timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.ChatlogBackend != "file" {
		t.Errorf("expected file backend, got %s", cfg.ChatlogBackend)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DEBUG", "true")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPPort != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.HTTPPort)
	}
	if !cfg.Debug {
		t.Error("expected debug")
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %s", cfg.PollInterval)
	}
	if cfg.AnthropicAPIKey != "sk-test" {
		t.Errorf("unexpected api key %q", cfg.AnthropicAPIKey)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "http_port: 4000\nchatlog_backend: badger\nscheduler_concurrency: 4\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCHEDULER_CONCURRENCY", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPPort != 4000 {
		t.Errorf("expected port 4000, got %d", cfg.HTTPPort)
	}
	if cfg.ChatlogBackend != "badger" {
		t.Errorf("expected badger backend, got %s", cfg.ChatlogBackend)
	}
	if cfg.SchedulerConcurrency != 2 {
		t.Errorf("expected env to win with 2, got %d", cfg.SchedulerConcurrency)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("CHATLOG_BACKEND", "postgres")
	if _, err := Load(""); err == nil {
		t.Error("expected error for unknown backend")
	}
}
