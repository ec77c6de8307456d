package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	NodeID    string `mapstructure:"node_id"`
	HTTPPort  int    `mapstructure:"http_port"`
	Debug     bool   `mapstructure:"debug"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	AnthropicAPIKey  string        `mapstructure:"anthropic_api_key"`
	AnthropicBaseURL string        `mapstructure:"anthropic_base_url"`
	AnthropicModel   string        `mapstructure:"anthropic_model"`
	LLMTimeout       time.Duration `mapstructure:"llm_timeout"`

	PoolSize             int           `mapstructure:"pool_size"`
	ActorPoolSize        int           `mapstructure:"actor_pool_size"`
	SchedulerConcurrency int           `mapstructure:"scheduler_concurrency"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	ScriptTimeout        time.Duration `mapstructure:"script_timeout"`
	ScrapeUserAgent      string        `mapstructure:"scrape_user_agent"`

	LogDir         string `mapstructure:"log_dir"`
	ChatlogBackend string `mapstructure:"chatlog_backend"`
	DataDir        string `mapstructure:"data_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("node_id", "node-default")
	v.SetDefault("http_port", 3000)
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("anthropic_base_url", "https://api.anthropic.com")
	v.SetDefault("anthropic_model", "claude-3-5-haiku-20241022")
	v.SetDefault("llm_timeout", 60*time.Second)

	v.SetDefault("pool_size", 5)
	v.SetDefault("actor_pool_size", 3)
	v.SetDefault("scheduler_concurrency", 1)
	v.SetDefault("poll_interval", time.Second)
	v.SetDefault("script_timeout", 5*time.Second)
	v.SetDefault("scrape_user_agent", "")

	v.SetDefault("log_dir", "logs")
	v.SetDefault("chatlog_backend", "file")
	v.SetDefault("data_dir", "data")
}

// Load reads .env (if present), then the optional YAML file at path, then
// the process environment. Later sources win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.ChatlogBackend {
	case "file", "badger":
	default:
		return fmt.Errorf("invalid CHATLOG_BACKEND %q: want file or badger", c.ChatlogBackend)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid POLL_INTERVAL %s", c.PollInterval)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
