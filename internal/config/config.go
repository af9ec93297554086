// Package config provides configuration loading for the agent.
//
// Configuration is loaded from a YAML file, then overridden by
// environment variables, then defaulted.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config holds the complete agent configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Redis     RedisConfig     `koanf:"redis"`
	LLM       LLMConfig       `koanf:"llm"`
	Knowledge KnowledgeConfig `koanf:"knowledge"`
	Engine    EngineConfig    `koanf:"engine"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// RedisConfig selects the checkpoint backend. When Addr is empty the
// agent falls back to the in-memory store.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
	LockTTL  time.Duration `koanf:"lock_ttl"`
}

// LLMConfig selects the chat model endpoint.
type LLMConfig struct {
	BaseURL     string  `koanf:"base_url"`
	APIKey      string  `koanf:"api_key"`
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
}

// KnowledgeConfig holds vector store and policy settings.
type KnowledgeConfig struct {
	PersistPath string `koanf:"persist_path"`
	PolicyPath  string `koanf:"policy_path"`
	TopK        int    `koanf:"top_k"`
}

// EngineConfig tunes the workflow loop.
type EngineConfig struct {
	MaxTransitions int           `koanf:"max_transitions"`
	StageTimeout   time.Duration `koanf:"stage_timeout"`
}

// LoggingConfig tunes the application logger.
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// Load reads configuration from an optional YAML file, then overrides
// with AGENT_-prefixed environment variables, then applies defaults.
//
//	AGENT_SERVER_ADDR       -> server.addr
//	AGENT_REDIS_ADDR        -> redis.addr
//	AGENT_LLM_API_KEY       -> llm.api_key
//	AGENT_ENGINE_MAX_TRANSITIONS -> engine.max_transitions
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	// AGENT_SERVER_ADDR -> server.addr; the first underscore after the
	// prefix separates section from field.
	if err := k.Load(env.Provider("AGENT_", ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, "AGENT_"))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Redis.LockTTL == 0 {
		cfg.Redis.LockTTL = 30 * time.Second
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}

	if cfg.Knowledge.TopK == 0 {
		cfg.Knowledge.TopK = 3
	}

	if cfg.Engine.MaxTransitions == 0 {
		cfg.Engine.MaxTransitions = 50
	}
	if cfg.Engine.StageTimeout == 0 {
		cfg.Engine.StageTimeout = 2 * time.Minute
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
