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
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
	if cfg.Engine.MaxTransitions != 50 {
		t.Errorf("max transitions = %d", cfg.Engine.MaxTransitions)
	}
	if cfg.Knowledge.TopK != 3 {
		t.Errorf("top_k = %d", cfg.Knowledge.TopK)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("redis addr should default empty, got %q", cfg.Redis.Addr)
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  addr: ":9000"
  shutdown_timeout: 5s
redis:
  addr: "localhost:6379"
llm:
  model: qwen3-32b
engine:
  max_transitions: 20
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AGENT_SERVER_ADDR", ":7070")
	t.Setenv("AGENT_LLM_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	// Env beats file.
	if cfg.Server.Addr != ":7070" {
		t.Errorf("server addr = %q, want :7070", cfg.Server.Addr)
	}
	// File beats defaults.
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("shutdown timeout = %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.LLM.Model != "qwen3-32b" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.LLM.APIKey)
	}
	if cfg.Engine.MaxTransitions != 20 {
		t.Errorf("max transitions = %d", cfg.Engine.MaxTransitions)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
