package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(apiTicketEnv, "")
	t.Setenv(geminiAPIKeyEnv, "")
	t.Setenv(databasePathEnv, "")

	cfg := Load()

	if cfg.Pipeline.Quota != 5 {
		t.Fatalf("default quota = %d, want 5", cfg.Pipeline.Quota)
	}
	if cfg.Pipeline.ItemDelay() != 5*time.Second {
		t.Fatalf("default item delay = %s, want 5s", cfg.Pipeline.ItemDelay())
	}
	if !cfg.Browser.IsHeadless() {
		t.Fatal("browser must default to headless")
	}
	if cfg.Scheduler.Interval() != 24*time.Hour {
		t.Fatalf("default interval = %s, want 24h", cfg.Scheduler.Interval())
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(apiTicketEnv, "env-ticket")
	t.Setenv(geminiAPIKeyEnv, "env-key")
	t.Setenv(databasePathEnv, "/tmp/env.db")

	cfg := Load()

	if cfg.Discovery.Ticket != "env-ticket" {
		t.Fatalf("ticket = %q", cfg.Discovery.Ticket)
	}
	if cfg.Gemini.APIKey != "env-key" {
		t.Fatalf("gemini key = %q", cfg.Gemini.APIKey)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Fatalf("database path = %q", cfg.Database.Path)
	}
}

func TestSchedulerLocation(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(apiTicketEnv, "")
	t.Setenv(geminiAPIKeyEnv, "")
	t.Setenv(databasePathEnv, "")

	cfg := Load()
	if got := cfg.Scheduler.Location().String(); got != "America/Santiago" {
		t.Fatalf("default location = %q, want America/Santiago", got)
	}

	// An unresolvable timezone reverts to UTC instead of failing the load.
	cfg.Scheduler.Timezone = "Mars/Olympus"
	cfg.bindTimezone()
	if got := cfg.Scheduler.Location(); got != time.UTC {
		t.Fatalf("unknown timezone resolved to %v, want UTC", got)
	}
}

func TestLoadMergesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
pipeline:
  quota: 3
  itemDelaySeconds: 1
browser:
  headless: false
logging:
  level: debug
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(apiTicketEnv, "")
	t.Setenv(geminiAPIKeyEnv, "")
	t.Setenv(databasePathEnv, "")

	cfg := Load()

	if cfg.Pipeline.Quota != 3 {
		t.Fatalf("quota = %d, want 3", cfg.Pipeline.Quota)
	}
	if cfg.Pipeline.ItemDelay() != time.Second {
		t.Fatalf("item delay = %s, want 1s", cfg.Pipeline.ItemDelay())
	}
	if cfg.Browser.IsHeadless() {
		t.Fatal("yaml must be able to disable headless mode")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging level = %q", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Web.Addr != ":8080" {
		t.Fatalf("web addr = %q", cfg.Web.Addr)
	}
}
