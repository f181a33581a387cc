package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("", map[string]string{"DATABASE_URL": "postgres://localhost/hiretrack", "JWT_SECRET": "s"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.AccessTokenTTL != time.Hour || cfg.QueueDriver != DriverRedis {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.QueueBackoffInitial != 5*time.Second || cfg.QueueBackoffMax != 5*time.Minute || cfg.QueueMaxAttempts != 8 {
		t.Fatalf("unexpected queue defaults %+v", cfg)
	}
	if err := cfg.ValidateAPI(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadFileThenEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hiretrack.toml")
	content := "http_port = \"9090\"\nworker_concurrency = 8\n\n[smtp]\nhost = \"smtp.example.com\"\nport = 2525\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := load(path, map[string]string{"HTTP_PORT": "7070"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "7070" {
		t.Fatalf("environment must win, got %q", cfg.HTTPPort)
	}
	if cfg.WorkerConcurrency != 8 || cfg.SMTPHost != "smtp.example.com" || cfg.SMTPPort != 2525 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestValidateReportsEverything(t *testing.T) {
	cfg, err := load("", map[string]string{"QUEUE_DRIVER": "kafka"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	err = cfg.ValidateAPI()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"DATABASE_URL", "QUEUE_DRIVER", "JWT_SECRET"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %s in %q", want, msg)
		}
	}
}

func TestWorkerRejectsMemoryQueue(t *testing.T) {
	cfg, err := load("", map[string]string{"STORAGE_DRIVER": "memory", "QUEUE_DRIVER": "MEMORY"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := cfg.ValidateWorker(); err == nil {
		t.Fatal("expected worker validation to reject the memory queue")
	}
}

func TestWorkerNeedsOnlyQueueSettings(t *testing.T) {
	cfg, err := load("", map[string]string{"REDIS_URL": "redis://cache:6379/1"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageDriver != DriverPostgres || cfg.PostgresDSN != "" {
		t.Fatalf("expected default postgres driver without a DSN, got %+v", cfg)
	}
	if err := cfg.ValidateWorker(); err != nil {
		t.Fatalf("worker must not require DATABASE_URL: %v", err)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("api validation must still require DATABASE_URL, got %v", err)
	}
}
