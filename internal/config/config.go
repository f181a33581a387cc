package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// FileEnvVar names the optional TOML file read before the environment.
const FileEnvVar = "HIRETRACK_CONFIG"

const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	HTTPPort       string        `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	MaxBodyBytes   int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	StorageDriver  string        `env:"STORAGE_DRIVER" envDefault:"postgres"`
	PostgresDSN    string        `env:"DATABASE_URL"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxIdle  time.Duration `env:"DB_CONN_MAX_IDLE" envDefault:"5m"`
	DBConnMaxLife  time.Duration `env:"DB_CONN_MAX_LIFE" envDefault:"30m"`
	DBReadyTimeout time.Duration `env:"DB_READY_TIMEOUT" envDefault:"30s"`
	MigrateOnStart bool          `env:"MIGRATE_ON_START" envDefault:"false"`

	JWTSecret      string        `env:"JWT_SECRET"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"120"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	QueueDriver          string        `env:"QUEUE_DRIVER" envDefault:"redis"`
	RedisURL             string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	NotifyEnqueueTimeout time.Duration `env:"NOTIFY_ENQUEUE_TIMEOUT" envDefault:"3s"`
	QueueMaxAttempts     int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"8"`
	QueueBackoffInitial  time.Duration `env:"QUEUE_BACKOFF_INITIAL" envDefault:"5s"`
	QueueBackoffMax      time.Duration `env:"QUEUE_BACKOFF_MAX" envDefault:"5m"`
	QueueBlockTimeout    time.Duration `env:"QUEUE_BLOCK_TIMEOUT" envDefault:"2s"`

	WorkerConcurrency int           `env:"WORKER_CONCURRENCY" envDefault:"4"`
	WorkerRatePerSec  float64       `env:"WORKER_RATE_PER_SEC" envDefault:"10"`
	WorkerSendTimeout time.Duration `env:"WORKER_SEND_TIMEOUT" envDefault:"30s"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPStartTLS bool   `env:"SMTP_STARTTLS" envDefault:"true"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"no-reply@hiretrack.local"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads the optional TOML file named by HIRETRACK_CONFIG, then lets the
// process environment override it.
func Load() (*Config, error) {
	return load(os.Getenv(FileEnvVar), environMap(os.Environ()))
}

func load(path string, environ map[string]string) (*Config, error) {
	merged := map[string]string{}
	if path != "" {
		fileValues, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for k, v := range fileValues {
			merged[k] = v
		}
	}
	for k, v := range environ {
		merged[k] = v
	}
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: merged}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.QueueDriver = strings.ToLower(strings.TrimSpace(cfg.QueueDriver))
	return &cfg, nil
}

// LoadFile reads a flat TOML file whose keys are the environment variable names
// in any case, e.g. `database_url = "..."`. Tables are flattened with "_".
func LoadFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := map[string]string{}
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, doc map[string]any, out map[string]string) {
	for key, value := range doc {
		name := strings.ToUpper(key)
		if prefix != "" {
			name = prefix + "_" + name
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(name, v, out)
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			out[name] = strings.Join(parts, ",")
		default:
			out[name] = fmt.Sprint(v)
		}
	}
}

func environMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

// Validate checks the storage and queue settings the api needs.
func (c *Config) Validate() error {
	return joinProblems(append(c.storageProblems(), c.queueProblems()...))
}

// ValidateAPI adds the settings only the HTTP server needs.
func (c *Config) ValidateAPI() error {
	problems := append(c.storageProblems(), c.queueProblems()...)
	if c.JWTSecret == "" {
		problems = append(problems, missing("JWT_SECRET"))
	}
	return joinProblems(problems)
}

// ValidateWorker checks what the notification worker uses. It never opens the
// database, so storage settings are not required.
func (c *Config) ValidateWorker() error {
	problems := c.queueProblems()
	if c.QueueDriver == DriverMemory {
		problems = append(problems, errors.New("the worker needs a shared queue: QUEUE_DRIVER=memory only works inside the api process"))
	}
	if c.WorkerConcurrency <= 0 {
		problems = append(problems, errors.New("WORKER_CONCURRENCY must be positive"))
	}
	return joinProblems(problems)
}

type missingSetting string

func missing(name string) error { return missingSetting(name) }

func (m missingSetting) Error() string { return "missing required settings: " + string(m) }

func (c *Config) storageProblems() []error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return []error{missing("DATABASE_URL")}
		}
	case DriverMemory:
	default:
		return []error{fmt.Errorf("STORAGE_DRIVER must be postgres or memory, got %q", c.StorageDriver)}
	}
	return nil
}

func (c *Config) queueProblems() []error {
	var problems []error
	switch c.QueueDriver {
	case DriverRedis:
		if c.RedisURL == "" {
			problems = append(problems, missing("REDIS_URL"))
		}
	case DriverMemory:
	default:
		problems = append(problems, fmt.Errorf("QUEUE_DRIVER must be redis or memory, got %q", c.QueueDriver))
	}
	if c.QueueMaxAttempts <= 0 {
		problems = append(problems, errors.New("QUEUE_MAX_ATTEMPTS must be positive"))
	}
	if c.QueueBackoffMax < c.QueueBackoffInitial {
		problems = append(problems, errors.New("QUEUE_BACKOFF_MAX must not be below QUEUE_BACKOFF_INITIAL"))
	}
	return problems
}

// joinProblems folds every missing setting into one sorted message ahead of
// the other problems.
func joinProblems(problems []error) error {
	var names []string
	var rest []error
	for _, p := range problems {
		if m, ok := p.(missingSetting); ok {
			names = append(names, string(m))
			continue
		}
		rest = append(rest, p)
	}
	if len(names) > 0 {
		sort.Strings(names)
		rest = append([]error{fmt.Errorf("missing required settings: %s", strings.Join(names, ", "))}, rest...)
	}
	return errors.Join(rest...)
}
