// Package config loads the hub configuration from a YAML file. Every field
// has a working default; an absent file yields the default configuration so
// the CLI runs without any setup.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML strings like "30s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration document.
type Config struct {
	Router   RouterConfig   `yaml:"router"`
	Executor ExecutorConfig `yaml:"executor"`
	Logging  LoggingConfig  `yaml:"logging"`
	Adapters AdapterConfig  `yaml:"adapters"`
}

// RouterConfig tunes capability selection.
type RouterConfig struct {
	// Threshold is the minimum classifier score for selection.
	Threshold float64 `yaml:"threshold"`

	// MaxSelections caps the fan-out of a single task.
	MaxSelections int `yaml:"max_selections"`

	// CacheSize bounds the routing decision cache; 0 disables it.
	CacheSize int `yaml:"cache_size"`
}

// ExecutorConfig tunes dispatch and retry behavior.
type ExecutorConfig struct {
	// TaskBudget bounds end-to-end execution per task; 0 means unbounded.
	TaskBudget Duration `yaml:"task_budget"`

	// BaseBackoff is the first retry delay; subsequent delays double.
	BaseBackoff Duration `yaml:"base_backoff"`

	// MaxAttempts is the global per-invocation attempt ceiling.
	MaxAttempts int `yaml:"max_attempts"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level: debug, info, warn or error.
	Level string `yaml:"level"`

	// Format: json or text.
	Format string `yaml:"format"`
}

// AdapterConfig holds the built-in adapter knobs.
type AdapterConfig struct {
	// FilesDir backs the file_store capability; empty keeps it in memory.
	FilesDir string `yaml:"files_dir"`

	// WorkspacesDir is where the workspace capability scaffolds projects.
	WorkspacesDir string `yaml:"workspaces_dir"`

	// Interpreter runs code_runner snippets.
	Interpreter string `yaml:"interpreter"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Router: RouterConfig{
			Threshold:     0.2,
			MaxSelections: 3,
			CacheSize:     128,
		},
		Executor: ExecutorConfig{
			TaskBudget:  Duration(60 * time.Second),
			BaseBackoff: Duration(time.Second),
			MaxAttempts: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Adapters: AdapterConfig{
			WorkspacesDir: "workspaces",
			Interpreter:   "python3",
		},
	}
}

// Load reads the YAML file at path, layering it over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Router.Threshold < 0 || c.Router.Threshold > 1 {
		return fmt.Errorf("router.threshold must be in [0, 1], got %v", c.Router.Threshold)
	}
	if c.Router.MaxSelections < 1 {
		return fmt.Errorf("router.max_selections must be at least 1, got %d", c.Router.MaxSelections)
	}
	if c.Executor.MaxAttempts < 1 {
		return fmt.Errorf("executor.max_attempts must be at least 1, got %d", c.Executor.MaxAttempts)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}
