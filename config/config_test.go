package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 0.2, cfg.Router.Threshold)
	assert.Equal(t, 60*time.Second, cfg.Executor.TaskBudget.Std())
}

func TestLoad_OverlaysFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
router:
  threshold: 0.35
executor:
  task_budget: 30s
  base_backoff: 250ms
logging:
  format: json
adapters:
  files_dir: /tmp/agenthub-files
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.35, cfg.Router.Threshold)
	assert.Equal(t, 30*time.Second, cfg.Executor.TaskBudget.Std())
	assert.Equal(t, 250*time.Millisecond, cfg.Executor.BaseBackoff.Std())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/agenthub-files", cfg.Adapters.FilesDir)

	// Untouched fields keep their defaults.
	assert.Equal(t, 3, cfg.Router.MaxSelections)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "python3", cfg.Adapters.Interpreter)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "executor:\n  task_budget: soon\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	require.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"threshold too high", "router:\n  threshold: 1.5\n", "router.threshold"},
		{"zero selections", "router:\n  max_selections: 0\n", "router.max_selections"},
		{"bad level", "logging:\n  level: verbose\n", "logging.level"},
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
