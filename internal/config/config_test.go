package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CANON_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, 25000, cfg.Pipeline.ChunkSize)
	assert.True(t, cfg.Pipeline.OutputBOM)
	assert.False(t, cfg.Telemetry.EnableTracing)
	assert.True(t, cfg.Telemetry.EnableMetrics)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
  output: file
  file_path: logs/run.log
pipeline:
  chunk_size: 500
  output_bom: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("CANON_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "file", cfg.Logging.Output)
	assert.Equal(t, 500, cfg.Pipeline.ChunkSize)
	assert.False(t, cfg.Pipeline.OutputBOM)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644))
	t.Setenv("CANON_CONFIG_FILE", path)
	t.Setenv("CANON_LOGGING_LEVEL", "error")
	t.Setenv("CANON_PIPELINE_CHUNK_SIZE", "100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Pipeline.ChunkSize)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad level", env: map[string]string{"CANON_LOGGING_LEVEL": "verbose"}},
		{name: "bad output", env: map[string]string{"CANON_LOGGING_OUTPUT": "syslog"}},
		{name: "zero chunk size", env: map[string]string{"CANON_PIPELINE_CHUNK_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CANON_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging: [not a map"), 0644))
	t.Setenv("CANON_CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestPathsFrom(t *testing.T) {
	p := PathsFrom("/opt/canonize")

	assert.Equal(t, filepath.Join("/opt/canonize", "data", "input"), p.InputDir)
	assert.Equal(t, filepath.Join("/opt/canonize", "data", "output"), p.OutputDir)
	assert.Equal(t, filepath.Join("/opt/canonize", "rules", "labels.yaml"), p.RulesFile)
	assert.Equal(t, filepath.Join("/opt/canonize", "data", "output", "canonical.csv"), p.CanonicalCSV)
	assert.Equal(t, filepath.Join("/opt/canonize", "data", "output", "label_decisions.csv"), p.AuditCSV)
	assert.Equal(t, filepath.Join("/opt/canonize", "logs", "run.log"), p.GetLogPath("run.log"))
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	p := PathsFrom(root)

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.DataDir, p.InputDir, p.OutputDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
