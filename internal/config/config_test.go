package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Second, cfg.Categorizer.Timeout)
	assert.Equal(t, 5, cfg.Jobs.Workers)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	for _, k := range []string{"LEDGER_LOG_LEVEL", "LEDGER_STORE_DRIVER", "LEDGER_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "LEDGER_DATASET", "LEDGER_CATEGORIZER_TIMEOUT"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
store:
  driver: BigQuery
  project_id: my-project
categorizer:
  timeout: 250ms
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DriverBigQuery, cfg.Store.Driver)
	assert.Equal(t, "my-project", cfg.Store.ProjectID)
	assert.Equal(t, "finance", cfg.Store.Dataset)
	assert.Equal(t, 250*time.Millisecond, cfg.Categorizer.Timeout)
	assert.Equal(t, 100, cfg.Jobs.BufferSize)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"GOOGLE_CLOUD_PROJECT":       "gcp-project",
		"GCS_BUCKET":                 "statements",
		"LEDGER_STORE_DRIVER":        "bigquery",
		"LEDGER_CATEGORIZER_TIMEOUT": "2s",
		"LEDGER_JOB_WORKERS":         "2",
	}))
	require.NoError(t, err)

	assert.Equal(t, "gcp-project", cfg.Store.ProjectID)
	assert.Equal(t, "statements", cfg.Storage.Bucket)
	assert.Equal(t, "bigquery", cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.Categorizer.Timeout)
	assert.Equal(t, 2, cfg.Jobs.Workers)
}

func TestApplyEnv_LedgerVariablesWin(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		"GOOGLE_CLOUD_PROJECT": "generic",
		"LEDGER_PROJECT_ID":    "specific",
	})))
	assert.Equal(t, "specific", cfg.Store.ProjectID)
}

func TestApplyEnv_BadValues(t *testing.T) {
	for _, vars := range []map[string]string{
		{"LEDGER_CATEGORIZER_TIMEOUT": "soon"},
		{"LEDGER_JOB_WORKERS": "many"},
	} {
		cfg := Default()
		assert.ErrorIs(t, cfg.ApplyEnv(env(vars)), domain.ErrValidation)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bigquery without project", func(c *Config) { c.Store.Driver = DriverBigQuery }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"negative timeout", func(c *Config) { c.Categorizer.Timeout = -time.Second }},
		{"no workers", func(c *Config) { c.Jobs.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrValidation)
		})
	}
}
