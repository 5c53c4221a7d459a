// Package config loads service settings from an optional YAML file and the
// environment. Commands layer their own flags on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverBigQuery = "bigquery"
)

type Config struct {
	LogLevel    string            `yaml:"log_level"`
	HTTP        HTTPConfig        `yaml:"http"`
	Store       StoreConfig       `yaml:"store"`
	Storage     StorageConfig     `yaml:"storage"`
	Extractor   ExtractorConfig   `yaml:"extractor"`
	Categorizer CategorizerConfig `yaml:"categorizer"`
	Jobs        JobsConfig        `yaml:"jobs"`
	Notion      NotionConfig      `yaml:"notion"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StoreConfig struct {
	// Driver is "memory" or "bigquery".
	Driver    string `yaml:"driver"`
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
}

// StorageConfig names the Cloud Storage bucket statements are archived to.
// An empty bucket disables archiving and GCS ingestion jobs.
type StorageConfig struct {
	Bucket string `yaml:"bucket"`
}

type ExtractorConfig struct {
	// GeminiModel enables vision transcription of scanned statements when
	// set.
	GeminiModel string `yaml:"gemini_model"`
}

type CategorizerConfig struct {
	// Timeout bounds training on the request path. Zero disables the bound.
	Timeout time.Duration `yaml:"timeout"`
	Epochs  int           `yaml:"epochs"`
	Seed    int64         `yaml:"seed"`
}

type JobsConfig struct {
	Workers    int `yaml:"workers"`
	BufferSize int `yaml:"buffer_size"`
}

type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		LogLevel: "info",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver:  DriverMemory,
			Dataset: "finance",
		},
		Categorizer: CategorizerConfig{
			Timeout: 5 * time.Second,
			Epochs:  50,
			Seed:    1,
		},
		Jobs: JobsConfig{
			Workers:    5,
			BufferSize: 100,
		},
	}
}

// Load reads path (when non-empty) over the defaults, then applies the
// process environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("Load: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("Load: parsing %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from LEDGER_* variables plus the conventional
// GOOGLE_CLOUD_PROJECT, GCS_BUCKET and NOTION_TOKEN.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&c.LogLevel, "LEDGER_LOG_LEVEL")
	setString(&c.HTTP.Addr, "LEDGER_HTTP_ADDR")
	setString(&c.Store.Driver, "LEDGER_STORE_DRIVER")
	setString(&c.Store.ProjectID, "LEDGER_PROJECT_ID", "GOOGLE_CLOUD_PROJECT")
	setString(&c.Store.Dataset, "LEDGER_DATASET")
	setString(&c.Storage.Bucket, "LEDGER_BUCKET", "GCS_BUCKET")
	setString(&c.Extractor.GeminiModel, "LEDGER_GEMINI_MODEL")
	setString(&c.Notion.Token, "LEDGER_NOTION_TOKEN", "NOTION_TOKEN")
	setString(&c.Notion.DatabaseID, "LEDGER_NOTION_DATABASE_ID")

	if v := getenv("LEDGER_CATEGORIZER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return domain.Validationf("ApplyEnv", "LEDGER_CATEGORIZER_TIMEOUT: %v", err)
		}
		c.Categorizer.Timeout = d
	}
	if v := getenv("LEDGER_JOB_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.Validationf("ApplyEnv", "LEDGER_JOB_WORKERS: %v", err)
		}
		c.Jobs.Workers = n
	}
	return nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	switch c.Store.Driver {
	case DriverMemory:
	case DriverBigQuery:
		if c.Store.ProjectID == "" {
			return domain.Validationf("Validate", "store.project_id is required for the bigquery driver")
		}
	default:
		return domain.Validationf("Validate", "unknown store driver %q", c.Store.Driver)
	}
	if c.Categorizer.Timeout < 0 {
		return domain.Validationf("Validate", "categorizer.timeout must not be negative")
	}
	if c.Jobs.Workers <= 0 {
		return domain.Validationf("Validate", "jobs.workers must be positive")
	}
	return nil
}
