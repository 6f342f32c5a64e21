// Package config loads runtime settings: built-in defaults, then an optional
// YAML file, then .env files, then SCRIPTURE_* environment variables.
// Command-line flags are applied last by the CLI.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/internal/logging"
	"github.com/santapalabra/scripture/internal/store"
)

// DefaultSourceBaseURL hosts the SBLGNT MorphGNT files.
const DefaultSourceBaseURL = "https://raw.githubusercontent.com/morphgnt/sblgnt/master"

// Config is the complete runtime configuration.
type Config struct {
	Database Database `yaml:"database"`
	Server   Server   `yaml:"server"`
	Ingest   Ingest   `yaml:"ingest"`
	Log      Log      `yaml:"log"`
}

// Database selects the corpus store.
type Database struct {
	Driver string `yaml:"driver" env:"SCRIPTURE_DB_DRIVER"`
	DSN    string `yaml:"dsn" env:"SCRIPTURE_DB_DSN"`
}

// Server configures the HTTP API.
type Server struct {
	Addr               string `yaml:"addr" env:"SCRIPTURE_ADDR"`
	APIKey             string `yaml:"api_key" env:"SCRIPTURE_API_KEY"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute" env:"SCRIPTURE_RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int    `yaml:"rate_limit_burst" env:"SCRIPTURE_RATE_LIMIT_BURST"`
	// AllowedOrigins lists CORS and WebSocket origins; in the environment
	// they are separated by semicolons.
	AllowedOrigins []string `yaml:"allowed_origins" env:"SCRIPTURE_ALLOWED_ORIGINS"`
	// CorpusDir is the only directory ingestion jobs may read files from.
	// Empty allows remote jobs only.
	CorpusDir     string        `yaml:"corpus_dir" env:"SCRIPTURE_CORPUS_DIR"`
	DefinitionTTL time.Duration `yaml:"definition_ttl" env:"SCRIPTURE_DEFINITION_TTL"`
}

// Ingest tunes the corpus pipeline.
type Ingest struct {
	Jobs           int           `yaml:"jobs" env:"SCRIPTURE_INGEST_JOBS"`
	FlushAttempts  int           `yaml:"flush_attempts" env:"SCRIPTURE_FLUSH_ATTEMPTS"`
	FlushBackoff   time.Duration `yaml:"flush_backoff" env:"SCRIPTURE_FLUSH_BACKOFF"`
	SourceBaseURL  string        `yaml:"source_base_url" env:"SCRIPTURE_SOURCE_BASE_URL"`
	FetchPerSecond float64       `yaml:"fetch_per_second" env:"SCRIPTURE_FETCH_PER_SECOND"`
}

// Log configures the global logger.
type Log struct {
	Level  string `yaml:"level" env:"SCRIPTURE_LOG_LEVEL"`
	Format string `yaml:"format" env:"SCRIPTURE_LOG_FORMAT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: Database{Driver: "sqlite", DSN: "scripture.db"},
		Server: Server{
			Addr:               ":8080",
			RateLimitPerMinute: 120,
			RateLimitBurst:     20,
			DefinitionTTL:      10 * time.Minute,
		},
		Ingest: Ingest{
			Jobs:           4,
			FlushAttempts:  3,
			FlushBackoff:   100 * time.Millisecond,
			SourceBaseURL:  DefaultSourceBaseURL,
			FetchPerSecond: 2,
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it, a missing named file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.NewIO("read", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, &errors.ParseError{Format: "YAML", Path: path, Message: err.Error(), Err: err}
		}
	}

	loadDotEnv(".env.local", ".env")

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cfg, errors.Wrap(err, "decode environment")
	}
	return cfg, cfg.Validate()
}

// loadDotEnv loads the files that exist. Variables already in the
// environment win.
func loadDotEnv(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			logging.Warn("ignoring unreadable env file", "file", f, "error", err)
		}
	}
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	if _, err := store.ParseDialect(c.Database.Driver); err != nil {
		return err
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.NewValidation("database.dsn", "dsn is required")
	}
	checks := []struct {
		field string
		value float64
	}{
		{"server.rate_limit_per_minute", float64(c.Server.RateLimitPerMinute)},
		{"server.rate_limit_burst", float64(c.Server.RateLimitBurst)},
		{"server.definition_ttl", float64(c.Server.DefinitionTTL)},
		{"ingest.jobs", float64(c.Ingest.Jobs)},
		{"ingest.flush_attempts", float64(c.Ingest.FlushAttempts)},
		{"ingest.flush_backoff", float64(c.Ingest.FlushBackoff)},
		{"ingest.fetch_per_second", c.Ingest.FetchPerSecond},
	}
	for _, chk := range checks {
		if chk.value <= 0 {
			return errors.NewValidation(chk.field, fmt.Sprintf("must be positive, got %v", chk.value))
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.NewValidation("log.level", err.Error())
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return errors.NewValidation("log.format", err.Error())
	}
	return nil
}

// ApplyLogging initializes the global logger from c.Log.
func (c Config) ApplyLogging() {
	level, _ := logging.ParseLevel(c.Log.Level)
	format, _ := logging.ParseFormat(c.Log.Format)
	logging.InitLogger(level, format)
}
