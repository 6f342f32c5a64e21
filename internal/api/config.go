package api

import (
	"time"

	"github.com/santapalabra/scripture/internal/config"
	"github.com/santapalabra/scripture/internal/ingest"
)

// Config holds server configuration.
type Config struct {
	Addr               string
	APIKey             string   // Empty disables authentication
	RateLimitPerMinute int      // Requests per minute per client (0 = disabled)
	RateLimitBurst     int      // Burst size
	AllowedOrigins     []string // CORS and WebSocket origins (empty = allow all)

	// CorpusDir bounds the files an ingestion job may name. Empty rejects
	// file jobs.
	CorpusDir string

	IngestJobs    int
	Retry         ingest.Retry
	Remote        ingest.RemoteOptions
	DefinitionTTL time.Duration

	ShutdownTimeout time.Duration
}

// FromConfig maps the application configuration onto the server's.
func FromConfig(c config.Config) Config {
	return Config{
		Addr:               c.Server.Addr,
		APIKey:             c.Server.APIKey,
		RateLimitPerMinute: c.Server.RateLimitPerMinute,
		RateLimitBurst:     c.Server.RateLimitBurst,
		AllowedOrigins:     c.Server.AllowedOrigins,
		CorpusDir:          c.Server.CorpusDir,
		IngestJobs:         c.Ingest.Jobs,
		Retry:              ingest.Retry{Attempts: c.Ingest.FlushAttempts, Backoff: c.Ingest.FlushBackoff},
		Remote: ingest.RemoteOptions{
			BaseURL:   c.Ingest.SourceBaseURL,
			PerSecond: c.Ingest.FetchPerSecond,
		},
		DefinitionTTL: c.Server.DefinitionTTL,
	}
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.IngestJobs < 1 {
		c.IngestJobs = 1
	}
	if c.Retry.Attempts < 1 {
		c.Retry = ingest.DefaultRetry
	}
	if c.DefinitionTTL <= 0 {
		c.DefinitionTTL = 10 * time.Minute
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.RateLimitPerMinute > 0 && c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 10
	}
	return c
}
