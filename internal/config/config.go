// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/pubtrend/pubtrend/internal/ncbi"
)

// Config holds every setting the service reads at startup.
type Config struct {
	Env        string `envconfig:"ENV" default:"develop"`
	ServerPort int    `envconfig:"SERVER_PORT" default:"9000"`
	NCBIURL    string `envconfig:"NCBI_URL" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	NCBIAppKey string `envconfig:"NCBI_APP_KEY" required:"true"`

	// TWaiting is the window, in seconds, over which DownloadConcurrency
	// trend requests may be started.
	TWaiting int `envconfig:"T_WAITING" default:"1"`

	// NCBI documents 10 concurrent calls with a key; 5 is what works reliably.
	DownloadConcurrency int `envconfig:"DOWNLOAD_CONCURRENCY" default:"5"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ErrMissingAPIKey is returned when NCBI_APP_KEY is unset or empty.
var ErrMissingAPIKey = errors.New("NCBI app key is missing")

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values envconfig cannot express as tags.
func (c *Config) Validate() error {
	if c.NCBIAppKey == "" {
		return ErrMissingAPIKey
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.ServerPort)
	}
	if c.TWaiting <= 0 {
		return fmt.Errorf("T_WAITING must be positive, got %d", c.TWaiting)
	}
	if c.DownloadConcurrency <= 0 {
		return fmt.Errorf("DOWNLOAD_CONCURRENCY must be positive, got %d", c.DownloadConcurrency)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// RateWindow returns T_WAITING as a duration.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.TWaiting) * time.Second
}

// IsDevelop reports whether the service runs in the develop environment.
func (c *Config) IsDevelop() bool {
	return c.Env == "develop"
}

// NCBIOptions returns the base client options derived from this config.
func (c *Config) NCBIOptions() []ncbi.Option {
	return []ncbi.Option{
		ncbi.WithBaseURL(c.NCBIURL),
		ncbi.WithAPIKey(c.NCBIAppKey),
	}
}
