package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// DatabaseURL is optional; file-to-file commands run without a database.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBMinConns  int32  `envconfig:"COLLATE_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"COLLATE_DB_MAX_CONNS" default:"8"`

	StemmerLanguage string `envconfig:"COLLATE_STEMMER_LANGUAGE" default:"english"`
	CleanWorkers    int    `envconfig:"COLLATE_CLEAN_WORKERS" default:"1"`

	// ExpectedLanguage drives the batch language advisory; empty disables it.
	ExpectedLanguage string `envconfig:"COLLATE_EXPECTED_LANGUAGE" default:"en"`
	LanguageSample   int    `envconfig:"COLLATE_LANGUAGE_SAMPLE" default:"25"`

	HTTPAddr           string `envconfig:"COLLATE_HTTP_ADDR" default:":8080"`
	HTTPMaxRecords     int    `envconfig:"COLLATE_HTTP_MAX_RECORDS" default:"5000"`
	APITokenHash       string `envconfig:"COLLATE_API_TOKEN_HASH" default:""`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBMinConns < 0 {
		return fmt.Errorf("COLLATE_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("COLLATE_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("COLLATE_DB_MIN_CONNS (%d) cannot exceed COLLATE_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if strings.TrimSpace(c.StemmerLanguage) == "" {
		return fmt.Errorf("COLLATE_STEMMER_LANGUAGE is required")
	}
	if c.CleanWorkers < 1 {
		return fmt.Errorf("COLLATE_CLEAN_WORKERS must be >= 1")
	}
	if c.LanguageSample < 1 {
		return fmt.Errorf("COLLATE_LANGUAGE_SAMPLE must be >= 1")
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("COLLATE_HTTP_ADDR is required")
	}
	if c.HTTPMaxRecords < 1 {
		return fmt.Errorf("COLLATE_HTTP_MAX_RECORDS must be >= 1")
	}
	return nil
}

// RequireDatabase guards commands that cannot run without DATABASE_URL.
func (c *Config) RequireDatabase() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required for this command")
	}
	return nil
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
