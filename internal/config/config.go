// Package config assembles the single explicit configuration struct the
// pipeline runs on. Values come from environment keys (optionally loaded
// from a .env file) plus an optional YAML mapping file for catalog columns
// and rule parameters; nothing else in the pipeline reads the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/rumor-ml/cfdigold/internal/alert"
	"github.com/rumor-ml/cfdigold/internal/enrich"
	"github.com/rumor-ml/cfdigold/internal/forensics"
	"github.com/rumor-ml/cfdigold/internal/taxes"
)

// Defaults for the store names and tenant, matching the upstream
// deployment conventions.
const (
	DefaultDataDir    = "./data"
	DefaultDatabase   = "cfdi_db"
	DefaultCollection = "gold_cfdi"
	DefaultCompanyID  = "DEFAULT_TENANT"
	DefaultSMTPPort   = 587
)

// Config enumerates every knob of a pipeline run. Thresholds and tax-code
// families are explicit fields, not literals buried in the rules.
type Config struct {
	// DataDir holds the extract tables and receives the JSON snapshot.
	DataDir string

	// Store settings. Empty MongoURI means snapshot-only output.
	MongoURI   string
	Database   string
	Collection string

	// CompanyID is the tenant identifier stamped on every row of the run.
	CompanyID string

	SMTP alert.SMTPConfig

	// SpikeThreshold is the fractional month-over-month increase above
	// which a metric alert fires.
	SpikeThreshold float64

	TaxCodes taxes.Codes

	// Catalog column mappings. Zero values fall back to substring
	// auto-detection; production configurations should pin them via the
	// mapping file.
	EmisorMapping   enrich.Mapping
	ReceptorMapping enrich.Mapping
}

// FromEnv builds a Config from the process environment. When envFile is
// non-empty it is loaded first (missing file is an error: the operator
// asked for it); otherwise a ./.env is loaded when present, ignored when
// absent.
func FromEnv(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		DataDir:        envOr("DATA_DIR", DefaultDataDir),
		MongoURI:       os.Getenv("MONGO_URI"),
		Database:       envOr("DB_NAME", DefaultDatabase),
		Collection:     envOr("COLLECTION_NAME", DefaultCollection),
		CompanyID:      envOr("COMPANY_ID", DefaultCompanyID),
		SpikeThreshold: forensics.DefaultSpikeThreshold,
		TaxCodes:       taxes.DefaultCodes(),
		SMTP: alert.SMTPConfig{
			Server:   os.Getenv("SMTP_SERVER"),
			Port:     DefaultSMTPPort,
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			Receiver: os.Getenv("ALERT_RECEIVER"),
		},
	}

	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", portStr, err)
		}
		cfg.SMTP.Port = port
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate checks the assembled configuration for contradictions.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	if c.CompanyID == "" {
		return fmt.Errorf("company id cannot be empty")
	}
	if c.SpikeThreshold <= 0 {
		return fmt.Errorf("spike threshold must be positive, got %f", c.SpikeThreshold)
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp port out of range: %d", c.SMTP.Port)
	}
	return nil
}
