package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rumor-ml/cfdigold/internal/config"
	"github.com/rumor-ml/cfdigold/internal/loader"
	"github.com/rumor-ml/cfdigold/internal/pipeline"
	"github.com/rumor-ml/cfdigold/internal/store"
	"github.com/rumor-ml/cfdigold/internal/ui"
)

const version = "0.1.0"

var (
	versionFlag = flag.Bool("version", false, "Show version")

	dataDir     = flag.String("data", "", "Data directory with the CFDI extract tables (overrides DATA_DIR)")
	envFile     = flag.String("env", "", "Path to a .env file (default: ./.env when present)")
	mappingFile = flag.String("mapping", "", "YAML column-mapping file for catalogs and rule parameters")
	companyID   = flag.String("company", "", "Tenant identifier stamped on all rows (overrides COMPANY_ID)")
	dryRun      = flag.Bool("dry-run", false, "Report which tables would be processed without writing output")
	verbose     = flag.Bool("verbose", false, "Development-style logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `cfdigold - CFDI extract ETL and forensic-alerting pipeline

Usage:
  cfdigold [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Run against ./data with environment configuration
  cfdigold

  # Explicit data directory and catalog column mapping
  cfdigold -data /srv/extracts/acme -mapping mappings/acme.yaml -company acme

  # Show what a run would load without writing anything
  cfdigold -data ./data -dry-run

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("cfdigold version %s\n", version)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv(*envFile)
	if err != nil {
		return err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *companyID != "" {
		cfg.CompanyID = *companyID
	}
	if *mappingFile != "" {
		if err := cfg.ApplyMappingFile(*mappingFile); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ui.Header("CFDI Forensic Migration")
	ui.Info(fmt.Sprintf("Data directory: %s", cfg.DataDir))
	ui.Info(fmt.Sprintf("Company: %s", cfg.CompanyID))

	if *dryRun {
		return runDry(cfg)
	}

	ui.Step(1, 2, "Running pipeline")
	result, err := pipeline.New(cfg, logger).Run(context.Background())
	if err != nil {
		ui.Error(err.Error())
		return err
	}

	ui.Step(2, 2, "Summary")
	ui.Success(fmt.Sprintf("Processed %d records (%d duplicate candidates)", result.Records, result.Duplicates))
	if len(result.Alerts) > 0 {
		ui.Warning(fmt.Sprintf("%d forensic alert(s) raised", len(result.Alerts)))
		for _, a := range result.Alerts {
			ui.YellowText(fmt.Sprintf("  [%s] %s", a.Metric, firstLine(a.Message)))
		}
	}
	ui.Success(fmt.Sprintf("Snapshot written to %s", result.SnapshotPath))
	if result.Store != nil {
		ui.Success(fmt.Sprintf("Store write: %d upserted, %d modified",
			result.Store.Upserted, result.Store.Modified))
	} else if cfg.MongoURI != "" {
		ui.Warning("Store unreachable; the snapshot holds the run output")
	} else {
		ui.Info("No store configured; the snapshot holds the run output")
	}

	return nil
}

// runDry reports which tables are present without touching any output.
func runDry(cfg *config.Config) error {
	tables := []string{
		pipeline.FileInvoices,
		pipeline.FileTaxHeaders,
		pipeline.FileTraslados,
		pipeline.FileRetenciones,
		pipeline.FileEmisores,
		pipeline.FileReceptores,
	}
	for _, name := range tables {
		t, err := loader.Load(cfg.DataDir, name)
		if err != nil {
			ui.Warning(fmt.Sprintf("%s: %v", name, err))
			continue
		}
		ui.Success(fmt.Sprintf("%s: %d rows, %d columns", name, t.Len(), len(t.Columns)))
	}
	ui.Info(fmt.Sprintf("Dry run complete. Output would go to %s",
		filepath.Join(cfg.DataDir, store.SnapshotFilename)))
	return nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
