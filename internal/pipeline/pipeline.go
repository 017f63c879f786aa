// Package pipeline sequences the batch: load, normalize, aggregate,
// enrich, calculate, analyze, alert, persist. Single-threaded and
// idempotent for identical input.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rumor-ml/cfdigold/internal/alert"
	"github.com/rumor-ml/cfdigold/internal/config"
	"github.com/rumor-ml/cfdigold/internal/domain"
	"github.com/rumor-ml/cfdigold/internal/enrich"
	"github.com/rumor-ml/cfdigold/internal/finance"
	"github.com/rumor-ml/cfdigold/internal/forensics"
	"github.com/rumor-ml/cfdigold/internal/loader"
	"github.com/rumor-ml/cfdigold/internal/store"
	"github.com/rumor-ml/cfdigold/internal/taxes"
)

// Source table filenames inside the data directory.
const (
	FileInvoices     = "cfdis.csv"
	FileTaxHeaders   = "cfdi_comprobante_impuestos.csv"
	FileTraslados    = "cfdi_comprobante_traslados.csv"
	FileRetenciones  = "cfdi_comprobante_retenciones.csv"
	FileEmisores     = "cfdi_emisors.csv"
	FileReceptores   = "cfdi_receptors.csv"
	alertSubject     = "Alertas Forenses CFDI"
	cancelChartTitle = "Tendencia de Facturas Canceladas"
	cancelChartFile  = "alerta_cancelaciones.png"
)

// Pipeline runs the full batch for one tenant.
type Pipeline struct {
	cfg        *config.Config
	logger     *zap.Logger
	dispatcher *alert.Dispatcher
	writer     *store.Mongo
}

// Result summarizes one completed run.
type Result struct {
	RunID        string
	Records      int
	Duplicates   int
	Alerts       []domain.Alert
	SnapshotPath string
	// Store is nil when no store is configured or the store was
	// unreachable (both non-fatal).
	Store *store.UpsertResult
}

// New wires a pipeline from configuration. The dispatcher and store
// writer honor the "not configured" fallbacks on their own.
func New(cfg *config.Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		dispatcher: alert.NewDispatcher(cfg.SMTP, logger),
		writer:     store.NewMongo(cfg.MongoURI, cfg.Database, cfg.Collection, logger),
	}
}

// Run executes the batch. The only fatal preconditions are a missing or
// undecodable primary invoice table and a snapshot write failure; every
// secondary input degrades to zero/blank defaults and external failures
// (store, mail) are logged and absorbed.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))
	log.Info("starting migration pipeline", zap.String("data_dir", p.cfg.DataDir))

	// Load. Invoices are the hard precondition; the rest degrade.
	invoiceTable, err := loader.Load(p.cfg.DataDir, FileInvoices)
	if err != nil {
		if errors.Is(err, loader.ErrNotFound) {
			return nil, fmt.Errorf("primary invoice table missing, aborting: %w", err)
		}
		return nil, fmt.Errorf("failed to load primary invoice table: %w", err)
	}

	headerTable := p.loadOptional(log, FileTaxHeaders)
	trasladoTable := p.loadOptional(log, FileTraslados)
	retencionTable := p.loadOptional(log, FileRetenciones)
	emisorTable := p.loadOptional(log, FileEmisores)
	receptorTable := p.loadOptional(log, FileReceptores)

	invoices, err := loader.Invoices(invoiceTable)
	if err != nil {
		return nil, fmt.Errorf("failed to decode invoice table: %w", err)
	}
	log.Info("invoices loaded", zap.Int("count", len(invoices)))

	// Aggregate taxes up to the invoices. Absent tables decode to empty
	// slices and every aggregate zero-fills.
	taxes.Aggregate(invoices,
		loader.TaxHeaders(headerTable),
		loader.TaxLines(trasladoTable),
		loader.TaxLines(retencionTable),
		p.cfg.TaxCodes)

	// Enrich from catalogs; a catalog without a usable name column is
	// skipped, not fatal.
	useRFC := false
	if hasRFC, err := enrich.Emisores(invoices, emisorTable, p.cfg.EmisorMapping); err != nil {
		log.Warn("emisor catalog enrichment skipped", zap.Error(err))
	} else {
		useRFC = hasRFC
	}
	if err := enrich.Receptores(invoices, receptorTable, p.cfg.ReceptorMapping); err != nil {
		log.Warn("receptor catalog enrichment skipped", zap.Error(err))
	}

	enrich.Stamp(invoices, p.cfg.CompanyID)
	log.Info("targeting company", zap.String("company_id", p.cfg.CompanyID))

	finance.Calculate(invoices)
	log.Info("records processed", zap.Int("count", len(invoices)))

	// Forensics and the alert side channel.
	analyzer := &forensics.Analyzer{SpikeThreshold: p.cfg.SpikeThreshold, UseRFC: useRFC}
	report := analyzer.Run(invoices)
	p.dispatch(log, report)

	result := &Result{
		RunID:   runID,
		Records: len(invoices),
		Alerts:  report.Alerts,
	}
	for i := range invoices {
		if invoices[i].IsDuplicate {
			result.Duplicates++
		}
	}

	// The snapshot is the run's durability guarantee; write it before
	// attempting the store.
	snapshotPath, err := store.WriteSnapshot(invoices, p.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to write output snapshot: %w", err)
	}
	result.SnapshotPath = snapshotPath
	log.Info("snapshot written", zap.String("path", snapshotPath))

	upserted, err := p.writer.Upsert(ctx, invoices)
	switch {
	case errors.Is(err, store.ErrNotConfigured):
		log.Warn("no store configured, snapshot is the run output")
	case err != nil:
		log.Error("store write failed, snapshot retained", zap.Error(err))
	default:
		result.Store = upserted
	}

	log.Info("pipeline complete",
		zap.Int("records", result.Records),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("alerts", len(result.Alerts)))
	return result, nil
}

// loadOptional loads a secondary table, returning nil (degrade to
// defaults) when it is missing or unreadable.
func (p *Pipeline) loadOptional(log *zap.Logger, name string) *loader.Table {
	t, err := loader.Load(p.cfg.DataDir, name)
	if err != nil {
		if errors.Is(err, loader.ErrNotFound) {
			log.Warn("optional table missing, using defaults", zap.String("table", name))
		} else {
			log.Error("optional table unreadable, using defaults",
				zap.String("table", name), zap.Error(err))
		}
		return nil
	}
	return t
}

// dispatch sends the run's alerts as one email, rendering and cleaning up
// the cancellation chart when the spike rule asked for one.
func (p *Pipeline) dispatch(log *zap.Logger, report forensics.Report) {
	if len(report.Alerts) == 0 {
		return
	}

	chartPath := ""
	if s := report.CancellationSeries; s != nil {
		path, err := alert.RenderBarChart(cancelChartTitle, cancelChartFile, s.Months(), s.Values())
		if err != nil {
			log.Error("failed to render cancellation chart", zap.Error(err))
		} else {
			chartPath = path
		}
	}

	messages := make([]string, 0, len(report.Alerts))
	for _, a := range report.Alerts {
		messages = append(messages, a.Message)
	}

	// Dispatch never fails the batch; errors are logged inside.
	_ = p.dispatcher.Dispatch(alertSubject, strings.Join(messages, "\n\n"), chartPath)

	if chartPath != "" {
		if err := os.Remove(chartPath); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove chart file", zap.String("path", chartPath), zap.Error(err))
		}
	}
}
