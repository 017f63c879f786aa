// Package forensics flags duplicate invoice candidates and detects
// month-over-month spikes in withholding totals and cancellation counts.
package forensics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rumor-ml/cfdigold/internal/domain"
)

// DefaultSpikeThreshold is the fractional month-over-month increase above
// which a metric alert fires (strictly greater than).
const DefaultSpikeThreshold = 0.20

// Analyzer runs the forensic rules over an enriched invoice set.
type Analyzer struct {
	// SpikeThreshold is the fractional change a monthly metric must exceed.
	SpikeThreshold float64
	// UseRFC selects the issuer key for the duplicate triad: the issuer
	// RFC when the emisor catalog exposed one, the internal issuer id
	// otherwise. The id fallback conflates "same issuer" with "same
	// catalog row" across reloads; it is kept as a documented heuristic,
	// matching the upstream behavior.
	UseRFC bool
}

// Report is the outcome of one analysis pass.
type Report struct {
	Alerts []domain.Alert
	// CancellationSeries is set when the cancellation spike fired; the
	// dispatcher renders it as the chart attachment.
	CancellationSeries *MonthlySeries
}

// NewAnalyzer returns an analyzer with the default threshold.
func NewAnalyzer(useRFC bool) *Analyzer {
	return &Analyzer{SpikeThreshold: DefaultSpikeThreshold, UseRFC: useRFC}
}

// Run stamps month buckets, flags duplicates in place, and evaluates both
// spike rules. Findings are alerts, never errors.
func (a *Analyzer) Run(invoices []domain.Invoice) Report {
	for i := range invoices {
		invoices[i].MonthYear = invoices[i].Month()
	}

	var report Report

	if alert := FlagDuplicates(invoices, a.UseRFC); alert != nil {
		report.Alerts = append(report.Alerts, *alert)
	}

	retenciones := MonthlySum(invoices, func(inv *domain.Invoice) float64 { return inv.CalcRetenciones })
	if change, ok := retenciones.LatestChange(); ok && change > a.SpikeThreshold {
		report.Alerts = append(report.Alerts, domain.Alert{
			Metric: "retenciones",
			Message: fmt.Sprintf("Incremento Atípico de Retenciones: %s de aumento en %s",
				formatPct(change), retenciones.LastMonth()),
			Change: change,
		})
	}

	cancelled := MonthlyCount(invoices, func(inv *domain.Invoice) bool { return inv.Cancelled() })
	if change, ok := cancelled.LatestChange(); ok && change > a.SpikeThreshold {
		report.Alerts = append(report.Alerts, domain.Alert{
			Metric: "cancelaciones",
			Message: fmt.Sprintf("Incremento Atípico de Cancelaciones: %s de aumento en %s",
				formatPct(change), cancelled.LastMonth()),
			Change: change,
		})
		report.CancellationSeries = cancelled
	}

	return report
}

// triadKey is the exact-match duplicate heuristic: amount, emission
// timestamp as ingested, and the issuer key.
func triadKey(inv *domain.Invoice, useRFC bool) string {
	issuer := inv.EmisorID
	if useRFC {
		issuer = inv.EmisorRFC
	}
	return fmt.Sprintf("%.2f|%s|%s", inv.Total, inv.FechaEmision, issuer)
}

// FlagDuplicates marks every member of a shared triad as a duplicate
// candidate (symmetric: all members of a group with more than one row are
// flagged; rows are retained, never dropped). Returns an alert listing up
// to ten offending triads, or nil when the set is clean.
func FlagDuplicates(invoices []domain.Invoice, useRFC bool) *domain.Alert {
	counts := make(map[string]int, len(invoices))
	for i := range invoices {
		counts[triadKey(&invoices[i], useRFC)]++
	}

	var flagged []string
	seen := make(map[string]bool)
	for i := range invoices {
		key := triadKey(&invoices[i], useRFC)
		if counts[key] > 1 {
			invoices[i].IsDuplicate = true
			if !seen[key] {
				seen[key] = true
				flagged = append(flagged, key)
			}
		} else {
			invoices[i].IsDuplicate = false
		}
	}

	if len(flagged) == 0 {
		return nil
	}

	sort.Strings(flagged)
	if len(flagged) > 10 {
		flagged = flagged[:10]
	}
	return &domain.Alert{
		Metric: "duplicados",
		Message: fmt.Sprintf("Posibles Duplicados Detectados (total|fecha|emisor):\n%s",
			strings.Join(flagged, "\n")),
	}
}

func formatPct(change float64) string {
	return fmt.Sprintf("%+.1f%%", change*100)
}
