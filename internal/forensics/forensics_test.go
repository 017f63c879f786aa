package forensics

import (
	"strings"
	"testing"
	"time"

	"github.com/rumor-ml/cfdigold/internal/domain"
)

func invoiceOn(id string, total float64, fecha string, emisorID, rfc string) domain.Invoice {
	inv := domain.Invoice{
		ID:           id,
		Total:        total,
		FechaEmision: fecha,
		EmisorID:     emisorID,
		EmisorRFC:    rfc,
	}
	if t, ok := domain.ParseEmission(fecha); ok {
		inv.Emitted = t
	}
	return inv
}

func TestFlagDuplicatesSymmetric(t *testing.T) {
	invoices := []domain.Invoice{
		invoiceOn("1", 100, "2026-01-05", "10", "AAA010101AAA"),
		invoiceOn("2", 100, "2026-01-05", "10", "AAA010101AAA"), // same triad as 1
		invoiceOn("3", 100, "2026-01-06", "10", "AAA010101AAA"), // different date
		invoiceOn("4", 250, "2026-01-05", "11", "BBB020202BBB"),
	}

	alert := FlagDuplicates(invoices, true)
	if alert == nil {
		t.Fatalf("expected a duplicate alert")
	}

	if !invoices[0].IsDuplicate || !invoices[1].IsDuplicate {
		t.Errorf("both members of a shared triad must be flagged: %v %v",
			invoices[0].IsDuplicate, invoices[1].IsDuplicate)
	}
	if invoices[2].IsDuplicate || invoices[3].IsDuplicate {
		t.Errorf("records without a matching sibling must not be flagged")
	}
	if !strings.Contains(alert.Message, "Duplicados") {
		t.Errorf("unexpected alert message: %q", alert.Message)
	}
}

func TestFlagDuplicatesIssuerKeyFallback(t *testing.T) {
	// Same total and date, different internal issuer ids, no RFC: with the
	// id fallback these are distinct triads.
	invoices := []domain.Invoice{
		invoiceOn("1", 100, "2026-01-05", "10", ""),
		invoiceOn("2", 100, "2026-01-05", "11", ""),
	}

	if alert := FlagDuplicates(invoices, false); alert != nil {
		t.Errorf("distinct issuer ids must not collide: %v", alert.Message)
	}

	// With useRFC and both RFCs blank the issuer key collapses and the
	// pair collides. Documented heuristic limitation of the triad.
	if alert := FlagDuplicates(invoices, true); alert == nil {
		t.Errorf("blank RFC key should collapse the pair into one triad")
	}
}

func TestFlagDuplicatesClean(t *testing.T) {
	invoices := []domain.Invoice{
		invoiceOn("1", 100, "2026-01-05", "10", ""),
		invoiceOn("2", 200, "2026-01-05", "10", ""),
	}
	if alert := FlagDuplicates(invoices, false); alert != nil {
		t.Errorf("expected no alert for a clean set, got %v", alert.Message)
	}
	if invoices[0].IsDuplicate || invoices[1].IsDuplicate {
		t.Errorf("clean records must be flagged false")
	}
}

func TestAnalyzerWithholdingSpike(t *testing.T) {
	tests := []struct {
		name        string
		values      []float64 // one invoice per month carrying the sum
		expectAlert bool
	}{
		{name: "plus 100 percent fires", values: []float64{10, 20}, expectAlert: true},
		{name: "plus 10 percent stays quiet", values: []float64{10, 11}, expectAlert: false},
		{name: "zero denominator stays quiet", values: []float64{0, 5}, expectAlert: false},
		{name: "single month stays quiet", values: []float64{10}, expectAlert: false},
		{name: "exactly 20 percent is not strictly greater", values: []float64{10, 12}, expectAlert: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var invoices []domain.Invoice
			base := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
			for i, v := range tt.values {
				month := base.AddDate(0, i, 0)
				invoices = append(invoices, domain.Invoice{
					ID:              string(rune('a' + i)),
					Emitted:         month,
					FechaEmision:    month.Format("2006-01-02"),
					CalcRetenciones: v,
				})
			}

			report := NewAnalyzer(false).Run(invoices)

			found := false
			for _, a := range report.Alerts {
				if a.Metric == "retenciones" {
					found = true
				}
			}
			if found != tt.expectAlert {
				t.Errorf("withholding alert = %v; want %v (alerts: %+v)", found, tt.expectAlert, report.Alerts)
			}
		})
	}
}

func TestAnalyzerCancellationSpike(t *testing.T) {
	// Dec 2025: 10 cancellations, Jan 2026: 20 -> +100%, above 20%.
	var invoices []domain.Invoice
	for i := 0; i < 10; i++ {
		invoices = append(invoices, domain.Invoice{
			ID:      "d" + string(rune('0'+i)),
			Estatus: "cancelado",
			Emitted: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	for i := 0; i < 20; i++ {
		invoices = append(invoices, domain.Invoice{
			ID:      "e" + string(rune('a'+i)),
			Estatus: "cancelado",
			Emitted: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}

	report := NewAnalyzer(false).Run(invoices)

	var cancelAlert *domain.Alert
	for i := range report.Alerts {
		if report.Alerts[i].Metric == "cancelaciones" {
			cancelAlert = &report.Alerts[i]
		}
	}
	if cancelAlert == nil {
		t.Fatalf("expected a cancellation alert, got %+v", report.Alerts)
	}
	if !strings.Contains(cancelAlert.Message, "+100.0%") {
		t.Errorf("expected +100.0%% in message, got %q", cancelAlert.Message)
	}
	if cancelAlert.Change != 1.0 {
		t.Errorf("expected change 1.0, got %v", cancelAlert.Change)
	}

	if report.CancellationSeries == nil {
		t.Fatalf("expected the cancellation series for charting")
	}
	if got := report.CancellationSeries.Values(); len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Errorf("unexpected series values: %v", got)
	}
}

func TestAnalyzerStampsMonthBuckets(t *testing.T) {
	invoices := []domain.Invoice{
		{ID: "1", Emitted: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)},
		{ID: "2"}, // no parseable date
	}

	NewAnalyzer(false).Run(invoices)

	if invoices[0].MonthYear != "2026-01" {
		t.Errorf("expected month_year 2026-01, got %q", invoices[0].MonthYear)
	}
	if invoices[1].MonthYear != "" {
		t.Errorf("expected blank month_year for unparsed date, got %q", invoices[1].MonthYear)
	}
}
