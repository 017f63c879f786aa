// Package domain defines the typed records flowing through the pipeline.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Invoice is one source CFDI row plus every field the pipeline derives.
// Field names mirror the source extract columns (snake_case Spanish) in
// their json/bson tags so the persisted document matches the upstream
// schema the dashboard reads.
type Invoice struct {
	ID         string `json:"id" bson:"id"`
	UUID       string `json:"uuid,omitempty" bson:"uuid,omitempty"`
	EmisorID   string `json:"emisor_id" bson:"emisor_id"`
	ReceptorID string `json:"receptor_id" bson:"receptor_id"`

	// FechaEmision is the emission timestamp exactly as ingested; Emitted is
	// the parsed form and stays zero when the raw text is unparseable.
	FechaEmision string    `json:"fecha_emision" bson:"fecha_emision"`
	Emitted      time.Time `json:"-" bson:"-"`

	Tipo       string `json:"tipo,omitempty" bson:"tipo,omitempty"`
	Moneda     string `json:"moneda,omitempty" bson:"moneda,omitempty"`
	FormaPago  string `json:"forma_pago,omitempty" bson:"forma_pago,omitempty"`
	MetodoPago string `json:"metodo_pago,omitempty" bson:"metodo_pago,omitempty"`
	Estatus    string `json:"estatus,omitempty" bson:"estatus,omitempty"`

	Subtotal  float64 `json:"subtotal" bson:"subtotal"`
	Descuento float64 `json:"descuento" bson:"descuento"`
	Total     float64 `json:"total" bson:"total"`

	// Enrichment fields, stamped by the pipeline.
	CompanyID      string `json:"company_id" bson:"company_id"`
	EmisorNombre   string `json:"emisor_nombre,omitempty" bson:"emisor_nombre,omitempty"`
	EmisorRFC      string `json:"emisor_rfc,omitempty" bson:"emisor_rfc,omitempty"`
	ReceptorNombre string `json:"receptor_nombre,omitempty" bson:"receptor_nombre,omitempty"`

	// Tax aggregates. Always populated, 0.0 when the invoice has no detail
	// lines (never null downstream).
	CalcTraslados   float64 `json:"calc_traslados" bson:"calc_traslados"`
	CalcIVA         float64 `json:"calc_iva" bson:"calc_iva"`
	CalcIEPS        float64 `json:"calc_ieps" bson:"calc_ieps"`
	CalcRetenciones float64 `json:"calc_retenciones" bson:"calc_retenciones"`
	CalcRetISR      float64 `json:"calc_ret_isr" bson:"calc_ret_isr"`
	CalcRetIVA      float64 `json:"calc_ret_iva" bson:"calc_ret_iva"`

	VentasBrutas float64 `json:"ventas_brutas" bson:"ventas_brutas"`
	VentasNetas  float64 `json:"ventas_netas" bson:"ventas_netas"`

	IsDuplicate bool   `json:"is_duplicate" bson:"is_duplicate"`
	MonthYear   string `json:"month_year,omitempty" bson:"month_year,omitempty"`
}

// NaturalKey returns the business identifier used for upsert matching:
// the document UUID when present, the internal row id otherwise.
func (inv *Invoice) NaturalKey() (field, value string) {
	if inv.UUID != "" {
		return "uuid", inv.UUID
	}
	return "id", inv.ID
}

// Cancelled reports whether the status text marks the invoice as cancelled.
// Substring match, case handled by normalization upstream.
func (inv *Invoice) Cancelled() bool {
	return strings.Contains(strings.ToLower(inv.Estatus), "cancel")
}

// Month returns the calendar-month bucket key (YYYY-MM) for the emission
// timestamp, or "" when the timestamp never parsed.
func (inv *Invoice) Month() string {
	if inv.Emitted.IsZero() {
		return ""
	}
	return inv.Emitted.Format("2006-01")
}

// TaxHeader links an invoice to its tax detail lines. Consumed during
// aggregation only, never persisted.
type TaxHeader struct {
	ID     string
	CFDIID string
}

// TaxLine is a single charge or withholding row. Owned by exactly one
// TaxHeader via HeaderID. Whether it is a charge or a withholding is
// decided by which extract table it came from, not by a field.
type TaxLine struct {
	HeaderID string
	Impuesto string
	Importe  float64
}

// Alert is a forensic finding. Alerts are data-quality signals, not
// pipeline failures.
type Alert struct {
	Metric  string
	Message string
	// Change is the month-over-month fractional change that triggered the
	// alert; 0 for findings without a rate (duplicates).
	Change float64
}

// NewAlert creates a validated alert.
func NewAlert(metric, message string, change float64) (*Alert, error) {
	if metric == "" {
		return nil, fmt.Errorf("alert metric cannot be empty")
	}
	if message == "" {
		return nil, fmt.Errorf("alert message cannot be empty")
	}
	return &Alert{Metric: metric, Message: message, Change: change}, nil
}

// emissionLayouts are the timestamp shapes seen in the extracts, tried in
// order.
var emissionLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"02/01/2006",
}

// ParseEmission parses an emission timestamp, trying the known extract
// layouts. Returns the zero time and false when nothing matches; callers
// coerce rather than fail (the row keeps its raw text either way).
func ParseEmission(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range emissionLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
