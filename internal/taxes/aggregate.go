// Package taxes rolls tax detail lines up to their parent invoices.
package taxes

import (
	"strings"

	"github.com/rumor-ml/cfdigold/internal/domain"
)

// Codes maps tax-code families to the substrings that identify them in the
// impuesto column of a detail line. The SAT catalog values are "001"
// (income-tax withholding, ISR), "002" (general consumption tax, IVA) and
// "003" (excise, IEPS); they are parameters so a deployment can follow a
// catalog revision without a code change.
type Codes struct {
	ISR  string `yaml:"isr"`
	IVA  string `yaml:"iva"`
	IEPS string `yaml:"ieps"`
}

// DefaultCodes returns the standard SAT tax-code families.
func DefaultCodes() Codes {
	return Codes{ISR: "001", IVA: "002", IEPS: "003"}
}

// Aggregate joins charge and withholding lines to invoices through the tax
// header table and writes the six per-invoice sums in place. The join is
// invoice-preserving: an invoice with no matching lines keeps all sums at
// 0.0, and an entirely absent header or detail table degrades the same
// way. Detail lines whose header id resolves to no known invoice are
// dropped (orphan rows in the extract).
func Aggregate(invoices []domain.Invoice, headers []domain.TaxHeader, traslados, retenciones []domain.TaxLine, codes Codes) {
	// header id -> invoice id
	headerToInvoice := make(map[string]string, len(headers))
	for _, h := range headers {
		headerToInvoice[h.ID] = h.CFDIID
	}

	type sums struct {
		traslados, iva, ieps   float64
		retenciones, isr, rIVA float64
	}
	byInvoice := make(map[string]*sums)
	get := func(invoiceID string) *sums {
		s, ok := byInvoice[invoiceID]
		if !ok {
			s = &sums{}
			byInvoice[invoiceID] = s
		}
		return s
	}

	for _, line := range traslados {
		invoiceID, ok := headerToInvoice[line.HeaderID]
		if !ok {
			continue
		}
		s := get(invoiceID)
		s.traslados += line.Importe
		if matchesCode(line.Impuesto, codes.IVA) {
			s.iva += line.Importe
		}
		if matchesCode(line.Impuesto, codes.IEPS) {
			s.ieps += line.Importe
		}
	}

	for _, line := range retenciones {
		invoiceID, ok := headerToInvoice[line.HeaderID]
		if !ok {
			continue
		}
		s := get(invoiceID)
		s.retenciones += line.Importe
		if matchesCode(line.Impuesto, codes.ISR) {
			s.isr += line.Importe
		}
		if matchesCode(line.Impuesto, codes.IVA) {
			s.rIVA += line.Importe
		}
	}

	for i := range invoices {
		s, ok := byInvoice[invoices[i].ID]
		if !ok {
			// Explicit zero-fill keeps the invariant visible even though the
			// struct fields already default to 0.
			invoices[i].CalcTraslados = 0
			invoices[i].CalcIVA = 0
			invoices[i].CalcIEPS = 0
			invoices[i].CalcRetenciones = 0
			invoices[i].CalcRetISR = 0
			invoices[i].CalcRetIVA = 0
			continue
		}
		invoices[i].CalcTraslados = s.traslados
		invoices[i].CalcIVA = s.iva
		invoices[i].CalcIEPS = s.ieps
		invoices[i].CalcRetenciones = s.retenciones
		invoices[i].CalcRetISR = s.isr
		invoices[i].CalcRetIVA = s.rIVA
	}
}

// matchesCode reports whether a detail line's impuesto value belongs to a
// tax-code family. Substring match: the extracts carry both bare codes
// ("002") and prefixed ones ("IVA 002").
func matchesCode(impuesto, code string) bool {
	if code == "" {
		return false
	}
	return strings.Contains(impuesto, code)
}
