// Package finance derives the sales figures from normalized invoices.
package finance

import "github.com/rumor-ml/cfdigold/internal/domain"

// Calculate writes the derived sales fields in place:
//
//	ventas_brutas = subtotal
//	ventas_netas  = (subtotal + calc_traslados) - (calc_retenciones + descuento)
//
// The tax aggregates are zero-filled upstream, so an invoice with no tax
// detail lines still nets out to subtotal - descuento.
func Calculate(invoices []domain.Invoice) {
	for i := range invoices {
		inv := &invoices[i]
		inv.VentasBrutas = inv.Subtotal
		inv.VentasNetas = (inv.Subtotal + inv.CalcTraslados) - (inv.CalcRetenciones + inv.Descuento)
	}
}
