// Package store persists the enriched record set: a Mongo upsert keyed on
// the natural unique identifier when a store is configured, and a local
// JSON snapshot otherwise (and as the durability guarantee either way).
package store

import (
	"math"
	"time"

	"github.com/rumor-ml/cfdigold/internal/domain"
)

// Document flattens an enriched invoice into the field map written to the
// store. NaN/Inf numerics and blank optional text are stripped so an
// upsert never overwrites prior values with explicit nulls. The emission
// date is ISO-formatted when it parsed; the raw extract text is kept
// otherwise.
func Document(inv *domain.Invoice) map[string]any {
	doc := map[string]any{
		"id":         inv.ID,
		"company_id": inv.CompanyID,
	}

	putText := func(key, value string) {
		if value != "" {
			doc[key] = value
		}
	}
	putNumber := func(key string, value float64) {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return
		}
		doc[key] = value
	}

	putText("uuid", inv.UUID)
	putText("emisor_id", inv.EmisorID)
	putText("receptor_id", inv.ReceptorID)

	if !inv.Emitted.IsZero() {
		doc["fecha_emision"] = inv.Emitted.Format(time.RFC3339)
	} else {
		putText("fecha_emision", inv.FechaEmision)
	}

	putText("tipo", inv.Tipo)
	putText("moneda", inv.Moneda)
	putText("forma_pago", inv.FormaPago)
	putText("metodo_pago", inv.MetodoPago)
	putText("estatus", inv.Estatus)

	putNumber("subtotal", inv.Subtotal)
	putNumber("descuento", inv.Descuento)
	putNumber("total", inv.Total)

	putText("emisor_nombre", inv.EmisorNombre)
	putText("emisor_rfc", inv.EmisorRFC)
	putText("receptor_nombre", inv.ReceptorNombre)

	putNumber("calc_traslados", inv.CalcTraslados)
	putNumber("calc_iva", inv.CalcIVA)
	putNumber("calc_ieps", inv.CalcIEPS)
	putNumber("calc_retenciones", inv.CalcRetenciones)
	putNumber("calc_ret_isr", inv.CalcRetISR)
	putNumber("calc_ret_iva", inv.CalcRetIVA)

	putNumber("ventas_brutas", inv.VentasBrutas)
	putNumber("ventas_netas", inv.VentasNetas)

	doc["is_duplicate"] = inv.IsDuplicate
	// Period-typed upstream; persisted as plain text.
	putText("month_year", inv.MonthYear)

	return doc
}

// NaturalKey picks the upsert key for the whole record set: "uuid" when
// any record carries a document UUID, "id" otherwise. One key for the
// batch so the uniqueness constraint is well defined.
func NaturalKey(invoices []domain.Invoice) string {
	for i := range invoices {
		if invoices[i].UUID != "" {
			return "uuid"
		}
	}
	return "id"
}
