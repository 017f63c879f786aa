package loader

import (
	"fmt"

	"github.com/rumor-ml/cfdigold/internal/domain"
	"github.com/rumor-ml/cfdigold/internal/normalize"
)

// Invoices decodes the primary invoice table into typed records. Money
// columns go through normalize.CleanMoney and categorical columns through
// normalize.Text; a cell that fails money coercion zeroes the field rather
// than aborting the batch (best-effort typing, per the extract contract).
func Invoices(t *Table) ([]domain.Invoice, error) {
	if t == nil {
		return nil, fmt.Errorf("invoice table cannot be nil")
	}

	var (
		idCol         = t.Col("id")
		uuidCol       = t.Col("uuid")
		emisorCol     = t.Col("emisor_id")
		receptorCol   = t.Col("receptor_id")
		fechaCol      = t.Col("fecha_emision")
		tipoCol       = t.Col("tipo")
		monedaCol     = t.Col("moneda")
		formaPagoCol  = t.Col("forma_pago")
		metodoPagoCol = t.Col("metodo_pago")
		estatusCol    = t.Col("estatus")
		subtotalCol   = t.Col("subtotal")
		descuentoCol  = t.Col("descuento")
		totalCol      = t.Col("total")
	)

	if idCol < 0 {
		return nil, fmt.Errorf("invoice table %s has no id column", t.Name)
	}

	invoices := make([]domain.Invoice, 0, t.Len())
	for _, row := range t.Rows {
		if len(row) == 0 {
			continue
		}

		inv := domain.Invoice{
			ID:           t.Get(row, idCol),
			UUID:         t.Get(row, uuidCol),
			EmisorID:     t.Get(row, emisorCol),
			ReceptorID:   t.Get(row, receptorCol),
			FechaEmision: t.Get(row, fechaCol),
			Tipo:         normalize.Text(t.Get(row, tipoCol)),
			Moneda:       normalize.Text(t.Get(row, monedaCol)),
			FormaPago:    normalize.Text(t.Get(row, formaPagoCol)),
			MetodoPago:   normalize.Text(t.Get(row, metodoPagoCol)),
			Estatus:      normalize.Text(t.Get(row, estatusCol)),
		}
		if inv.ID == "" {
			continue
		}

		inv.Subtotal = moneyOrZero(t.Get(row, subtotalCol))
		inv.Descuento = moneyOrZero(t.Get(row, descuentoCol))
		inv.Total = moneyOrZero(t.Get(row, totalCol))

		if emitted, ok := domain.ParseEmission(inv.FechaEmision); ok {
			inv.Emitted = emitted
		}

		invoices = append(invoices, inv)
	}

	return invoices, nil
}

// TaxHeaders decodes the tax-header link table (id, cfdi_id). A nil table
// yields an empty slice: the header table is optional input.
func TaxHeaders(t *Table) []domain.TaxHeader {
	if t == nil {
		return nil
	}
	idCol, cfdiCol := t.Col("id"), t.Col("cfdi_id")
	if idCol < 0 || cfdiCol < 0 {
		return nil
	}

	headers := make([]domain.TaxHeader, 0, t.Len())
	for _, row := range t.Rows {
		h := domain.TaxHeader{ID: t.Get(row, idCol), CFDIID: t.Get(row, cfdiCol)}
		if h.ID == "" {
			continue
		}
		headers = append(headers, h)
	}
	return headers
}

// TaxLines decodes a charge or withholding detail table. The foreign key
// column is cfdi_comprobante_impuestos_id in both extracts.
func TaxLines(t *Table) []domain.TaxLine {
	if t == nil {
		return nil
	}
	headerCol := t.Col("cfdi_comprobante_impuestos_id")
	impuestoCol := t.Col("impuesto")
	importeCol := t.Col("importe")
	if headerCol < 0 || importeCol < 0 {
		return nil
	}

	lines := make([]domain.TaxLine, 0, t.Len())
	for _, row := range t.Rows {
		line := domain.TaxLine{
			HeaderID: t.Get(row, headerCol),
			Impuesto: t.Get(row, impuestoCol),
			Importe:  moneyOrZero(t.Get(row, importeCol)),
		}
		if line.HeaderID == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func moneyOrZero(s string) float64 {
	v, err := normalize.CleanMoney(s)
	if err != nil {
		return 0
	}
	return v
}
