package finance

import (
	"math"
	"testing"

	"github.com/rumor-ml/cfdigold/internal/domain"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name           string
		invoice        domain.Invoice
		expectedBrutas float64
		expectedNetas  float64
	}{
		{
			name: "charges and withholdings",
			invoice: domain.Invoice{
				Subtotal:        1000,
				Descuento:       50,
				CalcTraslados:   160,
				CalcRetenciones: 106.67,
			},
			expectedBrutas: 1000,
			expectedNetas:  1003.33,
		},
		{
			name:           "no tax lines nets to subtotal minus discount",
			invoice:        domain.Invoice{Subtotal: 500, Descuento: 25},
			expectedBrutas: 500,
			expectedNetas:  475,
		},
		{
			name:           "zero invoice",
			invoice:        domain.Invoice{},
			expectedBrutas: 0,
			expectedNetas:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoices := []domain.Invoice{tt.invoice}
			Calculate(invoices)

			if math.Abs(invoices[0].VentasBrutas-tt.expectedBrutas) > 1e-9 {
				t.Errorf("ventas_brutas = %v; want %v", invoices[0].VentasBrutas, tt.expectedBrutas)
			}
			if math.Abs(invoices[0].VentasNetas-tt.expectedNetas) > 1e-9 {
				t.Errorf("ventas_netas = %v; want %v", invoices[0].VentasNetas, tt.expectedNetas)
			}
		})
	}
}

func TestCalculateIdentityHolds(t *testing.T) {
	// net_sales == (subtotal + calc_traslados) - (calc_retenciones + descuento)
	invoices := []domain.Invoice{
		{Subtotal: 86.21, CalcTraslados: 13.79, CalcRetenciones: 0, Descuento: 0},
		{Subtotal: 120, CalcTraslados: 19.2, CalcRetenciones: 12.8, Descuento: 6},
	}
	Calculate(invoices)

	for i, inv := range invoices {
		want := (inv.Subtotal + inv.CalcTraslados) - (inv.CalcRetenciones + inv.Descuento)
		if math.Abs(inv.VentasNetas-want) > 1e-9 {
			t.Errorf("invoice %d: ventas_netas = %v; want %v", i, inv.VentasNetas, want)
		}
	}
}
