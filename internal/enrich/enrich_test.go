package enrich

import (
	"errors"
	"testing"

	"github.com/rumor-ml/cfdigold/internal/domain"
	"github.com/rumor-ml/cfdigold/internal/loader"
)

func TestEmisoresAutoDetect(t *testing.T) {
	catalog := loader.NewTable("cfdi_emisors.csv",
		[]string{"id", "razon_social", "rfc"},
		[][]string{
			{"10", "ACME SA de CV", "AAA010101AAA"},
			{"11", "Globex SA", "GLO990101BBB"},
		})

	invoices := []domain.Invoice{
		{ID: "1", EmisorID: "10"},
		{ID: "2", EmisorID: "11"},
		{ID: "3", EmisorID: "99"}, // no catalog match
	}

	hasRFC, err := Emisores(invoices, catalog, Mapping{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasRFC {
		t.Errorf("expected hasRFC=true when catalog exposes an rfc column")
	}

	if invoices[0].EmisorNombre != "ACME SA de CV" || invoices[0].EmisorRFC != "AAA010101AAA" {
		t.Errorf("unexpected enrichment for invoice 1: %+v", invoices[0])
	}
	// Left join: unmatched key survives with blank enrichment.
	if invoices[2].EmisorNombre != "" || invoices[2].EmisorRFC != "" {
		t.Errorf("unmatched invoice should have blank enrichment, got %+v", invoices[2])
	}
}

func TestEmisoresExplicitMapping(t *testing.T) {
	// Mapping points at columns auto-detect would never find.
	catalog := loader.NewTable("cfdi_emisors.csv",
		[]string{"clave", "denominacion", "registro_fiscal"},
		[][]string{{"10", "ACME", "AAA010101AAA"}})

	invoices := []domain.Invoice{{ID: "1", EmisorID: "10"}}

	hasRFC, err := Emisores(invoices, catalog, Mapping{
		IDColumn:   "clave",
		NameColumn: "denominacion",
		RFCColumn:  "registro_fiscal",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasRFC {
		t.Errorf("expected hasRFC=true via explicit mapping")
	}
	if invoices[0].EmisorNombre != "ACME" || invoices[0].EmisorRFC != "AAA010101AAA" {
		t.Errorf("unexpected enrichment: %+v", invoices[0])
	}
}

func TestEmisoresNoRFCColumn(t *testing.T) {
	catalog := loader.NewTable("cfdi_emisors.csv",
		[]string{"id", "nombre"},
		[][]string{{"10", "ACME"}})

	invoices := []domain.Invoice{{ID: "1", EmisorID: "10"}}

	hasRFC, err := Emisores(invoices, catalog, Mapping{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasRFC {
		t.Errorf("expected hasRFC=false without an rfc column")
	}
	if invoices[0].EmisorNombre != "ACME" {
		t.Errorf("expected name enrichment, got %+v", invoices[0])
	}
}

func TestEnrichmentSkippedWithoutNameColumn(t *testing.T) {
	tests := []struct {
		name    string
		catalog *loader.Table
	}{
		{name: "nil catalog", catalog: nil},
		{
			name: "no name-like column",
			catalog: loader.NewTable("cfdi_receptors.csv",
				[]string{"id", "clave"}, [][]string{{"20", "x"}}),
		},
		{
			name: "no id column",
			catalog: loader.NewTable("cfdi_receptors.csv",
				[]string{"clave", "nombre"}, [][]string{{"20", "x"}}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoices := []domain.Invoice{{ID: "1", ReceptorID: "20"}}
			err := Receptores(invoices, tt.catalog, Mapping{})
			if !errors.Is(err, ErrNoNameColumn) {
				t.Errorf("expected ErrNoNameColumn, got %v", err)
			}
			if invoices[0].ReceptorNombre != "" {
				t.Errorf("skipped enrichment must leave rows untouched")
			}
		})
	}
}

func TestStamp(t *testing.T) {
	invoices := []domain.Invoice{{ID: "1"}, {ID: "2"}}
	Stamp(invoices, "acme")

	for _, inv := range invoices {
		if inv.CompanyID != "acme" {
			t.Errorf("invoice %s missing company stamp: %q", inv.ID, inv.CompanyID)
		}
	}
}
