// Package enrich attaches catalog display names and tax IDs to invoices
// and stamps the tenant identifier.
package enrich

import (
	"errors"

	"github.com/rumor-ml/cfdigold/internal/domain"
	"github.com/rumor-ml/cfdigold/internal/loader"
)

// ErrNoNameColumn signals that a catalog has no recognizable name column.
// Callers treat it as "skip this catalog", not as a pipeline failure.
var ErrNoNameColumn = errors.New("catalog has no name column")

// Mapping names the columns to read from a catalog. Empty fields fall back
// to substring auto-detection on the catalog header ("nombre"/"razon" for
// the name, "rfc" for the tax ID). Production configurations should set
// the columns explicitly; auto-detect exists for exploratory runs against
// unknown extracts.
type Mapping struct {
	IDColumn   string `yaml:"id_column"`
	NameColumn string `yaml:"name_column"`
	RFCColumn  string `yaml:"rfc_column"`
}

// resolved holds the per-id lookup built from one catalog.
type resolved struct {
	names  map[string]string
	rfcs   map[string]string
	hasRFC bool
}

// resolve locates the catalog columns and builds the id lookups.
func resolve(t *loader.Table, m Mapping) (*resolved, error) {
	if t == nil {
		return nil, ErrNoNameColumn
	}

	idCol := t.Col(m.IDColumn)
	if idCol < 0 {
		idCol = t.Col("id")
	}
	if idCol < 0 {
		return nil, ErrNoNameColumn
	}

	nameCol := t.Col(m.NameColumn)
	if nameCol < 0 {
		nameCol = t.FindColumn("nombre", "razon")
	}
	if nameCol < 0 {
		return nil, ErrNoNameColumn
	}

	rfcCol := t.Col(m.RFCColumn)
	if rfcCol < 0 {
		rfcCol = t.FindColumn("rfc")
	}

	r := &resolved{
		names:  make(map[string]string, t.Len()),
		rfcs:   make(map[string]string, t.Len()),
		hasRFC: rfcCol >= 0,
	}
	for _, row := range t.Rows {
		id := t.Get(row, idCol)
		if id == "" {
			continue
		}
		r.names[id] = t.Get(row, nameCol)
		if rfcCol >= 0 {
			r.rfcs[id] = t.Get(row, rfcCol)
		}
	}
	return r, nil
}

// Emisores joins the issuer catalog onto the invoices (left join: an
// unmatched EmisorID leaves the enrichment blank, the row survives).
// Returns whether the catalog exposed an RFC column, which decides the
// issuer key the duplicate triad uses downstream.
func Emisores(invoices []domain.Invoice, catalog *loader.Table, m Mapping) (hasRFC bool, err error) {
	r, err := resolve(catalog, m)
	if err != nil {
		return false, err
	}
	for i := range invoices {
		invoices[i].EmisorNombre = r.names[invoices[i].EmisorID]
		if r.hasRFC {
			invoices[i].EmisorRFC = r.rfcs[invoices[i].EmisorID]
		}
	}
	return r.hasRFC, nil
}

// Receptores joins the recipient catalog onto the invoices. Same left-join
// contract as Emisores; recipients carry no RFC in the extracts.
func Receptores(invoices []domain.Invoice, catalog *loader.Table, m Mapping) error {
	r, err := resolve(catalog, m)
	if err != nil {
		return err
	}
	for i := range invoices {
		invoices[i].ReceptorNombre = r.names[invoices[i].ReceptorID]
	}
	return nil
}

// Stamp sets the tenant identifier on every row. One tenant per run.
func Stamp(invoices []domain.Invoice, companyID string) {
	for i := range invoices {
		invoices[i].CompanyID = companyID
	}
}
