package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rumor-ml/cfdigold/internal/enrich"
	"github.com/rumor-ml/cfdigold/internal/taxes"
)

// MappingFile is the YAML document that pins catalog column names and rule
// parameters per deployment. Every section is optional; omitted values
// keep the Config defaults (and catalogs without a pinned mapping use
// substring auto-detection).
//
//	catalogs:
//	  emisores:
//	    name_column: razon_social
//	    rfc_column: rfc
//	  receptores:
//	    name_column: nombre
//	tax_codes:
//	  isr: "001"
//	  iva: "002"
//	  ieps: "003"
//	thresholds:
//	  spike_pct: 0.20
type MappingFile struct {
	Catalogs struct {
		Emisores   enrich.Mapping `yaml:"emisores"`
		Receptores enrich.Mapping `yaml:"receptores"`
	} `yaml:"catalogs"`
	TaxCodes   *taxes.Codes `yaml:"tax_codes"`
	Thresholds struct {
		SpikePct *float64 `yaml:"spike_pct"`
	} `yaml:"thresholds"`
}

// ApplyMappingFile reads the YAML mapping file at path and overlays it on
// the configuration.
func (c *Config) ApplyMappingFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read mapping file: %w", err)
	}
	return c.applyMapping(data, path)
}

func (c *Config) applyMapping(data []byte, source string) error {
	var mf MappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return fmt.Errorf("failed to parse mapping file %s (check YAML syntax and field names): %w", source, err)
	}

	c.EmisorMapping = mf.Catalogs.Emisores
	c.ReceptorMapping = mf.Catalogs.Receptores

	if mf.TaxCodes != nil {
		if mf.TaxCodes.ISR == "" || mf.TaxCodes.IVA == "" || mf.TaxCodes.IEPS == "" {
			return fmt.Errorf("mapping file %s: tax_codes must set isr, iva and ieps", source)
		}
		c.TaxCodes = *mf.TaxCodes
	}

	if mf.Thresholds.SpikePct != nil {
		if *mf.Thresholds.SpikePct <= 0 {
			return fmt.Errorf("mapping file %s: spike_pct must be positive, got %f", source, *mf.Thresholds.SpikePct)
		}
		c.SpikeThreshold = *mf.Thresholds.SpikePct
	}

	return nil
}
