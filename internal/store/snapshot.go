package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rumor-ml/cfdigold/internal/domain"
)

// SnapshotFilename is the local JSON artifact written into the data
// directory.
const SnapshotFilename = "gold_cfdi_processed.json"

// WriteSnapshot serializes the enriched record set to <dir>/gold_cfdi_processed.json
// as a single JSON array of row objects. Written atomically (temp file +
// rename) so a crashed run never leaves a half snapshot behind. Returns
// the path written.
func WriteSnapshot(invoices []domain.Invoice, dir string) (string, error) {
	docs := make([]map[string]any, 0, len(invoices))
	for i := range invoices {
		docs = append(docs, Document(&invoices[i]))
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	path := filepath.Join(dir, SnapshotFilename)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to finalize snapshot %s: %w", path, err)
	}

	return path, nil
}
