// Package loader reads the delimited extract tables the pipeline consumes.
// Files are decoded as UTF-8 with a Latin-1 retry, and a missing file is a
// distinguishable condition (ErrNotFound) rather than a crash: only the
// caller decides which tables are mandatory.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrNotFound marks a table file absent from the data directory.
	ErrNotFound = errors.New("table file not found")
	// ErrDecode marks a file that exists but cannot be read as a table.
	ErrDecode = errors.New("table file cannot be decoded")
)

// Table is a raw delimited table: a header row plus data rows, all text.
// Catalog tables stay in this shape because their schema is
// source-specific; the well-known tables are decoded into domain records
// (see decode.go).
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	colIndex map[string]int
}

// NewTable builds a table and its column lookup.
func NewTable(name string, columns []string, rows [][]string) *Table {
	t := &Table{Name: name, Columns: columns, Rows: rows}
	t.colIndex = make(map[string]int, len(columns))
	for i, c := range columns {
		t.colIndex[strings.ToLower(strings.TrimSpace(c))] = i
	}
	return t
}

// Col returns the index of a column by name (case-insensitive), or -1.
func (t *Table) Col(name string) int {
	if t == nil {
		return -1
	}
	if i, ok := t.colIndex[strings.ToLower(strings.TrimSpace(name))]; ok {
		return i
	}
	return -1
}

// Get returns the trimmed cell value at (row, col), "" when out of range.
func (t *Table) Get(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// FindColumn returns the index of the first column whose name contains any
// of the given substrings (case-insensitive), or -1. This is the
// auto-detect fallback for catalogs whose exact schema varies by source;
// production configurations should prefer an explicit column mapping.
func (t *Table) FindColumn(substrings ...string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		name := strings.ToLower(c)
		for _, sub := range substrings {
			if strings.Contains(name, strings.ToLower(sub)) {
				return i
			}
		}
	}
	return -1
}

// Load reads <dir>/<name> as a comma-separated table. The file is tried as
// UTF-8 first and re-decoded as Latin-1 when it is not valid UTF-8.
// Returns ErrNotFound when the file does not exist and ErrDecode when the
// content cannot be parsed; neither is wrapped in additional context the
// caller would have to unwrap to branch on.
func Load(dir, name string) (*Table, error) {
	path := filepath.Join(dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !utf8.Valid(data) {
		decoded, decErr := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if decErr != nil {
			return nil, fmt.Errorf("%w: %s: latin-1 retry failed: %v", ErrDecode, path, decErr)
		}
		data = decoded
	}

	r := csv.NewReader(strings.NewReader(string(data)))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	if len(records) == 0 {
		return NewTable(name, nil, nil), nil
	}

	return NewTable(name, records[0], records[1:]), nil
}
