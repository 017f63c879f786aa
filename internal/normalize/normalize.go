// Package normalize provides best-effort coercion of extract text into
// clean values. Both helpers are idempotent: feeding them already-clean
// input returns the same value.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// moneyStripper removes the currency decorations seen in the extracts.
var moneyStripper = strings.NewReplacer("$", "", ",", "", " ", "")

// CleanMoney converts monetary text to a float64, stripping currency
// symbols and thousands separators first. Already-numeric text passes
// through unchanged. Blank input is zero, not an error.
func CleanMoney(s string) (float64, error) {
	cleaned := strings.TrimSpace(moneyStripper.Replace(s))
	if cleaned == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse money value %q: %w", s, err)
	}
	return v, nil
}

// Text lowercases and trims a categorical column value.
func Text(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
