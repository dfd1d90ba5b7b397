// Package roster loads the configured terminal roster. The roster is the
// source of truth for fleet size: the live path fetches exactly these
// terminals and the failover path synthesizes one record per entry.
package roster

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"atmwatch/internal/fleet"
)

// Provider yields the terminal roster for a retrieval run.
type Provider interface {
	Load(ctx context.Context) (fleet.Roster, error)
}

// FromFile picks a file provider by extension: .xlsx opens the
// ops-maintained workbook, anything else is read as YAML.
func FromFile(path string) (Provider, error) {
	if path == "" {
		return nil, errors.New("roster: empty path")
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return NewXLSXProvider(path), nil
	}
	return NewYAMLProvider(path), nil
}
