package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"atmwatch/internal/fleet"
)

// XLSXProvider reads the roster from the first sheet of an ops-maintained
// workbook. The header row must name terminal_id, location and region
// columns; column order is free and header matching is case-insensitive.
type XLSXProvider struct {
	path string
}

// NewXLSXProvider constructs an XLSX workbook provider.
func NewXLSXProvider(path string) *XLSXProvider {
	return &XLSXProvider{path: path}
}

// Load opens the workbook and validates the roster.
func (p *XLSXProvider) Load(_ context.Context) (fleet.Roster, error) {
	f, err := excelize.OpenFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("roster: open %s: %w", p.path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("roster: %s has no sheets", p.path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("roster: read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("roster: %s: %w", p.path, fleet.ErrEmptyRoster)
	}

	idCol, locCol, regionCol, err := headerColumns(rows[0])
	if err != nil {
		return nil, fmt.Errorf("roster: %s: %w", p.path, err)
	}

	out := make(fleet.Roster, 0, len(rows)-1)
	for _, row := range rows[1:] {
		id := cell(row, idCol)
		if id == "" && cell(row, locCol) == "" && cell(row, regionCol) == "" {
			continue // trailing blank row
		}
		out = append(out, fleet.RosterEntry{
			TerminalID: id,
			Location:   cell(row, locCol),
			RegionCode: cell(row, regionCol),
		})
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("roster: %s: %w", p.path, err)
	}
	return out, nil
}

func headerColumns(header []string) (idCol, locCol, regionCol int, err error) {
	idCol, locCol, regionCol = -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "terminal_id":
			idCol = i
		case "location":
			locCol = i
		case "region", "region_code":
			regionCol = i
		}
	}
	if idCol < 0 || locCol < 0 || regionCol < 0 {
		return 0, 0, 0, errors.New("roster: header must name terminal_id, location and region")
	}
	return idCol, locCol, regionCol, nil
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
