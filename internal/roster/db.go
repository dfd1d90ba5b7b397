package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"atmwatch/internal/fleet"
)

// DBProvider reads the roster from the terminals table kept next to the
// pipeline's own output tables.
type DBProvider struct {
	db *sql.DB
}

// NewDBProvider constructs a database roster provider.
func NewDBProvider(db *sql.DB) (*DBProvider, error) {
	if db == nil {
		return nil, errors.New("roster: nil db")
	}
	return &DBProvider{db: db}, nil
}

// Load selects and validates the full terminals table.
func (p *DBProvider) Load(ctx context.Context) (fleet.Roster, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT terminal_id, location, region_code FROM terminals ORDER BY terminal_id")
	if err != nil {
		return nil, fmt.Errorf("roster: query terminals: %w", err)
	}
	defer rows.Close()

	var out fleet.Roster
	for rows.Next() {
		var entry fleet.RosterEntry
		if err := rows.Scan(&entry.TerminalID, &entry.Location, &entry.RegionCode); err != nil {
			return nil, fmt.Errorf("roster: scan terminal: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roster: iterate terminals: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("roster: terminals table: %w", err)
	}
	return out, nil
}
