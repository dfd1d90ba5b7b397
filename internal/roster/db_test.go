package roster

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"atmwatch/internal/fleet"
)

func openTerminalsDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE terminals (
		terminal_id TEXT PRIMARY KEY,
		location TEXT NOT NULL DEFAULT '',
		region_code TEXT NOT NULL
	)`)
	require.NoError(t, err)
	return db
}

func TestDBProviderLoad(t *testing.T) {
	db := openTerminalsDB(t)
	_, err := db.Exec(`INSERT INTO terminals (terminal_id, location, region_code) VALUES
		('T-002', 'Harbor mall', 'R01'),
		('T-001', 'Main St branch', 'R01')`)
	require.NoError(t, err)

	p, err := NewDBProvider(db)
	require.NoError(t, err)

	got, err := p.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, fleet.Roster{
		{TerminalID: "T-001", Location: "Main St branch", RegionCode: "R01"},
		{TerminalID: "T-002", Location: "Harbor mall", RegionCode: "R01"},
	}, got)
}

func TestDBProviderRejectsEmptyTable(t *testing.T) {
	p, err := NewDBProvider(openTerminalsDB(t))
	require.NoError(t, err)

	_, err = p.Load(context.Background())
	require.ErrorIs(t, err, fleet.ErrEmptyRoster)
}
