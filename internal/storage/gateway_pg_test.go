package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"atmwatch/internal/fleet"
)

func TestGatewayPostgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	ctx := context.Background()
	g, err := Open(ctx, DriverPostgres, dsn)
	require.NoError(t, err)
	defer g.Close()

	retrievedAt := time.Now().UTC().Truncate(time.Microsecond)
	runID := "run-pg-" + retrievedAt.Format("20060102T150405.000000Z")

	rec, err := fleet.NewLiveRecord("T-PG-001", "R01", "integration branch", "CASH", "cash handler fault", retrievedAt)
	require.NoError(t, err)
	records := []fleet.TerminalRecord{rec}
	summaries, err := fleet.Aggregate(records, retrievedAt)
	require.NoError(t, err)

	require.NoError(t, g.WriteTerminalRecords(ctx, runID, records))
	require.NoError(t, g.WriteTerminalRecords(ctx, runID, records))
	require.NoError(t, g.WriteRegionalSummaries(ctx, runID, summaries))
	require.NoError(t, g.WriteRunReport(ctx, RunReport{
		RunID:     runID,
		Path:      "LIVE",
		Records:   1,
		Regions:   1,
		Duration:  time.Second,
		StartedAt: retrievedAt,
	}))

	var n int
	require.NoError(t, g.db.QueryRow(
		"SELECT COUNT(*) FROM terminal_records WHERE run_id = $1", runID,
	).Scan(&n))
	require.Equal(t, 1, n)
}
