package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"atmwatch/internal/fleet"
)

var testRetrievedAt = time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)

func openTestGateway(t *testing.T) *Gateway {
	t.Helper()
	g, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func testRecords(t *testing.T) []fleet.TerminalRecord {
	t.Helper()
	raw := map[string]string{"T-001": "AVAILABLE", "T-002": "HARD", "T-003": "MAINTENANCE"}
	records := make([]fleet.TerminalRecord, 0, len(raw))
	for _, id := range []string{"T-001", "T-002", "T-003"} {
		rec, err := fleet.NewLiveRecord(id, "R01", "branch "+id, raw[id], "fault on "+id, testRetrievedAt)
		require.NoError(t, err)
		records = append(records, rec)
	}
	return records
}

func countRows(t *testing.T, g *Gateway, table string) int {
	t.Helper()
	var n int
	require.NoError(t, g.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestWriteTerminalRecordsIdempotent(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()
	records := testRecords(t)

	require.NoError(t, g.WriteTerminalRecords(ctx, "run-1", records))
	require.Equal(t, 3, countRows(t, g, "terminal_records"))

	// Same run replayed: identical keys, nothing duplicated.
	require.NoError(t, g.WriteTerminalRecords(ctx, "run-1", records))
	require.Equal(t, 3, countRows(t, g, "terminal_records"))

	var status, source string
	require.NoError(t, g.db.QueryRow(
		"SELECT normalized_status, source FROM terminal_records WHERE terminal_id = ?", "T-002",
	).Scan(&status, &source))
	require.Equal(t, "WOUNDED", status)
	require.Equal(t, "LIVE", source)
}

func TestWriteTerminalRecordsRejectsInvalid(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	records := testRecords(t)
	records[1].RegionCode = ""
	err := g.WriteTerminalRecords(ctx, "run-1", records)
	require.ErrorIs(t, err, fleet.ErrEmptyRegionCode)

	// The transaction rolled back as a whole, including the valid rows.
	require.Equal(t, 0, countRows(t, g, "terminal_records"))
}

func TestWriteRegionalSummariesIdempotent(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	summaries, err := fleet.Aggregate(testRecords(t), testRetrievedAt)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	require.NoError(t, g.WriteRegionalSummaries(ctx, "run-1", summaries))
	require.NoError(t, g.WriteRegionalSummaries(ctx, "run-1", summaries))
	require.Equal(t, 1, countRows(t, g, "regional_summaries"))

	var total, oos int
	var pctOOS float64
	require.NoError(t, g.db.QueryRow(
		"SELECT total_atms, count_out_of_service, pct_out_of_service FROM regional_summaries WHERE region_code = ?", "R01",
	).Scan(&total, &oos, &pctOOS))
	require.Equal(t, 3, total)
	require.Equal(t, 1, oos)
	require.InDelta(t, 100.0/3, pctOOS, 1e-9)
}

func TestWriteRunReportIdempotent(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	report := RunReport{
		RunID:         "run-1",
		Path:          "LIVE",
		Records:       12,
		FetchFailures: 2,
		Regions:       1,
		Duration:      1500 * time.Millisecond,
		StartedAt:     testRetrievedAt,
	}
	require.NoError(t, g.WriteRunReport(ctx, report))
	require.NoError(t, g.WriteRunReport(ctx, report))
	require.Equal(t, 1, countRows(t, g, "retrieval_runs"))

	var path string
	var durationMs int64
	require.NoError(t, g.db.QueryRow(
		"SELECT path, duration_ms FROM retrieval_runs WHERE run_id = ?", "run-1",
	).Scan(&path, &durationMs))
	require.Equal(t, "LIVE", path)
	require.Equal(t, int64(1500), durationMs)
}

func TestWriteEmptyBatchesAreNoOps(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.WriteTerminalRecords(ctx, "run-1", nil))
	require.NoError(t, g.WriteRegionalSummaries(ctx, "run-1", nil))
	require.Equal(t, 0, countRows(t, g, "terminal_records"))
	require.Equal(t, 0, countRows(t, g, "regional_summaries"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
}
