package fleet

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func fullRoster(n int, region string) Roster {
	roster := make(Roster, 0, n)
	for i := 1; i <= n; i++ {
		roster = append(roster, RosterEntry{
			TerminalID: fmt.Sprintf("T-%03d", i),
			Location:   fmt.Sprintf("branch %d", i),
			RegionCode: region,
		})
	}
	return roster
}

func TestFailoverDatasetFullOutage(t *testing.T) {
	roster := fullRoster(14, "R01")

	records, err := FailoverDataset(roster, testRetrievedAt)
	require.NoError(t, err)
	require.Len(t, records, 14)

	for i, rec := range records {
		require.NoError(t, rec.Validate())
		require.Equal(t, roster[i].TerminalID, rec.TerminalID)
		require.Equal(t, StatusOutOfService, rec.NormalizedStatus)
		require.Equal(t, SourceConnectionFailed, rec.Source)
		require.Equal(t, testRetrievedAt, rec.RetrievedAt)
		require.Contains(t, rec.FaultDescription, rec.TerminalID)
		require.Contains(t, rec.FaultDescription, roster[i].Location)
	}

	summaries, err := Aggregate(records, testRetrievedAt)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	require.Equal(t, "R01", s.RegionCode)
	require.Equal(t, 14, s.CountOutOfService)
	require.Equal(t, 14, s.TotalATMs)
	require.Zero(t, s.CountAvailable)
	require.InDelta(t, 100.0, s.PctOutOfService, 1e-9)
	require.Zero(t, s.PctAvailable)
	require.NoError(t, s.Validate())
}

func TestFailoverDatasetMultiRegion(t *testing.T) {
	roster := Roster{
		{TerminalID: "T-001", Location: "hq", RegionCode: "R01"},
		{TerminalID: "T-002", Location: "mall", RegionCode: "R02"},
		{TerminalID: "T-003", Location: "station", RegionCode: "R02"},
	}

	records, err := FailoverDataset(roster, testRetrievedAt)
	require.NoError(t, err)

	summaries, err := Aggregate(records, testRetrievedAt)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	for _, s := range summaries {
		require.NoError(t, s.Validate())
		require.Equal(t, s.TotalATMs, s.CountOutOfService)
		require.InDelta(t, 100.0, s.PctOutOfService, 1e-9)
	}
}

func TestFailoverDatasetRejectsBadRoster(t *testing.T) {
	_, err := FailoverDataset(Roster{}, testRetrievedAt)
	require.ErrorIs(t, err, ErrEmptyRoster)

	dup := Roster{
		{TerminalID: "T-001", RegionCode: "R01"},
		{TerminalID: "T-001", RegionCode: "R01"},
	}
	_, err = FailoverDataset(dup, testRetrievedAt)
	require.ErrorIs(t, err, ErrDuplicateTerminalID)
}
