package fleet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustLiveRecord(t *testing.T, id, region, raw string) TerminalRecord {
	t.Helper()
	rec, err := NewLiveRecord(id, region, "branch "+id, raw, "fault on "+id, testRetrievedAt)
	require.NoError(t, err)
	return rec
}

func TestAggregateMixedStatuses(t *testing.T) {
	records := []TerminalRecord{
		mustLiveRecord(t, "T-001", "R01", "AVAILABLE"),
		mustLiveRecord(t, "T-002", "R01", "MAINTENANCE"),
		mustLiveRecord(t, "T-003", "R01", "HARD"),
		mustLiveRecord(t, "T-004", "R02", "CASH"),
		mustLiveRecord(t, "T-005", "R02", "WARNING"),
	}

	summaries, err := Aggregate(records, testRetrievedAt)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	r01 := summaries[0]
	require.Equal(t, "R01", r01.RegionCode)
	require.Equal(t, 1, r01.CountAvailable)
	require.Equal(t, 1, r01.CountWounded)
	require.Equal(t, 1, r01.CountOutOfService)
	require.Equal(t, 0, r01.CountWarning)
	require.Equal(t, 3, r01.TotalATMs)
	require.InDelta(t, 100.0/3, r01.PctAvailable, 1e-9)
	require.InDelta(t, 100.0/3, r01.PctOutOfService, 1e-9)

	r02 := summaries[1]
	require.Equal(t, "R02", r02.RegionCode)
	require.Equal(t, 1, r02.CountWarning)
	require.Equal(t, 1, r02.CountOutOfService)
	require.Equal(t, 2, r02.TotalATMs)
	require.InDelta(t, 50.0, r02.PctWarning, 1e-9)

	for _, s := range summaries {
		require.NoError(t, s.Validate())
		require.Equal(t, testRetrievedAt, s.RetrievedAt)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	records := []TerminalRecord{
		mustLiveRecord(t, "T-001", "R02", "AVAILABLE"),
		mustLiveRecord(t, "T-002", "R01", "ZOMBIE"),
		mustLiveRecord(t, "T-003", "R01", "AVAILABLE"),
		mustLiveRecord(t, "T-004", "R03", "UNAVAILABLE"),
		mustLiveRecord(t, "T-005", "R02", "HARD"),
		mustLiveRecord(t, "T-006", "R01", "LOW_CASH"),
	}

	want, err := Aggregate(records, testRetrievedAt)
	require.NoError(t, err)

	reversed := make([]TerminalRecord, len(records))
	for i, rec := range records {
		reversed[len(records)-1-i] = rec
	}
	got, err := Aggregate(reversed, testRetrievedAt)
	require.NoError(t, err)
	require.Equal(t, want, got)

	rotated := append(records[3:], records[:3]...)
	got, err = Aggregate(rotated, testRetrievedAt)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAggregateCountSumInvariant(t *testing.T) {
	records := []TerminalRecord{
		mustLiveRecord(t, "T-001", "R01", "AVAILABLE"),
		mustLiveRecord(t, "T-002", "R01", "WEIRD_CODE"),
		mustLiveRecord(t, "T-003", "R01", "OFFLINE"),
		mustLiveRecord(t, "T-004", "R02", "SUPERVISOR"),
		mustLiveRecord(t, "T-005", "R02", "WOUNDED"),
		mustLiveRecord(t, "T-006", "R03", "OUT_OF_SERVICE"),
	}

	summaries, err := Aggregate(records, testRetrievedAt)
	require.NoError(t, err)
	for _, s := range summaries {
		require.NoError(t, s.Validate())
		sum := s.CountAvailable + s.CountWarning + s.CountWounded + s.CountZombie + s.CountOutOfService
		require.Equal(t, s.TotalATMs, sum, "region %s", s.RegionCode)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	summaries, err := Aggregate(nil, testRetrievedAt)
	require.NoError(t, err)
	require.Empty(t, summaries)
}

func TestAggregateRejectsInvalidRecord(t *testing.T) {
	bad := TerminalRecord{TerminalID: "T-001", NormalizedStatus: StatusAvailable, Source: SourceLive, RetrievedAt: testRetrievedAt}
	_, err := Aggregate([]TerminalRecord{bad}, testRetrievedAt)
	require.ErrorIs(t, err, ErrEmptyRegionCode)

	_, err = Aggregate(nil, time.Time{})
	require.ErrorIs(t, err, ErrInvalidRetrievedAt)
}

func TestZeroTotalPercentages(t *testing.T) {
	s := RegionalSummary{RegionCode: "R09", RetrievedAt: testRetrievedAt}
	s.derivePercentages()
	require.Zero(t, s.PctAvailable)
	require.Zero(t, s.PctWarning)
	require.Zero(t, s.PctWounded)
	require.Zero(t, s.PctZombie)
	require.Zero(t, s.PctOutOfService)
	require.NoError(t, s.Validate())
}
