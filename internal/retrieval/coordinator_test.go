package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"atmwatch/internal/fleet"
	"atmwatch/internal/monitorapi"
)

var testRetrievedAt = time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)

func testRoster(n int) fleet.Roster {
	r := make(fleet.Roster, 0, n)
	for i := 1; i <= n; i++ {
		r = append(r, fleet.RosterEntry{
			TerminalID: fmt.Sprintf("T-%03d", i),
			Location:   fmt.Sprintf("branch %d", i),
			RegionCode: "R1",
		})
	}
	return r
}

// stubFetcher answers per-terminal from a canned map; ids in failing always
// error. It tracks in-flight calls to verify the worker bound.
type stubFetcher struct {
	statuses map[string]string
	failing  map[string]bool
	delay    time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	mu          sync.Mutex
	calls       map[string]int
}

func (f *stubFetcher) TerminalDetail(_ context.Context, _ *monitorapi.Session, terminalID string) (monitorapi.TerminalStatus, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		prev := f.maxInFlight.Load()
		if cur <= prev || f.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[terminalID]++
	f.mu.Unlock()

	if f.failing[terminalID] {
		return monitorapi.TerminalStatus{}, &monitorapi.FetchError{TerminalID: terminalID, Err: errors.New("timeout")}
	}
	status := f.statuses[terminalID]
	if status == "" {
		status = "AVAILABLE"
	}
	return monitorapi.TerminalStatus{
		TerminalID: terminalID,
		StatusCode: status,
		Location:   "vendor site " + terminalID,
		RegionCode: "R1",
	}, nil
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	fetcher := &stubFetcher{
		failing: map[string]bool{"T-004": true, "T-011": true},
		delay:   2 * time.Millisecond,
	}
	c, err := NewCoordinator(fetcher, 4, nil)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}

	records, failures := c.FetchAll(context.Background(), &monitorapi.Session{Token: "t"}, testRoster(14), testRetrievedAt)

	if len(records) != 12 {
		t.Fatalf("expected 12 records, got %d", len(records))
	}
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(failures))
	}
	failed := map[string]bool{}
	for _, f := range failures {
		failed[f.TerminalID] = true
	}
	if !failed["T-004"] || !failed["T-011"] {
		t.Fatalf("expected failures for T-004 and T-011, got %v", failed)
	}
	for _, rec := range records {
		if failed[rec.TerminalID] {
			t.Fatalf("failed terminal %s must not appear in records", rec.TerminalID)
		}
		if err := rec.Validate(); err != nil {
			t.Fatalf("record %s invalid: %v", rec.TerminalID, err)
		}
	}
	if got := fetcher.maxInFlight.Load(); got > 4 {
		t.Fatalf("worker bound exceeded: %d in flight", got)
	}
}

func TestFetchAllOneRecordPerTerminal(t *testing.T) {
	fetcher := &stubFetcher{}
	c, err := NewCoordinator(fetcher, 4, nil)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}

	roster := testRoster(9)
	records, failures := c.FetchAll(context.Background(), &monitorapi.Session{Token: "t"}, roster, testRetrievedAt)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(records) != len(roster) {
		t.Fatalf("expected %d records, got %d", len(roster), len(records))
	}
	seen := map[string]bool{}
	for _, rec := range records {
		if seen[rec.TerminalID] {
			t.Fatalf("duplicate record for %s", rec.TerminalID)
		}
		seen[rec.TerminalID] = true
		if rec.Source != fleet.SourceLive {
			t.Fatalf("expected LIVE source, got %s", rec.Source)
		}
		if !rec.RetrievedAt.Equal(testRetrievedAt) {
			t.Fatalf("expected run timestamp on %s, got %v", rec.TerminalID, rec.RetrievedAt)
		}
	}
	for id, n := range fetcher.calls {
		if n != 1 {
			t.Fatalf("terminal %s fetched %d times", id, n)
		}
	}
}

func TestFetchAllFallsBackToRosterRegion(t *testing.T) {
	// Vendor payload without region or location still yields a groupable record.
	fetcher := &emptyPayloadFetcher{}
	c, err := NewCoordinator(fetcher, 2, nil)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}

	roster := fleet.Roster{{TerminalID: "T-001", Location: "Main St branch", RegionCode: "R7"}}
	records, failures := c.FetchAll(context.Background(), &monitorapi.Session{Token: "t"}, roster, testRetrievedAt)
	if len(failures) != 0 || len(records) != 1 {
		t.Fatalf("expected 1 record, got %d records %d failures", len(records), len(failures))
	}
	if records[0].RegionCode != "R7" {
		t.Fatalf("expected roster region R7, got %q", records[0].RegionCode)
	}
	if records[0].Location != "Main St branch" {
		t.Fatalf("expected roster location, got %q", records[0].Location)
	}
}

type emptyPayloadFetcher struct{}

func (emptyPayloadFetcher) TerminalDetail(_ context.Context, _ *monitorapi.Session, terminalID string) (monitorapi.TerminalStatus, error) {
	return monitorapi.TerminalStatus{TerminalID: terminalID, StatusCode: "HARD"}, nil
}

func TestNewCoordinatorDefaultsWorkers(t *testing.T) {
	c, err := NewCoordinator(&stubFetcher{}, 0, nil)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	if c.workers != DefaultWorkers {
		t.Fatalf("expected %d workers, got %d", DefaultWorkers, c.workers)
	}
	if _, err := NewCoordinator(nil, 4, nil); err == nil {
		t.Fatal("expected error for nil fetcher")
	}
}
