package retrieval

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"atmwatch/internal/fleet"
	"atmwatch/internal/monitorapi"
	"atmwatch/internal/observability/metrics"
)

// DefaultWorkers bounds concurrent terminal fetches. The vendor runs a
// single monitoring host; four in-flight calls is the agreed ceiling.
const DefaultWorkers = 4

// DetailFetcher is the per-terminal status call the coordinator fans out.
type DetailFetcher interface {
	TerminalDetail(ctx context.Context, session *monitorapi.Session, terminalID string) (monitorapi.TerminalStatus, error)
}

// Coordinator fans terminal detail fetches out over a bounded worker pool.
// Every worker writes to its own result slot, so the hot path needs no
// locking, and one terminal's exhausted retries never cancel the rest.
type Coordinator struct {
	fetcher DetailFetcher
	workers int
	log     *zap.Logger
}

// NewCoordinator constructs a fetch coordinator.
func NewCoordinator(fetcher DetailFetcher, workers int, log *zap.Logger) (*Coordinator, error) {
	if fetcher == nil {
		return nil, errors.New("retrieval: nil fetcher")
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{fetcher: fetcher, workers: workers, log: log}, nil
}

// FetchAll fetches the status of every rostered terminal and returns the
// records that succeeded plus one FetchError per terminal that did not.
// It always waits for every worker before returning, so callers see a
// complete snapshot, and output order is not the roster order.
func (c *Coordinator) FetchAll(ctx context.Context, session *monitorapi.Session, terminals fleet.Roster, retrievedAt time.Time) ([]fleet.TerminalRecord, []monitorapi.FetchError) {
	started := time.Now()
	recordSlots := make([]*fleet.TerminalRecord, len(terminals))
	failureSlots := make([]*monitorapi.FetchError, len(terminals))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, entry := range terminals {
		g.Go(func() error {
			rec, err := c.fetchOne(ctx, session, entry, retrievedAt)
			if err != nil {
				failureSlots[i] = err
				metrics.IncTerminalFetch(metrics.ResultError)
				c.log.Warn("terminal fetch failed",
					zap.String("terminal_id", entry.TerminalID),
					zap.Error(err))
				return nil
			}
			recordSlots[i] = &rec
			metrics.IncTerminalFetch(metrics.ResultSuccess)
			return nil
		})
	}
	_ = g.Wait()

	records := make([]fleet.TerminalRecord, 0, len(terminals))
	for _, rec := range recordSlots {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	var failures []monitorapi.FetchError
	for _, f := range failureSlots {
		if f != nil {
			failures = append(failures, *f)
		}
	}

	c.log.Info("terminal fetch batch done",
		zap.Int("terminals", len(terminals)),
		zap.Int("records", len(records)),
		zap.Int("failures", len(failures)),
		zap.Duration("elapsed", time.Since(started)))
	return records, failures
}

// fetchOne turns one vendor status payload into a validated record. Vendor
// payloads occasionally omit region or location; the roster entry fills the
// gap so the record always groups into a region.
func (c *Coordinator) fetchOne(ctx context.Context, session *monitorapi.Session, entry fleet.RosterEntry, retrievedAt time.Time) (fleet.TerminalRecord, *monitorapi.FetchError) {
	status, err := c.fetcher.TerminalDetail(ctx, session, entry.TerminalID)
	if err != nil {
		return fleet.TerminalRecord{}, asFetchError(entry.TerminalID, err)
	}

	region := status.RegionCode
	if region == "" {
		region = entry.RegionCode
	}
	location := status.Location
	if location == "" {
		location = entry.Location
	}

	rec, err := fleet.NewLiveRecord(entry.TerminalID, region, location, status.StatusCode, status.FaultDescription, retrievedAt)
	if err != nil {
		return fleet.TerminalRecord{}, asFetchError(entry.TerminalID, err)
	}
	return rec, nil
}

func asFetchError(terminalID string, err error) *monitorapi.FetchError {
	var fe *monitorapi.FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &monitorapi.FetchError{TerminalID: terminalID, Err: err}
}
