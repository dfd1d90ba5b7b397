package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"atmwatch/internal/fleet"
	"atmwatch/internal/monitorapi"
	"atmwatch/internal/observability/metrics"
	"atmwatch/internal/roster"
	"atmwatch/internal/storage"
)

// Retrieval paths reported by a run.
const (
	PathLive     = "LIVE"
	PathFailover = "FAILOVER"
)

// Report is the outcome of one retrieval run.
type Report struct {
	RunID         string
	Path          string
	RosterSize    int
	Records       int
	FetchFailures int
	Regions       int
	StartedAt     time.Time
	Duration      time.Duration
}

// MonitorClient is the authenticated vendor endpoint as the runner sees it.
type MonitorClient interface {
	Authenticate(ctx context.Context) (*monitorapi.Session, error)
	ListTerminals(ctx context.Context, session *monitorapi.Session) ([]monitorapi.TerminalInfo, error)
}

// Fetcher is the concurrent fetch coordinator as the runner sees it.
type Fetcher interface {
	FetchAll(ctx context.Context, session *monitorapi.Session, terminals fleet.Roster, retrievedAt time.Time) ([]fleet.TerminalRecord, []monitorapi.FetchError)
}

// Persistence accepts a completed run's output. Writes are append-only and
// idempotent per run.
type Persistence interface {
	WriteTerminalRecords(ctx context.Context, runID string, records []fleet.TerminalRecord) error
	WriteRegionalSummaries(ctx context.Context, runID string, summaries []fleet.RegionalSummary) error
	WriteRunReport(ctx context.Context, report storage.RunReport) error
}

// Runner executes one retrieval run end to end: roster, authentication,
// live fetch or connection-failure fallback, aggregation, persistence.
type Runner struct {
	roster  roster.Provider
	client  MonitorClient
	fetcher Fetcher
	store   Persistence
	log     *zap.Logger
	clock   func() time.Time
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithClock overrides the run timestamp source. Tests use it for a fixed
// clock; the default is UTC wall time.
func WithClock(clock func() time.Time) RunnerOption {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRunner constructs a run executor.
func NewRunner(provider roster.Provider, client MonitorClient, fetcher Fetcher, store Persistence, log *zap.Logger, opts ...RunnerOption) (*Runner, error) {
	if provider == nil {
		return nil, errors.New("retrieval: nil roster provider")
	}
	if client == nil {
		return nil, errors.New("retrieval: nil monitor client")
	}
	if fetcher == nil {
		return nil, errors.New("retrieval: nil fetcher")
	}
	if store == nil {
		return nil, errors.New("retrieval: nil persistence")
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{
		roster:  provider,
		client:  client,
		fetcher: fetcher,
		store:   store,
		log:     log,
		clock:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run performs one retrieval run. Per-terminal fetch failures are absorbed
// into the report; connectivity or auth failure switches the whole run to
// the failover dataset; persistence failure is fatal and surfaced.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	startedAt := r.clock()
	report := Report{
		RunID:     "run-" + startedAt.Format("20060102T150405Z"),
		Path:      PathLive,
		StartedAt: startedAt,
	}

	terminals, err := r.roster.Load(ctx)
	if err != nil {
		return r.fail(report, fmt.Errorf("retrieval: load roster: %w", err))
	}
	report.RosterSize = len(terminals)

	var records []fleet.TerminalRecord
	session, err := r.client.Authenticate(ctx)
	switch {
	case err == nil:
		r.warnOnRosterDrift(ctx, session, terminals)
		var failures []monitorapi.FetchError
		records, failures = r.fetcher.FetchAll(ctx, session, terminals, startedAt)
		report.FetchFailures = len(failures)
	case errors.Is(err, monitorapi.ErrConnectivity), errors.Is(err, monitorapi.ErrAuth):
		if errors.Is(err, monitorapi.ErrConnectivity) {
			r.log.Warn("monitoring host unreachable, entering failover", zap.String("run_id", report.RunID), zap.Error(err))
		} else {
			r.log.Warn("monitoring endpoint rejected credentials, entering failover", zap.String("run_id", report.RunID), zap.Error(err))
		}
		report.Path = PathFailover
		records, err = fleet.FailoverDataset(terminals, startedAt)
		if err != nil {
			return r.fail(report, fmt.Errorf("retrieval: failover dataset: %w", err))
		}
	default:
		return r.fail(report, fmt.Errorf("retrieval: authenticate: %w", err))
	}
	report.Records = len(records)

	summaries, err := fleet.Aggregate(records, startedAt)
	if err != nil {
		return r.fail(report, fmt.Errorf("retrieval: aggregate: %w", err))
	}
	report.Regions = len(summaries)

	if err := r.persist(ctx, report, records, summaries); err != nil {
		return r.fail(report, err)
	}

	for _, sum := range summaries {
		for _, status := range fleet.Statuses {
			metrics.SetRegionStatus(sum.RegionCode, status.String(), sum.Count(status))
		}
	}

	report.Duration = r.clock().Sub(startedAt)
	metrics.ObserveRun(pathLabel(report.Path), metrics.ResultSuccess, report.Duration)
	metrics.SetLastRun(r.clock())
	r.log.Info("retrieval run complete",
		zap.String("run_id", report.RunID),
		zap.String("path", report.Path),
		zap.Int("roster_size", report.RosterSize),
		zap.Int("records", report.Records),
		zap.Int("fetch_failures", report.FetchFailures),
		zap.Int("regions", report.Regions),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// persist hands the run's output to the gateway. The report row goes last
// so a run visible in retrieval_runs always has its records in place.
func (r *Runner) persist(ctx context.Context, report Report, records []fleet.TerminalRecord, summaries []fleet.RegionalSummary) error {
	started := time.Now()
	err := r.store.WriteTerminalRecords(ctx, report.RunID, records)
	if err == nil {
		err = r.store.WriteRegionalSummaries(ctx, report.RunID, summaries)
	}
	if err == nil {
		err = r.store.WriteRunReport(ctx, storage.RunReport{
			RunID:         report.RunID,
			Path:          report.Path,
			Records:       len(records),
			FetchFailures: report.FetchFailures,
			Regions:       len(summaries),
			Duration:      r.clock().Sub(report.StartedAt),
			StartedAt:     report.StartedAt,
		})
	}
	if err != nil {
		metrics.ObservePersist(metrics.ResultError, time.Since(started))
		return fmt.Errorf("retrieval: persist run %s: %w", report.RunID, err)
	}
	metrics.ObservePersist(metrics.ResultSuccess, time.Since(started))
	return nil
}

// warnOnRosterDrift compares the vendor's terminal listing against the
// configured roster. Best effort: a listing failure never fails the run and
// the configured roster stays authoritative.
func (r *Runner) warnOnRosterDrift(ctx context.Context, session *monitorapi.Session, terminals fleet.Roster) {
	infos, err := r.client.ListTerminals(ctx, session)
	if err != nil {
		r.log.Warn("vendor terminal listing unavailable", zap.Error(err))
		return
	}

	vendor := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		vendor[info.TerminalID] = struct{}{}
	}
	configured := make(map[string]struct{}, len(terminals))
	for _, entry := range terminals {
		configured[entry.TerminalID] = struct{}{}
	}

	var missing, extra []string
	for id := range configured {
		if _, ok := vendor[id]; !ok {
			missing = append(missing, id)
		}
	}
	for id := range vendor {
		if _, ok := configured[id]; !ok {
			extra = append(extra, id)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return
	}
	r.log.Warn("roster drift against vendor listing",
		zap.Int("configured", len(terminals)),
		zap.Int("vendor", len(infos)),
		zap.Strings("missing_at_vendor", missing),
		zap.Strings("extra_at_vendor", extra))
}

func (r *Runner) fail(report Report, err error) (Report, error) {
	report.Duration = r.clock().Sub(report.StartedAt)
	metrics.ObserveRun(pathLabel(report.Path), metrics.ResultError, report.Duration)
	return report, err
}

func pathLabel(path string) string {
	if path == PathFailover {
		return metrics.PathFailover
	}
	return metrics.PathLive
}
