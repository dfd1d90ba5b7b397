package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"atmwatch/internal/fleet"
)

// Drivers accepted by Open.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// RunReport is the persisted metadata row for one retrieval run.
type RunReport struct {
	RunID         string
	Path          string
	Records       int
	FetchFailures int
	Regions       int
	Duration      time.Duration
	StartedAt     time.Time
}

// Gateway persists retrieval output. All writes are append-only inserts
// keyed by entity id + retrieved_at; re-writing the same run is a no-op, so
// a retried run never duplicates or mutates history.
type Gateway struct {
	db     *sql.DB
	driver string
}

// Open connects to the database, verifies the connection and ensures the
// schema exists. The sqlite backend is pinned to a single connection; the
// modernc driver serializes writers anyway and one connection keeps
// in-memory databases coherent.
func Open(ctx context.Context, driver, dsn string) (*Gateway, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
	if dsn == "" {
		return nil, errors.New("storage: empty dsn")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}

	g := &Gateway{db: db, driver: driver}
	if err := g.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return g, nil
}

// DB exposes the underlying handle for DB-backed gauges and the terminals
// roster provider.
func (g *Gateway) DB() *sql.DB { return g.db }

// Close releases the database handle.
func (g *Gateway) Close() error { return g.db.Close() }

func (g *Gateway) ensureSchema(ctx context.Context) error {
	statements := schemaPostgres
	if g.driver == DriverSQLite {
		statements = schemaSQLite
	}
	for _, stmt := range statements {
		if _, err := g.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("storage: ensure schema: %w", err)
		}
	}
	return nil
}

// WriteTerminalRecords inserts one row per terminal record. Rows that
// already exist for (terminal_id, retrieved_at) are left untouched.
func (g *Gateway) WriteTerminalRecords(ctx context.Context, runID string, records []fleet.TerminalRecord) error {
	if runID == "" {
		return errors.New("storage: empty run id")
	}
	if len(records) == 0 {
		return nil
	}

	query := g.rebind(`
INSERT INTO terminal_records (
	run_id,
	terminal_id,
	region_code,
	location,
	raw_status,
	normalized_status,
	fault_description,
	retrieved_at,
	source
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9
)
ON CONFLICT (terminal_id, retrieved_at) DO NOTHING`)

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("storage: prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("storage: terminal record %s: %w", rec.TerminalID, err)
		}
		if _, err := stmt.ExecContext(
			ctx,
			runID,
			rec.TerminalID,
			rec.RegionCode,
			rec.Location,
			rec.RawStatus,
			rec.NormalizedStatus.String(),
			rec.FaultDescription,
			g.ts(rec.RetrievedAt),
			string(rec.Source),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("storage: insert terminal record %s: %w", rec.TerminalID, err)
		}
	}
	return tx.Commit()
}

// WriteRegionalSummaries inserts one row per regional summary. Rows that
// already exist for (region_code, retrieved_at) are left untouched.
func (g *Gateway) WriteRegionalSummaries(ctx context.Context, runID string, summaries []fleet.RegionalSummary) error {
	if runID == "" {
		return errors.New("storage: empty run id")
	}
	if len(summaries) == 0 {
		return nil
	}

	query := g.rebind(`
INSERT INTO regional_summaries (
	run_id,
	region_code,
	count_available,
	count_warning,
	count_wounded,
	count_zombie,
	count_out_of_service,
	total_atms,
	pct_available,
	pct_warning,
	pct_wounded,
	pct_zombie,
	pct_out_of_service,
	retrieved_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
)
ON CONFLICT (region_code, retrieved_at) DO NOTHING`)

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("storage: prepare: %w", err)
	}
	defer stmt.Close()

	for _, sum := range summaries {
		if err := sum.Validate(); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("storage: summary %s: %w", sum.RegionCode, err)
		}
		if _, err := stmt.ExecContext(
			ctx,
			runID,
			sum.RegionCode,
			sum.CountAvailable,
			sum.CountWarning,
			sum.CountWounded,
			sum.CountZombie,
			sum.CountOutOfService,
			sum.TotalATMs,
			sum.PctAvailable,
			sum.PctWarning,
			sum.PctWounded,
			sum.PctZombie,
			sum.PctOutOfService,
			g.ts(sum.RetrievedAt),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("storage: insert summary %s: %w", sum.RegionCode, err)
		}
	}
	return tx.Commit()
}

// WriteRunReport inserts the run metadata row. Re-inserting the same run id
// is a no-op.
func (g *Gateway) WriteRunReport(ctx context.Context, report RunReport) error {
	if report.RunID == "" {
		return errors.New("storage: empty run id")
	}
	if report.StartedAt.IsZero() {
		return errors.New("storage: zero started_at")
	}

	query := g.rebind(`
INSERT INTO retrieval_runs (
	run_id,
	path,
	records,
	fetch_failures,
	regions,
	duration_ms,
	started_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7
)
ON CONFLICT (run_id) DO NOTHING`)

	if _, err := g.db.ExecContext(
		ctx,
		query,
		report.RunID,
		report.Path,
		report.Records,
		report.FetchFailures,
		report.Regions,
		report.Duration.Milliseconds(),
		g.ts(report.StartedAt),
	); err != nil {
		return fmt.Errorf("storage: insert run report %s: %w", report.RunID, err)
	}
	return nil
}

// ts binds a timestamp for the active driver: native for postgres, RFC3339
// text for sqlite. UTC either way.
func (g *Gateway) ts(t time.Time) any {
	if g.driver == DriverSQLite {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t.UTC()
}

// rebind rewrites $n placeholders to ? for the sqlite driver. Arguments are
// always passed in placeholder order, so a positional rewrite is enough.
func (g *Gateway) rebind(query string) string {
	if g.driver != DriverSQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
