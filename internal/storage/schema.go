package storage

var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS terminal_records (
	run_id TEXT NOT NULL,
	terminal_id TEXT NOT NULL,
	region_code TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	raw_status TEXT NOT NULL DEFAULT '',
	normalized_status TEXT NOT NULL,
	fault_description TEXT NOT NULL DEFAULT '',
	retrieved_at TIMESTAMPTZ NOT NULL,
	source TEXT NOT NULL,
	PRIMARY KEY (terminal_id, retrieved_at)
)`,
	`CREATE INDEX IF NOT EXISTS idx_terminal_records_run ON terminal_records (run_id)`,
	`CREATE TABLE IF NOT EXISTS regional_summaries (
	run_id TEXT NOT NULL,
	region_code TEXT NOT NULL,
	count_available INTEGER NOT NULL,
	count_warning INTEGER NOT NULL,
	count_wounded INTEGER NOT NULL,
	count_zombie INTEGER NOT NULL,
	count_out_of_service INTEGER NOT NULL,
	total_atms INTEGER NOT NULL,
	pct_available DOUBLE PRECISION NOT NULL,
	pct_warning DOUBLE PRECISION NOT NULL,
	pct_wounded DOUBLE PRECISION NOT NULL,
	pct_zombie DOUBLE PRECISION NOT NULL,
	pct_out_of_service DOUBLE PRECISION NOT NULL,
	retrieved_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (region_code, retrieved_at)
)`,
	`CREATE TABLE IF NOT EXISTS retrieval_runs (
	run_id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	records INTEGER NOT NULL,
	fetch_failures INTEGER NOT NULL,
	regions INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS terminals (
	terminal_id TEXT PRIMARY KEY,
	location TEXT NOT NULL DEFAULT '',
	region_code TEXT NOT NULL
)`,
}

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS terminal_records (
	run_id TEXT NOT NULL,
	terminal_id TEXT NOT NULL,
	region_code TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	raw_status TEXT NOT NULL DEFAULT '',
	normalized_status TEXT NOT NULL,
	fault_description TEXT NOT NULL DEFAULT '',
	retrieved_at TEXT NOT NULL,
	source TEXT NOT NULL,
	PRIMARY KEY (terminal_id, retrieved_at)
)`,
	`CREATE INDEX IF NOT EXISTS idx_terminal_records_run ON terminal_records (run_id)`,
	`CREATE TABLE IF NOT EXISTS regional_summaries (
	run_id TEXT NOT NULL,
	region_code TEXT NOT NULL,
	count_available INTEGER NOT NULL,
	count_warning INTEGER NOT NULL,
	count_wounded INTEGER NOT NULL,
	count_zombie INTEGER NOT NULL,
	count_out_of_service INTEGER NOT NULL,
	total_atms INTEGER NOT NULL,
	pct_available REAL NOT NULL,
	pct_warning REAL NOT NULL,
	pct_wounded REAL NOT NULL,
	pct_zombie REAL NOT NULL,
	pct_out_of_service REAL NOT NULL,
	retrieved_at TEXT NOT NULL,
	PRIMARY KEY (region_code, retrieved_at)
)`,
	`CREATE TABLE IF NOT EXISTS retrieval_runs (
	run_id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	records INTEGER NOT NULL,
	fetch_failures INTEGER NOT NULL,
	regions INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	started_at TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS terminals (
	terminal_id TEXT PRIMARY KEY,
	location TEXT NOT NULL DEFAULT '',
	region_code TEXT NOT NULL
)`,
}
