package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	suite_name        TEXT NOT NULL,
	date              DATETIME NOT NULL,
	total             INTEGER NOT NULL DEFAULT 0,
	passed            INTEGER NOT NULL DEFAULT 0,
	failed            INTEGER NOT NULL DEFAULT 0,
	skipped           INTEGER NOT NULL DEFAULT 0,
	pass_percent      REAL NOT NULL DEFAULT 0,
	source_message_id TEXT NOT NULL DEFAULT '',
	ingested_at       DATETIME NOT NULL,
	PRIMARY KEY (suite_name, date)
);

CREATE INDEX IF NOT EXISTS idx_results_suite_name ON results(suite_name);
CREATE INDEX IF NOT EXISTS idx_results_date ON results(date);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS ingestion_runs (
	id                  TEXT PRIMARY KEY,
	started_at          DATETIME NOT NULL,
	finished_at         DATETIME NOT NULL,
	accepted            INTEGER NOT NULL DEFAULT 0,
	skipped_duplicate   INTEGER NOT NULL DEFAULT 0,
	skipped_unparseable INTEGER NOT NULL DEFAULT 0,
	error               TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_ingestion_runs_started ON ingestion_runs(started_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
