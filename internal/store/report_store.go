package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akaul/reportdash/internal/model"
)

const insertResult = `
	INSERT INTO results (
		suite_name, date, total, passed, failed, skipped,
		pass_percent, source_message_id, ingested_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Append writes one record to the report series. A primary-key clash
// on (suite_name, date) comes back as a StorageError: the caller's
// dedup check should have prevented it.
func (s *SQLiteStore) Append(ctx context.Context, rec model.ReportRecord) error {
	_, err := s.db.ExecContext(ctx, insertResult,
		rec.SuiteName, rec.ExecutedAt.UTC(),
		rec.Total, rec.Passed, rec.Failed, rec.Skipped,
		rec.PassPercent, rec.SourceMessageID, rec.IngestedAt.UTC(),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return &StorageError{Key: rec.Key(), Err: err}
		}
		return fmt.Errorf("appending result for %s: %w", rec.SuiteName, err)
	}
	return nil
}

// Replace overwrites the stored record with the same (suite_name, date)
// key, or inserts when none exists. Used only by the explicit refresh
// duplicate policy; the normal path never mutates persisted records.
func (s *SQLiteStore) Replace(ctx context.Context, rec model.ReportRecord) error {
	_, err := s.db.ExecContext(ctx,
		strings.Replace(insertResult, "INSERT INTO", "INSERT OR REPLACE INTO", 1),
		rec.SuiteName, rec.ExecutedAt.UTC(),
		rec.Total, rec.Passed, rec.Failed, rec.Skipped,
		rec.PassPercent, rec.SourceMessageID, rec.IngestedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("replacing result for %s: %w", rec.SuiteName, err)
	}
	return nil
}

// Exists reports whether a record with the given key has been persisted.
func (s *SQLiteStore) Exists(ctx context.Context, key model.HistoryKey) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM results WHERE suite_name = ? AND date = ?",
		key.SuiteName, key.ExecutedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("checking existence of (%s, %s): %w",
			key.SuiteName, key.ExecutedAt, err)
	}
	return count > 0, nil
}

// QueryBySuite returns all records for one suite, most-recent execution
// first.
func (s *SQLiteStore) QueryBySuite(
	ctx context.Context,
	name string,
) ([]model.ReportRecord, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT suite_name, date, total, passed, failed, skipped,
			pass_percent, source_message_id, ingested_at
		 FROM results WHERE suite_name = ? ORDER BY date DESC`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("querying results for %s: %w", name, err)
	}
	defer rows.Close()

	var records []model.ReportRecord
	for rows.Next() {
		rec, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Suites returns the distinct suite names in the series, alphabetical.
func (s *SQLiteStore) Suites(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names,
		"SELECT DISTINCT suite_name FROM results ORDER BY suite_name",
	)
	if err != nil {
		return nil, fmt.Errorf("querying suite names: %w", err)
	}
	return names, nil
}

// AppendRun records the outcome of one ingestion run, successful or not.
func (s *SQLiteStore) AppendRun(ctx context.Context, run model.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingestion_runs (
			id, started_at, finished_at,
			accepted, skipped_duplicate, skipped_unparseable, error
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Accepted, run.SkippedDuplicate, run.SkippedUnparseable, run.Error,
	)
	if err != nil {
		return fmt.Errorf("recording ingestion run %s: %w", run.ID, err)
	}
	return nil
}

// LatestRun returns the most recent ingestion run, or nil when no run
// has been recorded yet.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*model.RunRecord, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, started_at, finished_at,
			accepted, skipped_duplicate, skipped_unparseable, error
		FROM ingestion_runs ORDER BY started_at DESC LIMIT 1`,
	)

	var (
		run        model.RunRecord
		startedAt  time.Time
		finishedAt time.Time
	)
	err := row.Scan(
		&run.ID, &startedAt, &finishedAt,
		&run.Accepted, &run.SkippedDuplicate, &run.SkippedUnparseable, &run.Error,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading latest ingestion run: %w", err)
	}

	run.StartedAt = startedAt
	run.FinishedAt = finishedAt
	return &run, nil
}

// scanResult scans a result row from a sqlx.Rows result set.
func scanResult(rows *sqlx.Rows) (model.ReportRecord, error) {
	var (
		rec        model.ReportRecord
		executedAt time.Time
		ingestedAt time.Time
	)

	err := rows.Scan(
		&rec.SuiteName, &executedAt,
		&rec.Total, &rec.Passed, &rec.Failed, &rec.Skipped,
		&rec.PassPercent, &rec.SourceMessageID, &ingestedAt,
	)
	if err != nil {
		return model.ReportRecord{}, fmt.Errorf("scanning result row: %w", err)
	}

	rec.ExecutedAt = executedAt
	rec.IngestedAt = ingestedAt
	return rec, nil
}

// isConstraintViolation reports whether err is a SQLite constraint
// failure (the driver exposes no typed error for it).
func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
