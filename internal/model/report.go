package model

import "time"

// ReportRecord is the normalized form of one parsed test-suite execution
// row from a report email.
type ReportRecord struct {
	// SuiteName is the test suite this execution belongs to.
	SuiteName string `json:"suite_name" db:"suite_name"`

	// ExecutedAt is when the suite run finished, as reported by the
	// table's DATE column or, failing that, the message received time.
	ExecutedAt time.Time `json:"executed_at" db:"date"`

	// Total is the number of test cases in the run.
	Total int `json:"total" db:"total"`

	// Passed, Failed, and Skipped are the per-outcome case counts.
	Passed  int `json:"passed" db:"passed"`
	Failed  int `json:"failed" db:"failed"`
	Skipped int `json:"skipped" db:"skipped"`

	// PassPercent is the pass rate in [0,100], taken from the report's
	// percentage column when present, otherwise derived from the counts.
	PassPercent float64 `json:"pass_percent" db:"pass_percent"`

	// SourceMessageID is the mail message the record was extracted from.
	// Diagnostic only; not part of the record's identity.
	SourceMessageID string `json:"source_message_id" db:"source_message_id"`

	// IngestedAt is when the record was written to the store.
	IngestedAt time.Time `json:"ingested_at" db:"ingested_at"`
}

// HistoryKey is the deduplication identity of one suite execution. Two
// records with the same key describe the same run.
type HistoryKey struct {
	SuiteName  string
	ExecutedAt time.Time
}

// Key returns the record's deduplication identity. The timestamp is
// normalized to UTC so keys compare equal across source time zones and
// are usable as map keys.
func (r ReportRecord) Key() HistoryKey {
	return HistoryKey{SuiteName: r.SuiteName, ExecutedAt: r.ExecutedAt.UTC()}
}

// Consistent reports whether the count columns agree with each other.
// A report table that omits a count column legitimately fails this;
// the mismatch is surfaced, never corrected.
func (r ReportRecord) Consistent() bool {
	return r.Total == r.Passed+r.Failed+r.Skipped
}

// DerivePassPercent computes the pass rate from the counts. Returns 0
// when the run had no cases.
func DerivePassPercent(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(passed) / float64(total) * 100
}

// IngestionSummary reports the outcome of one ingestion run.
type IngestionSummary struct {
	// Accepted is the number of new records written to the store.
	Accepted int `json:"accepted"`

	// SkippedDuplicate counts records whose HistoryKey was already
	// persisted or already staged earlier in the same run.
	SkippedDuplicate int `json:"skipped_duplicate"`

	// SkippedUnparseable counts messages whose body yielded no usable
	// report table.
	SkippedUnparseable int `json:"skipped_unparseable"`
}

// RunRecord is the audit entry for one ingestion run, persisted even
// when the run fails.
type RunRecord struct {
	ID                 string    `json:"id" db:"id"`
	StartedAt          time.Time `json:"started_at" db:"started_at"`
	FinishedAt         time.Time `json:"finished_at" db:"finished_at"`
	Accepted           int       `json:"accepted" db:"accepted"`
	SkippedDuplicate   int       `json:"skipped_duplicate" db:"skipped_duplicate"`
	SkippedUnparseable int       `json:"skipped_unparseable" db:"skipped_unparseable"`

	// Error holds the fatal run error, empty on success.
	Error string `json:"error" db:"error"`
}
