package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/akaul/reportdash/internal/model"
)

// StorageError indicates a store-level constraint violation on append,
// e.g. a primary-key duplicate. The coordinator's dedup check runs
// first, so hitting this is an integrity bug, not a normal path; it is
// surfaced, never swallowed.
type StorageError struct {
	Key model.HistoryKey
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf(
		"storage constraint violated for (%s, %s): %v",
		e.Key.SuiteName, e.Key.ExecutedAt, e.Err,
	)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err (or any error in its chain) is a
// StorageError.
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// Store is the persistence contract shared by the ingestion pipeline
// (append side) and the viewer (query side). Records are immutable once
// written; Replace exists only for the explicit refresh duplicate policy.
type Store interface {
	// === Report series ===

	Append(ctx context.Context, rec model.ReportRecord) error
	Replace(ctx context.Context, rec model.ReportRecord) error
	Exists(ctx context.Context, key model.HistoryKey) (bool, error)

	// QueryBySuite returns all records for one suite, most-recent
	// execution first.
	QueryBySuite(ctx context.Context, name string) ([]model.ReportRecord, error)

	// Suites returns the distinct suite names, alphabetical.
	Suites(ctx context.Context) ([]string, error)

	// === Ingestion run audit ===

	AppendRun(ctx context.Context, run model.RunRecord) error
	LatestRun(ctx context.Context) (*model.RunRecord, error)
}
