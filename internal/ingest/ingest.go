// Package ingest orchestrates one batch ingestion run: resolve the
// report folder, page its messages, extract report records, and
// reconcile them against the persisted history.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/akaul/reportdash/internal/model"
	"github.com/akaul/reportdash/internal/report"
	"github.com/akaul/reportdash/internal/store"
)

// ErrFolderNotFound is returned when the configured report folder does
// not exist under the inbox. A missing folder is misconfiguration, not
// an empty mailbox, so the whole run aborts instead of degrading to
// zero records.
var ErrFolderNotFound = errors.New("report folder not found")

// Mailbox is the mail-API surface the coordinator drives. Folder
// resolution carries the authentication step: an invalid identity
// surfaces here as a source.AuthError before any message is read.
type Mailbox interface {
	ResolveFolder(ctx context.Context, name string) (model.Folder, bool, error)
	ListMessages(ctx context.Context, folder model.Folder, limit int) ([]model.Message, error)
}

// Config holds the per-run ingestion parameters.
type Config struct {
	// Folder is the display name of the report folder under the inbox.
	Folder string

	// FetchLimit bounds how many most-recent messages one run reads.
	FetchLimit int

	// OnDuplicate is the duplicate-HistoryKey policy
	// (model.OnDuplicateReject or model.OnDuplicateRefresh).
	OnDuplicate string
}

// Coordinator drives the ingestion pipeline top-down once per Run call.
// Processing is single-threaded and sequential; per-message failures
// are isolated, run-level failures abort the batch.
type Coordinator struct {
	log     logrus.FieldLogger
	mailbox Mailbox
	store   store.Store
	cfg     Config
	now     func() time.Time
}

// New creates an ingestion coordinator.
func New(log logrus.FieldLogger, mailbox Mailbox, st store.Store, cfg Config) *Coordinator {
	if cfg.OnDuplicate == "" {
		cfg.OnDuplicate = model.OnDuplicateReject
	}
	return &Coordinator{
		log:     log,
		mailbox: mailbox,
		store:   st,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Run executes one ingestion batch and returns its summary. The
// summary counts are valid even when the returned error is non-nil. An
// audit record is appended for every run, failed ones included.
func (c *Coordinator) Run(ctx context.Context) (model.IngestionSummary, error) {
	startedAt := c.now()
	summary, runErr := c.run(ctx)

	run := model.RunRecord{
		ID:                 uuid.New().String(),
		StartedAt:          startedAt,
		FinishedAt:         c.now(),
		Accepted:           summary.Accepted,
		SkippedDuplicate:   summary.SkippedDuplicate,
		SkippedUnparseable: summary.SkippedUnparseable,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := c.store.AppendRun(ctx, run); err != nil {
		c.log.WithError(err).Warn("recording ingestion run failed")
	}

	return summary, runErr
}

func (c *Coordinator) run(ctx context.Context) (model.IngestionSummary, error) {
	var summary model.IngestionSummary

	folder, found, err := c.mailbox.ResolveFolder(ctx, c.cfg.Folder)
	if err != nil {
		return summary, fmt.Errorf("resolving folder %q: %w", c.cfg.Folder, err)
	}
	if !found {
		return summary, fmt.Errorf("%w: %q", ErrFolderNotFound, c.cfg.Folder)
	}

	messages, err := c.mailbox.ListMessages(ctx, folder, c.cfg.FetchLimit)
	if err != nil {
		return summary, fmt.Errorf("listing messages in %q: %w", c.cfg.Folder, err)
	}

	c.log.WithFields(logrus.Fields{
		"folder":   c.cfg.Folder,
		"messages": len(messages),
	}).Info("fetched report messages")

	candidates := c.extractAll(messages, folder, &summary)

	// Order candidates by execution time rather than trusting the
	// upstream listing order, so the dedup winner for a key is
	// deterministic regardless of API default sort. The sort is
	// stable: ties keep message order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ExecutedAt.After(candidates[j].ExecutedAt)
	})

	if err := c.reconcile(ctx, candidates, &summary); err != nil {
		return summary, err
	}

	c.log.WithFields(logrus.Fields{
		"accepted":            summary.Accepted,
		"skipped_duplicate":   summary.SkippedDuplicate,
		"skipped_unparseable": summary.SkippedUnparseable,
	}).Info("ingestion run complete")

	return summary, nil
}

// extractAll turns each message body into zero or more candidate
// records. A failure on message i never prevents processing message
// i+1; unusable messages are counted and skipped.
func (c *Coordinator) extractAll(
	messages []model.Message,
	folder model.Folder,
	summary *model.IngestionSummary,
) []model.ReportRecord {
	var candidates []model.ReportRecord

	for _, msg := range messages {
		res, err := report.Extract(msg.BodyHTML)
		if err != nil {
			summary.SkippedUnparseable++
			c.log.WithError(err).WithField("message_id", msg.ID).
				Warn("skipping unparseable message")
			continue
		}
		if res == nil || len(res.Records) == 0 {
			summary.SkippedUnparseable++
			c.log.WithField("message_id", msg.ID).
				Debug("message carries no report table")
			continue
		}

		if len(res.UnknownColumns) > 0 {
			c.log.WithFields(logrus.Fields{
				"message_id": msg.ID,
				"columns":    strings.Join(res.UnknownColumns, ", "),
			}).Warn("dropping unrecognized report columns")
		}

		for _, rec := range res.Records {
			if rec.SuiteName == "" {
				rec.SuiteName = strings.TrimSpace(msg.Subject)
			}
			if rec.SuiteName == "" {
				rec.SuiteName = folder.DisplayName
			}
			if rec.ExecutedAt.IsZero() {
				rec.ExecutedAt = msg.ReceivedAt
			}
			rec.SourceMessageID = msg.ID

			if !rec.Consistent() {
				// Usually a count column the report omitted; the
				// record stays as the table said.
				c.log.WithFields(logrus.Fields{
					"suite":   rec.SuiteName,
					"total":   rec.Total,
					"passed":  rec.Passed,
					"failed":  rec.Failed,
					"skipped": rec.Skipped,
				}).Warn("count columns do not add up")
			}

			candidates = append(candidates, rec)
		}
	}

	return candidates
}

// reconcile walks the candidates in order, deduplicating first against
// keys already staged in this run and then against persisted history.
// The first-seen candidate for a key wins; later ones are duplicates.
func (c *Coordinator) reconcile(
	ctx context.Context,
	candidates []model.ReportRecord,
	summary *model.IngestionSummary,
) error {
	staged := make(map[model.HistoryKey]bool)

	for _, rec := range candidates {
		key := rec.Key()

		if staged[key] {
			summary.SkippedDuplicate++
			continue
		}
		staged[key] = true

		exists, err := c.store.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("checking history for %s: %w", rec.SuiteName, err)
		}

		rec.IngestedAt = c.now()

		if exists {
			if c.cfg.OnDuplicate == model.OnDuplicateRefresh {
				if err := c.store.Replace(ctx, rec); err != nil {
					return fmt.Errorf("refreshing record for %s: %w", rec.SuiteName, err)
				}
				summary.Accepted++
				continue
			}
			summary.SkippedDuplicate++
			continue
		}

		// A constraint violation here escaped the dedup check above;
		// it is an integrity bug and aborts the run.
		if err := c.store.Append(ctx, rec); err != nil {
			return fmt.Errorf("persisting record for %s: %w", rec.SuiteName, err)
		}
		summary.Accepted++
	}

	return nil
}
