package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"fluxo/internal/amqp"
	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/sheets"
	"fluxo/internal/storage"
)

// EntrySource is the read side of the ledger the exporter needs.
type EntrySource interface {
	ListEntries(ctx context.Context, ownerID string, f storage.EntryFilter) ([]core.LedgerEntry, error)
	OwnersWithEntries(ctx context.Context, period string) ([]string, error)
}

// ExportWorker mirrors changed ledger periods into the export sink. Every
// export rewrites a whole period, so redelivered messages are harmless.
type ExportWorker struct {
	entries  EntrySource
	exporter sheets.LedgerExporter
	logger   *log.Logger
}

func NewExportWorker(entries EntrySource, exporter sheets.LedgerExporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &ExportWorker{
		entries:  entries,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerChanged exports every period named by the message. Malformed
// periods are skipped; an export failure is returned so the message is
// redelivered.
func (w *ExportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger changed message",
		log.FieldMessageID, msg.ID,
		log.FieldOwnerID, msg.OwnerID,
		"periods", msg.Periods,
		"version", msg.Version)

	if msg.OwnerID == "" {
		w.logger.WarnContext(ctx, "Ledger changed message without owner, skipping", log.FieldMessageID, msg.ID)
		return nil
	}

	var errs []error
	for _, period := range uniquePeriods(msg.Periods) {
		if !core.ValidPeriod(period) {
			w.logger.WarnContext(ctx, "Skipping malformed period",
				log.FieldMessageID, msg.ID,
				log.FieldPeriod, period)
			continue
		}
		if err := w.ExportPeriod(ctx, msg.OwnerID, period); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExportPeriod loads one owner's period and hands it to the exporter.
func (w *ExportWorker) ExportPeriod(ctx context.Context, ownerID, period string) error {
	entries, err := w.entries.ListEntries(ctx, ownerID, storage.EntryFilter{Period: period})
	if err != nil {
		return fmt.Errorf("load period %s for %s: %w", period, ownerID, err)
	}
	if err := w.exporter.ExportPeriod(ctx, ownerID, period, entries); err != nil {
		w.logger.ErrorContext(ctx, "Failed to export period",
			log.FieldOwnerID, ownerID,
			log.FieldPeriod, period,
			log.FieldError, err.Error())
		return fmt.Errorf("export period %s for %s: %w", period, ownerID, err)
	}
	w.logger.InfoContext(ctx, "Exported period",
		log.FieldOwnerID, ownerID,
		log.FieldPeriod, period,
		"entries", len(entries))
	return nil
}

// ReconcilePeriod re-exports period for every owner that has entries in it.
// It recovers from messages lost while the worker was down.
func (w *ExportWorker) ReconcilePeriod(ctx context.Context, period string) error {
	owners, err := w.entries.OwnersWithEntries(ctx, period)
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", period, err)
	}
	if len(owners) == 0 {
		w.logger.InfoContext(ctx, "No entries to reconcile", log.FieldPeriod, period)
		return nil
	}

	exported, failed := 0, 0
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("reconcile %s: %w", period, err)
		}
		if err := w.ExportPeriod(ctx, owner, period); err != nil {
			failed++
			continue
		}
		exported++
	}

	w.logger.InfoContext(ctx, "Reconcile completed",
		log.FieldPeriod, period,
		"owners", len(owners),
		"exported", exported,
		"errors", failed)
	if failed > 0 {
		return fmt.Errorf("reconcile %s: %d of %d owners failed", period, failed, len(owners))
	}
	return nil
}

func uniquePeriods(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
