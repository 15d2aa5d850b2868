// Package worker mirrors ledger records into the export spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/sheets"
	"bilancio/internal/storage"
)

// ExportWorker consumes ledger events and keeps the spreadsheet in
// step with storage. Events drive the hot path; ProcessPending sweeps
// up anything a lost message left behind.
type ExportWorker struct {
	storage   *storage.Repository
	appender  sheets.RowAppender
	remover   sheets.RowRemover
	batchSize int
}

func NewExportWorker(storage *storage.Repository, appender sheets.RowAppender, remover sheets.RowRemover, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleEvent processes one ledger event. Returning an error requeues
// the message, so transient sheet failures are retried by the broker.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	switch event.Kind {
	case amqp.KindTransactionCreated:
		return w.exportTransaction(ctx, event.TransactionID)
	case amqp.KindTransactionDeleted:
		if w.remover == nil {
			slog.WarnContext(ctx, "No row remover configured, skipping deletion",
				"transaction_id", event.TransactionID)
			return nil
		}
		return w.remover.RemoveTransactionRow(ctx, event.TransactionID)
	case amqp.KindUserDeleted:
		if w.remover == nil {
			slog.WarnContext(ctx, "No row remover configured, skipping user cleanup",
				"user_id", event.UserID)
			return nil
		}
		return w.remover.RemoveUserRows(ctx, event.UserID)
	default:
		// Unknown kinds are dropped, not requeued: a newer producer may
		// emit kinds this worker does not understand yet.
		slog.WarnContext(ctx, "Ignoring unknown event kind", "kind", event.Kind)
		return nil
	}
}

func (w *ExportWorker) exportTransaction(ctx context.Context, id int64) error {
	t, err := w.storage.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before the event was consumed. The delete event will
		// clean up the sheet if an earlier export got through.
		slog.InfoContext(ctx, "Transaction gone before export", "transaction_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	rowRef, err := w.appender.Append(ctx, t)
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	if err := w.storage.MarkExported(ctx, t.ID); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"transaction_id", t.ID, "row", rowRef)
	return nil
}

// ProcessPending exports transactions whose events never arrived. One
// failed record does not stop the batch.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.ListUnexported(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unexported: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing unexported transactions", "count", len(pending))

	for _, t := range pending {
		if err := w.exportTransaction(ctx, t.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction",
				"transaction_id", t.ID, "error", err)
		}
	}
	return nil
}
