// Package worker drains the offline journal into the spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/sheets"
	"kakeibo/internal/storage"
)

// SyncWorker copies transactions from the SQLite journal to the spreadsheet.
// Messages are the fast path; the pending scan is the backup mechanism in
// case AMQP messages are lost.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	sheets    sheets.TransactionStore
	batchSize int
}

func NewSyncWorker(st *storage.SQLiteRepository, sh sheets.TransactionStore, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   st,
		sheets:    sh,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	t, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if t == nil {
		// Row was deleted locally before the sync ran ("delete last", reset)
		slog.InfoContext(ctx, "Transaction no longer exists, skipping sync", "id", msg.ID)
		return nil
	}

	if err := w.syncToSheets(ctx, msg.ID, *t); err != nil {
		return fmt.Errorf("sync transaction to sheets: %w", err)
	}

	return nil
}

// ProcessPendingTransactions syncs any rows that never made it through the
// queue. Runs on a ticker.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck recovers from missed messages or worker downtime by
// draining a larger batch at boot.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize*5)
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	successCount := 0
	errorCount := 0
	for _, p := range pending {
		t, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}
		if t == nil {
			continue
		}

		if err := w.syncToSheets(ctx, p.ID, *t); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Pending sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncToSheets(ctx context.Context, id int64, t core.Transaction) error {
	ref, err := w.sheets.Append(ctx, t)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The sheet write worked; the next pending scan would re-append, so
		// surface this loudly
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Transaction synced to sheets",
		"id", id,
		"sheets_ref", ref,
		"category", t.Category,
		"amount_cents", t.Amount.Cents)

	return nil
}
