// Package worker consumes transaction sync messages and exports the
// corresponding rows to the configured sheets backend.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"foyer/internal/amqp"
	"foyer/internal/sheets"
	"foyer/internal/storage"
)

// SyncWorker exports persisted transactions to a spreadsheet. It reads each
// transaction fresh from SQLite when its message arrives, so messages stay
// small and never carry stale data.
type SyncWorker struct {
	storage *storage.SQLiteRepository
	sheets  sheets.TransactionWriter
}

func NewSyncWorker(storage *storage.SQLiteRepository, writer sheets.TransactionWriter) *SyncWorker {
	return &SyncWorker{
		storage: storage,
		sheets:  writer,
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	entry, err := w.storage.GetEntry(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.sheets.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", msg.ID,
		"sheets_ref", ref,
		"description", entry.Description,
		"amount", entry.Amount.String())
	return nil
}
