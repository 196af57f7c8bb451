// Package services orchestrates transactions, projections and balance
// series across storage, AMQP and the exchange-rate client.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"foyer/internal/core"
	"foyer/internal/storage"
)

// SyncPublisher enqueues export requests for persisted transactions.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
}

// TransactionService writes transactions to SQLite and notifies the export
// pipeline. SQLite is the source of truth; publishing is best effort.
type TransactionService struct {
	storage       *storage.SQLiteRepository
	publisher     SyncPublisher
	enforceWindow bool
}

func NewTransactionService(storage *storage.SQLiteRepository, publisher SyncPublisher) *TransactionService {
	return &TransactionService{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateTransaction saves a transaction locally and publishes a sync message.
func (s *TransactionService) CreateTransaction(ctx context.Context, e core.LedgerEntry) (int64, error) {
	id, err := s.storage.CreateEntry(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, id)
	return id, nil
}

// EnforceTemplateWindow toggles the policy that a template's own entry date
// must fall inside its validity window.
func (s *TransactionService) EnforceTemplateWindow(on bool) {
	s.enforceWindow = on
}

// CreateRecurring saves a recurring transaction template.
func (s *TransactionService) CreateRecurring(ctx context.Context, t core.RecurrenceTemplate) (int64, error) {
	if err := core.ValidateTemplateWindow(t, s.enforceWindow); err != nil {
		return 0, err
	}
	id, err := s.storage.CreateTemplate(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save recurring transaction: %w", err)
	}

	s.publishSync(ctx, id)
	return id, nil
}

// CreateTransfer persists both sides of a transfer and pairs them. The two
// entries must reference distinct accounts and carry opposite directions
// with the same date and amount. Both rows are written in one storage
// transaction, so a failed side never strands its twin.
func (s *TransactionService) CreateTransfer(ctx context.Context, debit, credit core.LedgerEntry) (int64, int64, error) {
	debit.IsTransfer = true
	credit.IsTransfer = true
	if err := core.ValidateTransferPair(debit, credit); err != nil {
		return 0, 0, err
	}

	debitID, creditID, err := s.storage.CreateTransfer(ctx, debit, credit)
	if err != nil {
		return 0, 0, fmt.Errorf("save transfer: %w", err)
	}

	s.publishSync(ctx, debitID)
	s.publishSync(ctx, creditID)
	return debitID, creditID, nil
}

func (s *TransactionService) publishSync(ctx context.Context, id int64) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "No sync publisher configured, skipping sync message", "id", id)
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id, 1); err != nil {
		// The transaction is already saved locally; the export worker will
		// pick it up on the next full sync.
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

func (s *TransactionService) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("close transaction service: %w", err)
		}
	}
	return nil
}
