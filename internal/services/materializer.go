package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"foyer/internal/core"
	"foyer/internal/storage"
)

// Materializer turns due virtual occurrences into persisted transactions.
// Projection stays read-only; this is the single writer that makes a
// recurring charge real once its date arrives.
type Materializer struct {
	storage      *storage.SQLiteRepository
	transactions *TransactionService
	interval     time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMaterializer(storage *storage.SQLiteRepository, transactions *TransactionService, interval time.Duration) *Materializer {
	return &Materializer{
		storage:      storage,
		transactions: transactions,
		interval:     interval,
	}
}

// Start begins the periodic materialization loop. Returns an error if
// already running.
func (m *Materializer) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("materializer is already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	go m.runLoop(ctx)

	slog.InfoContext(ctx, "Materializer started", "interval", m.interval)
	return nil
}

// Stop signals the loop and waits for it to drain.
func (m *Materializer) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	close(m.stopCh)

	select {
	case <-m.doneCh:
		slog.InfoContext(ctx, "Materializer stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Materializer stop timed out")
		return ctx.Err()
	}

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
	return nil
}

func (m *Materializer) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Materializer) runLoop(ctx context.Context) {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Catch up immediately on startup.
	m.tick(ctx)

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Materializer) tick(ctx context.Context) {
	if _, err := m.ProcessDue(ctx, core.DateOf(time.Now())); err != nil {
		slog.ErrorContext(ctx, "Materialization pass failed", "error", err)
	}
}

// ProcessDue persists every projected occurrence dated on or before asOf
// that has no matching transaction yet. Returns the number created.
func (m *Materializer) ProcessDue(ctx context.Context, asOf core.Date) (int, error) {
	if m.storage == nil || m.transactions == nil {
		return 0, fmt.Errorf("materializer not properly initialized")
	}

	households, err := m.storage.Households(ctx)
	if err != nil {
		return 0, fmt.Errorf("list households: %w", err)
	}

	created := 0
	for _, h := range households {
		n, err := m.processHousehold(ctx, h.ID, asOf)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize household",
				"household_id", h.ID,
				"error", err)
			continue
		}
		created += n
	}

	slog.InfoContext(ctx, "Materialization pass complete",
		"households", len(households),
		"created", created,
		"as_of", asOf.String())
	return created, nil
}

func (m *Materializer) processHousehold(ctx context.Context, householdID int64, asOf core.Date) (int, error) {
	entries, err := m.storage.EntriesByHousehold(ctx, householdID)
	if err != nil {
		return 0, fmt.Errorf("list household transactions: %w", err)
	}
	templates, err := m.storage.TemplatesByHousehold(ctx, householdID)
	if err != nil {
		return 0, fmt.Errorf("list templates: %w", err)
	}

	byAccount := make(map[int64][]core.LedgerEntry)
	for _, e := range entries {
		byAccount[e.AccountID] = append(byAccount[e.AccountID], e)
	}

	occurrences := expandTemplates(ctx, templates, byAccount, asOf, m.storage)
	byOccurrence := make(map[uuid.UUID]core.VirtualEntry, len(occurrences))
	for _, occ := range occurrences {
		byOccurrence[occ.OccurrenceID] = occ
	}

	created := 0
	done := make(map[uuid.UUID]bool)
	for _, occ := range occurrences {
		if done[occ.OccurrenceID] {
			continue
		}
		done[occ.OccurrenceID] = true

		exists, err := m.occurrenceExists(ctx, occ)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check occurrence existence",
				"template_id", occ.TemplateID,
				"date", occ.Date.String(),
				"error", err)
			continue
		}
		if exists {
			continue
		}

		partner, paired := byOccurrence[occ.PairedOccurrence]
		if paired {
			done[partner.OccurrenceID] = true
			debit, credit := occ, partner
			if debit.Direction != core.Debit {
				debit, credit = credit, debit
			}
			debitEntry, creditEntry := debit.LedgerEntry, credit.LedgerEntry
			debitEntry.PairedID, creditEntry.PairedID = 0, 0
			if _, _, err := m.transactions.CreateTransfer(ctx, debitEntry, creditEntry); err != nil {
				slog.ErrorContext(ctx, "Failed to materialize transfer occurrence",
					"template_id", occ.TemplateID,
					"date", occ.Date.String(),
					"error", err)
				continue
			}
			created += 2
		} else {
			entry := occ.LedgerEntry
			entry.IsTransfer = false
			entry.PairedID = 0
			if _, err := m.transactions.CreateTransaction(ctx, entry); err != nil {
				slog.ErrorContext(ctx, "Failed to materialize occurrence",
					"template_id", occ.TemplateID,
					"date", occ.Date.String(),
					"error", err)
				continue
			}
			created++
		}

		slog.InfoContext(ctx, "Materialized recurring transaction",
			"template_id", occ.TemplateID,
			"date", occ.Date.String(),
			"description", occ.Description,
			"amount", occ.Amount.String())
	}
	return created, nil
}

// occurrenceExists re-checks the identity triple right before insert; the
// expansion deduplicated against a list that may be stale by now.
func (m *Materializer) occurrenceExists(ctx context.Context, occ core.VirtualEntry) (bool, error) {
	return m.storage.EntryExists(ctx, occ.AccountID, occ.Date, occ.Description, occ.Amount)
}
