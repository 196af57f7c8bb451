package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"foyer/internal/balance"
	"foyer/internal/core"
	"foyer/internal/recurrence"
	"foyer/internal/storage"
)

// BalanceSeries is a reconstructed daily balance curve plus the currency its
// values are expressed in.
type BalanceSeries struct {
	AccountID int64
	Currency  string
	Points    []balance.Point
}

// BalanceService rebuilds an account's daily balance series from its
// snapshot, its persisted transactions and its projected recurring ones,
// optionally converted to a display currency.
type BalanceService struct {
	storage   *storage.SQLiteRepository
	converter balance.Converter
}

// NewBalanceService builds the service. converter may be nil, in which case
// series always stay in the account's native currency.
func NewBalanceService(storage *storage.SQLiteRepository, converter balance.Converter) *BalanceService {
	return &BalanceService{
		storage:   storage,
		converter: converter,
	}
}

// Series reconstructs one balance point per day in [start, end]. Projected
// occurrences run through end, so the curve extends into the future when end
// lies beyond the last persisted transaction. When displayCurrency is set
// and differs from the account's currency, the points are converted
// best-effort.
func (s *BalanceService) Series(ctx context.Context, accountID int64, start, end core.Date, displayCurrency string) (BalanceSeries, error) {
	var (
		account   core.BankAccount
		entries   []core.LedgerEntry
		templates []core.RecurrenceTemplate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		account, err = s.storage.GetAccount(gctx, accountID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.storage.EntriesByAccount(gctx, accountID)
		return err
	})
	g.Go(func() error {
		var err error
		templates, err = s.storage.TemplatesByAccount(gctx, accountID)
		return err
	})
	if err := g.Wait(); err != nil {
		return BalanceSeries{}, fmt.Errorf("load account data: %w", err)
	}

	var virtual []core.VirtualEntry
	for _, tpl := range templates {
		virtual = append(virtual, recurrence.Expand(tpl, entries, end)...)
	}

	points, err := balance.Reconstruct(account.Snapshot, entries, virtual, start, end)
	if err != nil {
		return BalanceSeries{}, fmt.Errorf("reconstruct balance: %w", err)
	}

	currency := account.Currency
	if displayCurrency != "" && displayCurrency != account.Currency && s.converter != nil {
		points = balance.ConvertSeries(ctx, points, account.Currency, displayCurrency, s.converter)
		currency = displayCurrency
	}

	return BalanceSeries{AccountID: accountID, Currency: currency, Points: points}, nil
}
