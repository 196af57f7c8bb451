package services

import (
	"context"
	"sort"

	"foyer/internal/core"
	"foyer/internal/recurrence"
	"foyer/internal/storage"
)

// ProjectedLedger is a household's transactions as of a date: the persisted
// rows plus the virtual occurrences projected from recurring templates.
type ProjectedLedger struct {
	Real    []core.LedgerEntry
	Virtual []core.VirtualEntry
}

// ProjectionService expands a household's recurring templates into dated
// virtual occurrences and merges them with the persisted ledger.
type ProjectionService struct {
	storage *storage.SQLiteRepository
}

func NewProjectionService(storage *storage.SQLiteRepository) *ProjectionService {
	return &ProjectionService{storage: storage}
}

// HouseholdTransactions lists the household's ledger as of asOf. Recurring
// transfers expand in lockstep so both accounts stay in step; standalone
// templates expand on their own. Virtual occurrences are ordered by date.
func (s *ProjectionService) HouseholdTransactions(ctx context.Context, householdID int64, asOf core.Date) (ProjectedLedger, error) {
	entries, err := s.storage.EntriesByHousehold(ctx, householdID)
	if err != nil {
		return ProjectedLedger{}, err
	}
	templates, err := s.storage.TemplatesByHousehold(ctx, householdID)
	if err != nil {
		return ProjectedLedger{}, err
	}

	byAccount := make(map[int64][]core.LedgerEntry)
	for _, e := range entries {
		byAccount[e.AccountID] = append(byAccount[e.AccountID], e)
	}

	virtual := expandTemplates(ctx, templates, byAccount, asOf, s.storage)
	sort.SliceStable(virtual, func(i, j int) bool {
		return virtual[i].Date.Before(virtual[j].Date.Time)
	})

	return ProjectedLedger{Real: entries, Virtual: virtual}, nil
}

// AccountTransactions is the single-account view of the same projection.
// Transfer templates still expand through the pairer, so their recipients
// reflect current account ownership; only the occurrences landing on this
// account are kept.
func (s *ProjectionService) AccountTransactions(ctx context.Context, accountID int64, asOf core.Date) (ProjectedLedger, error) {
	entries, err := s.storage.EntriesByAccount(ctx, accountID)
	if err != nil {
		return ProjectedLedger{}, err
	}
	templates, err := s.storage.TemplatesByAccount(ctx, accountID)
	if err != nil {
		return ProjectedLedger{}, err
	}

	var virtual []core.VirtualEntry
	for _, tpl := range templates {
		if tpl.IsTransfer && tpl.PairedID != 0 {
			occs, err := s.expandTransferSide(ctx, tpl, entries, asOf)
			if err == nil {
				for _, v := range occs {
					if v.AccountID == accountID {
						virtual = append(virtual, v)
					}
				}
				continue
			}
			// The counterpart could not be resolved; expand standalone
			// rather than dropping the occurrences.
		}
		virtual = append(virtual, recurrence.Expand(tpl, entries, asOf)...)
	}
	sort.SliceStable(virtual, func(i, j int) bool {
		return virtual[i].Date.Before(virtual[j].Date.Time)
	})

	return ProjectedLedger{Real: entries, Virtual: virtual}, nil
}

// expandTransferSide loads the counterpart template of a recurring transfer
// and expands the pair in lockstep. The dedup baseline is always the debit
// account's ledger, fetched when this side is the credit one.
func (s *ProjectionService) expandTransferSide(ctx context.Context, tpl core.RecurrenceTemplate, own []core.LedgerEntry, asOf core.Date) ([]core.VirtualEntry, error) {
	pair, err := s.storage.GetTemplate(ctx, tpl.PairedID)
	if err != nil {
		return nil, err
	}
	if pair.PairedID != tpl.ID {
		return nil, core.ErrNotTransferPair
	}

	debit, credit := tpl, pair
	if debit.Direction != core.Debit {
		debit, credit = credit, debit
	}
	real := own
	if debit.AccountID != tpl.AccountID {
		if real, err = s.storage.EntriesByAccount(ctx, debit.AccountID); err != nil {
			return nil, err
		}
	}
	return recurrence.ExpandPair(ctx, debit, credit, real, asOf, s.storage), nil
}

// expandTemplates walks the template list once, expanding each transfer pair
// a single time from its debit side and every standalone template directly.
func expandTemplates(ctx context.Context, templates []core.RecurrenceTemplate, byAccount map[int64][]core.LedgerEntry, asOf core.Date, owners recurrence.AccountLookup) []core.VirtualEntry {
	byID := make(map[int64]core.RecurrenceTemplate, len(templates))
	for _, t := range templates {
		byID[t.ID] = t
	}

	var virtual []core.VirtualEntry
	done := make(map[int64]bool)
	for _, tpl := range templates {
		if done[tpl.ID] {
			continue
		}

		pair, isPair := byID[tpl.PairedID]
		if tpl.IsTransfer && isPair && pair.PairedID == tpl.ID {
			debit, credit := tpl, pair
			if debit.Direction != core.Debit {
				debit, credit = credit, debit
			}
			virtual = append(virtual,
				recurrence.ExpandPair(ctx, debit, credit, byAccount[debit.AccountID], asOf, owners)...)
			done[tpl.ID] = true
			done[pair.ID] = true
			continue
		}

		virtual = append(virtual, recurrence.Expand(tpl, byAccount[tpl.AccountID], asOf)...)
		done[tpl.ID] = true
	}
	return virtual
}
