package core

import (
	"errors"

	"github.com/google/uuid"
)

// VirtualEntry is a projected, non-persisted occurrence of a recurrence
// template on a specific date. It carries the full entry shape plus the
// projection markers, so real and virtual entries never need runtime
// attribute probing to tell apart.
type VirtualEntry struct {
	LedgerEntry
	OccurrenceID     uuid.UUID // identity within a single projection call
	TemplateID       int64     // originating template
	PairedOccurrence uuid.UUID // the other side of a projected transfer, zero if none
}

var (
	ErrNotTransferPair   = errors.New("entries are not a transfer pair")
	ErrPairSameAccount   = errors.New("transfer pair references the same account")
	ErrPairMismatch      = errors.New("transfer pair sides have different date or amount")
	ErrPairSameDirection = errors.New("transfer pair sides have the same direction")
)

// NewVirtualEntry stamps an entry copied from a template as generated.
func NewVirtualEntry(from LedgerEntry, templateID int64, date Date) VirtualEntry {
	e := from
	e.ID = 0
	e.Date = date
	return VirtualEntry{
		LedgerEntry:  e,
		OccurrenceID: uuid.New(),
		TemplateID:   templateID,
	}
}

// ValidateTransferPair checks that debit and credit form one economic event:
// mutual pairing, transfer flags on both sides, identical date and amount,
// opposite directions and distinct accounts.
func ValidateTransferPair(debit, credit LedgerEntry) error {
	if !debit.IsTransfer || !credit.IsTransfer {
		return ErrNotTransferPair
	}
	if debit.ID != 0 && credit.ID != 0 {
		if debit.PairedID != credit.ID || credit.PairedID != debit.ID {
			return ErrNotTransferPair
		}
	}
	if debit.Direction == credit.Direction {
		return ErrPairSameDirection
	}
	if debit.AccountID == credit.AccountID {
		return ErrPairSameAccount
	}
	if !debit.Date.Equal(credit.Date.Time) || !debit.Amount.Equal(credit.Amount) {
		return ErrPairMismatch
	}
	return nil
}
