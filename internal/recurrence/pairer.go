package recurrence

import (
	"context"
	"log/slog"

	"foyer/internal/core"
)

// AccountLookup resolves the current owners of a bank account. The pairer
// recomputes recipients from live ownership instead of copying them off the
// template, since ownership may have changed since the template was created.
type AccountLookup interface {
	OwnersOf(ctx context.Context, accountID int64) ([]int64, error)
}

// ExpandPair projects both sides of a recurring transfer in lockstep. For
// every occurrence date of the debit side it emits a matching credit-side
// occurrence carrying the credit template's description, amount and account,
// and cross-links the two virtual entries to each other rather than to the
// persisted pair.
//
// The result interleaves debit and credit per date. A pair that fails
// transfer validation expands to nothing.
func ExpandPair(ctx context.Context, debit, credit core.RecurrenceTemplate, real []core.LedgerEntry, asOf core.Date, owners AccountLookup) []core.VirtualEntry {
	if err := core.ValidateTransferPair(debit.LedgerEntry, credit.LedgerEntry); err != nil {
		slog.WarnContext(ctx, "Skipping malformed transfer pair",
			"debit_id", debit.ID,
			"credit_id", credit.ID,
			"error", err)
		return nil
	}

	debits := Expand(debit, real, asOf)
	if len(debits) == 0 {
		return nil
	}

	// Each side's recipient derives from the other side's account: money
	// arriving on a single-owner account concerns that member, anything
	// else the family. Ownership is the same for every projected date, so
	// resolve once per side.
	debitRecipient := recipientFor(ctx, owners, credit.AccountID)
	creditRecipient := recipientFor(ctx, owners, debit.AccountID)

	out := make([]core.VirtualEntry, 0, 2*len(debits))
	for _, d := range debits {
		d.Recipient = debitRecipient
		c := core.NewVirtualEntry(credit.LedgerEntry, credit.ID, d.Date)
		c.Recipient = creditRecipient
		d.PairedOccurrence = c.OccurrenceID
		c.PairedOccurrence = d.OccurrenceID
		out = append(out, d, c)
	}
	return out
}

// recipientFor applies the ownership rule, degrading to Family when the
// lookup fails so a storage hiccup never aborts a projection.
func recipientFor(ctx context.Context, owners AccountLookup, accountID int64) core.Recipient {
	if owners == nil {
		return core.FamilyRecipient()
	}
	ids, err := owners.OwnersOf(ctx, accountID)
	if err != nil {
		slog.WarnContext(ctx, "Account ownership lookup failed, defaulting recipient to family",
			"account_id", accountID,
			"error", err)
		return core.FamilyRecipient()
	}
	return core.RecipientForOwners(ids)
}
