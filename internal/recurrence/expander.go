package recurrence

import (
	"github.com/shopspring/decimal"

	"foyer/internal/core"
)

// maxOccurrences bounds a single expansion so a pathological template
// (daily over a decades-long window) cannot blow up a request.
const maxOccurrences = 500

// firstOccurrenceIterations bounds the search for the first occurrence when
// the template date lies far before the validity window.
const firstOccurrenceIterations = 1200

// dedupKey identifies an occurrence for deduplication against real entries.
type dedupKey struct {
	date        string
	description string
	amount      string
}

func keyOf(date core.Date, description string, amount decimal.Decimal) dedupKey {
	return dedupKey{date: date.String(), description: description, amount: amount.String()}
}

// Expand projects the template into its ordered virtual occurrences within
// the validity window, up to asOf. Real entries passed by the caller win
// over candidates sharing the same (date, description, amount), which keeps
// the template's own anchor date from being counted twice.
//
// A malformed template (no period, unknown period, zero dates, inverted
// window) yields an empty result rather than an error: one broken template
// must not take down a whole transaction listing.
func Expand(tpl core.RecurrenceTemplate, real []core.LedgerEntry, asOf core.Date) []core.VirtualEntry {
	if !tpl.IsRecurring() || !tpl.Period.Valid() {
		return nil
	}
	if tpl.Date.IsZero() || asOf.IsZero() {
		return nil
	}
	start, end, err := tpl.Window()
	if err != nil {
		return nil
	}
	if asOf.Before(start.Time) {
		// Nothing has begun yet.
		return nil
	}
	reference := asOf
	if end.Before(reference.Time) {
		reference = end
	}

	cur, ok := firstOnOrAfter(tpl, start)
	if !ok {
		return nil
	}

	seen := make(map[dedupKey]bool, len(real))
	for _, e := range real {
		seen[keyOf(e.Date, e.Description, e.Amount)] = true
	}

	anchorDay := tpl.Date.Day()
	anchorMonth := tpl.Date.Time.Month()

	var out []core.VirtualEntry
	for len(out) < maxOccurrences && !cur.After(reference.Time) {
		if !seen[keyOf(cur, tpl.Description, tpl.Amount)] {
			out = append(out, core.NewVirtualEntry(tpl.LedgerEntry, tpl.ID, cur))
		}
		next, err := Next(cur, tpl.Period, anchorDay, anchorMonth)
		if err != nil || !next.After(cur.Time) {
			break
		}
		cur = next
	}
	return out
}

// firstOnOrAfter finds the first occurrence on or after the window start
// that is consistent with the template's anchor. Daily and weekly anchors
// are computed directly (weekly occurrences stay on the template date's
// weekday); month-based periods step forward from the template date.
func firstOnOrAfter(tpl core.RecurrenceTemplate, start core.Date) (core.Date, bool) {
	cur := tpl.Date
	if !cur.Before(start.Time) {
		return cur, true
	}

	switch tpl.Period {
	case core.Daily:
		return start, true
	case core.Weekly:
		days := cur.DaysUntil(start)
		weeks := days / 7
		if days%7 != 0 {
			weeks++
		}
		return cur.AddDays(weeks * 7), true
	}

	anchorDay := tpl.Date.Day()
	anchorMonth := tpl.Date.Time.Month()
	for i := 0; i < firstOccurrenceIterations; i++ {
		next, err := Next(cur, tpl.Period, anchorDay, anchorMonth)
		if err != nil || !next.After(cur.Time) {
			return core.Date{}, false
		}
		cur = next
		if !cur.Before(start.Time) {
			return cur, true
		}
	}
	return core.Date{}, false
}
