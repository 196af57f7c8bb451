// Package recurrence projects recurring ledger-entry templates into dated
// virtual occurrences.
//
// This file contains the calendar stepping primitives. They are pure
// functions: every month-length and leap-year edge case resolves by
// clamping, never by returning an error.
package recurrence

import (
	"fmt"
	"time"

	"foyer/internal/core"
)

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampedDate builds a date whose day is clamped to the target month's
// length, so an anchor of 31 lands on Apr 30 and Feb 29 on Feb 28 in
// non-leap years.
func clampedDate(year int, month time.Month, day int) core.Date {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return core.NewDate(year, int(month), day)
}

// Next advances exactly one period from base. For monthly and quarterly
// periods the anchor day-of-month is preserved where the target month
// allows; for annual periods the anchor month and day are preserved.
func Next(base core.Date, period core.Period, anchorDay int, anchorMonth time.Month) (core.Date, error) {
	switch period {
	case core.Daily:
		return base.AddDays(1), nil
	case core.Weekly:
		return base.AddDays(7), nil
	case core.Monthly:
		return stepMonths(base, 1, anchorDay), nil
	case core.Quarterly:
		return stepMonths(base, 3, anchorDay), nil
	case core.Annually:
		return clampedDate(base.Year()+1, anchorMonth, anchorDay), nil
	}
	return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidPeriod, period)
}

// stepMonths adds whole months to base, re-applying the anchor day so a
// run of short months never permanently loses the original day-of-month.
func stepMonths(base core.Date, months int, anchorDay int) core.Date {
	// Day 1 avoids time.AddDate's overflow normalization (Jan 31 + 1mo
	// must be Feb 29/28, not Mar 2/3).
	t := time.Date(base.Year(), base.Time.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	return clampedDate(t.Year(), t.Month(), anchorDay)
}
