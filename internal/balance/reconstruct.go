// Package balance reconstructs an account's balance as a daily time series
// from a stored snapshot plus real and projected ledger entries.
package balance

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"foyer/internal/core"
)

// Point is one day of the reconstructed series.
type Point struct {
	Date    core.Date
	Balance decimal.Decimal
}

var ErrInvalidRange = errors.New("start date after end date")

// effect is a date-ordered signed entry used during reconstruction.
type effect struct {
	date   core.Date
	signed decimal.Decimal
	real   bool
}

// Reconstruct computes one balance point per calendar day in [start, end].
//
// The snapshot is the anchor: days before the snapshot date are reached by
// rewinding entry effects in reverse order, days after by rolling them
// forward. The value emitted for start excludes entries dated start itself;
// every later day applies its own net before being emitted, so the series
// is a complete, evenly spaced daily curve.
func Reconstruct(snap core.AccountSnapshot, real []core.LedgerEntry, virtual []core.VirtualEntry, start, end core.Date) ([]Point, error) {
	if start.IsZero() || end.IsZero() {
		return nil, core.ErrInvalidDate
	}
	if start.After(end.Time) {
		return nil, ErrInvalidRange
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	effects := mergeEffects(real, virtual)
	running := snap.Balance

	if start.Before(snap.Date.Time) {
		// Rewind: invert every effect in [start, snapshot date), newest
		// first, to recover what the balance must have been at start.
		for i := len(effects) - 1; i >= 0; i-- {
			e := effects[i]
			if !e.date.Before(snap.Date.Time) || e.date.Before(start.Time) {
				continue
			}
			running = running.Sub(e.signed)
		}
	} else {
		// Roll forward over [snapshot date, start).
		for _, e := range effects {
			if e.date.Before(snap.Date.Time) || !e.date.Before(start.Time) {
				continue
			}
			running = running.Add(e.signed)
		}
	}

	dailyNet := make(map[string]decimal.Decimal)
	for _, e := range effects {
		k := e.date.String()
		dailyNet[k] = dailyNet[k].Add(e.signed)
	}

	days := start.DaysUntil(end) + 1
	points := make([]Point, 0, days)
	points = append(points, Point{Date: start, Balance: running})
	day := start
	for i := 1; i < days; i++ {
		day = day.AddDays(1)
		if net, ok := dailyNet[day.String()]; ok {
			running = running.Add(net)
		}
		points = append(points, Point{Date: day, Balance: running})
	}
	return points, nil
}

// mergeEffects flattens real and virtual entries into one list sorted by
// date, real entries first on equal dates.
func mergeEffects(real []core.LedgerEntry, virtual []core.VirtualEntry) []effect {
	effects := make([]effect, 0, len(real)+len(virtual))
	for _, e := range real {
		if e.Date.IsZero() {
			continue
		}
		effects = append(effects, effect{date: e.Date, signed: e.Signed(), real: true})
	}
	for _, v := range virtual {
		if v.Date.IsZero() {
			continue
		}
		effects = append(effects, effect{date: v.Date, signed: v.Signed()})
	}
	sort.SliceStable(effects, func(i, j int) bool {
		if effects[i].date.Equal(effects[j].date.Time) {
			return effects[i].real && !effects[j].real
		}
		return effects[i].date.Before(effects[j].date.Time)
	})
	return effects
}
