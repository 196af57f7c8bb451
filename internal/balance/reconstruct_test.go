package balance

import (
	"testing"

	"github.com/shopspring/decimal"

	"foyer/internal/core"
)

func snapshot(balance string, date core.Date) core.AccountSnapshot {
	return core.AccountSnapshot{
		Balance:  decimal.RequireFromString(balance),
		Date:     date,
		Currency: "EUR",
	}
}

func expense(amount string, date core.Date) core.LedgerEntry {
	return core.LedgerEntry{
		Date:        date,
		Description: "expense",
		Direction:   core.Debit,
		Amount:      decimal.RequireFromString(amount),
	}
}

func income(amount string, date core.Date) core.LedgerEntry {
	return core.LedgerEntry{
		Date:        date,
		Description: "income",
		Direction:   core.Credit,
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestReconstruct_ForwardFromSnapshot(t *testing.T) {
	snap := snapshot("500.00", core.NewDate(2024, 6, 1))
	real := []core.LedgerEntry{expense("50.00", core.NewDate(2024, 6, 10))}

	points, err := Reconstruct(snap, real, nil, core.NewDate(2024, 6, 1), core.NewDate(2024, 6, 15))
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if len(points) != 15 {
		t.Fatalf("got %d points, want 15", len(points))
	}
	for _, p := range points {
		want := "500"
		if !p.Date.Before(core.NewDate(2024, 6, 10).Time) {
			want = "450"
		}
		if p.Balance.String() != want {
			t.Errorf("balance on %s = %s, want %s", p.Date, p.Balance, want)
		}
	}
}

func TestReconstruct_RewindsBeforeSnapshot(t *testing.T) {
	snap := snapshot("500.00", core.NewDate(2024, 6, 1))
	real := []core.LedgerEntry{
		expense("50.00", core.NewDate(2024, 5, 25)),
		expense("50.00", core.NewDate(2024, 6, 10)),
	}

	points, err := Reconstruct(snap, real, nil, core.NewDate(2024, 5, 20), core.NewDate(2024, 6, 15))
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if len(points) != 27 {
		t.Fatalf("got %d points, want 27", len(points))
	}

	byDate := make(map[string]string, len(points))
	for _, p := range points {
		byDate[p.Date.String()] = p.Balance.String()
	}

	// Before the 5/25 expense the balance must have been 550; the rewind
	// adds the debit back.
	checks := map[string]string{
		"2024-05-20": "550",
		"2024-05-24": "550",
		"2024-05-25": "500",
		"2024-06-01": "500",
		"2024-06-09": "500",
		"2024-06-10": "450",
		"2024-06-15": "450",
	}
	for date, want := range checks {
		if got := byDate[date]; got != want {
			t.Errorf("balance on %s = %s, want %s", date, got, want)
		}
	}
}

func TestReconstruct_SnapshotConsistency(t *testing.T) {
	day := core.NewDate(2024, 6, 1)
	snap := snapshot("123.45", day)
	// An entry on the snapshot date is already inside the checkpoint.
	real := []core.LedgerEntry{expense("10.00", day)}

	points, err := Reconstruct(snap, real, nil, day, day)
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	if !points[0].Balance.Equal(snap.Balance) {
		t.Errorf("balance = %s, want %s", points[0].Balance, snap.Balance)
	}
}

func TestReconstruct_DailyContinuity(t *testing.T) {
	snap := snapshot("0.00", core.NewDate(2024, 2, 1))
	start, end := core.NewDate(2024, 2, 1), core.NewDate(2024, 3, 10)

	points, err := Reconstruct(snap, nil, nil, start, end)
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if want := start.DaysUntil(end) + 1; len(points) != want {
		t.Fatalf("got %d points, want %d", len(points), want)
	}
	for i := 1; i < len(points); i++ {
		if got := points[i-1].Date.DaysUntil(points[i].Date); got != 1 {
			t.Fatalf("gap of %d days between %s and %s", got, points[i-1].Date, points[i].Date)
		}
	}
}

func TestReconstruct_MixesRealAndVirtual(t *testing.T) {
	snap := snapshot("100.00", core.NewDate(2024, 6, 1))
	real := []core.LedgerEntry{income("20.00", core.NewDate(2024, 6, 5))}
	virtual := []core.VirtualEntry{
		{LedgerEntry: expense("30.00", core.NewDate(2024, 6, 7)), TemplateID: 1},
	}

	points, err := Reconstruct(snap, real, virtual, core.NewDate(2024, 6, 1), core.NewDate(2024, 6, 8))
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	last := points[len(points)-1]
	if want := "90"; last.Balance.String() != want {
		t.Errorf("final balance = %s, want %s", last.Balance, want)
	}
}

func TestReconstruct_InvalidInput(t *testing.T) {
	snap := snapshot("1.00", core.NewDate(2024, 1, 1))

	if _, err := Reconstruct(snap, nil, nil, core.NewDate(2024, 2, 1), core.NewDate(2024, 1, 1)); err == nil {
		t.Error("expected error for inverted range")
	}
	if _, err := Reconstruct(core.AccountSnapshot{}, nil, nil, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 2)); err == nil {
		t.Error("expected error for missing snapshot")
	}
}
