package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateOf(t *testing.T) {
	in := time.Date(2024, 3, 15, 23, 45, 12, 0, time.FixedZone("CET", 3600))
	got := DateOf(in)
	if got.String() != "2024-03-15" {
		t.Errorf("DateOf() = %s, want 2024-03-15", got)
	}
	if got.Hour() != 0 || got.Location() != time.UTC {
		t.Errorf("DateOf() did not truncate to UTC midnight: %v", got.Time)
	}
}

func TestDateAddDays(t *testing.T) {
	d := NewDate(2024, 2, 28)
	if got := d.AddDays(2).String(); got != "2024-03-01" {
		t.Errorf("AddDays(2) = %s, want 2024-03-01", got)
	}
	if got := d.AddDays(-28).String(); got != "2024-01-31" {
		t.Errorf("AddDays(-28) = %s, want 2024-01-31", got)
	}
}

func TestDateDaysUntil(t *testing.T) {
	a := NewDate(2024, 1, 1)
	b := NewDate(2024, 1, 31)
	if got := a.DaysUntil(b); got != 30 {
		t.Errorf("DaysUntil = %d, want 30", got)
	}
	if got := b.DaysUntil(a); got != -30 {
		t.Errorf("reverse DaysUntil = %d, want -30", got)
	}
}

func TestPeriodValid(t *testing.T) {
	for _, p := range []Period{Daily, Weekly, Monthly, Quarterly, Annually} {
		if !p.Valid() {
			t.Errorf("Period %q should be valid", p)
		}
	}
	for _, p := range []Period{"", "biweekly", "MONTHLY"} {
		if p.Valid() {
			t.Errorf("Period %q should be invalid", p)
		}
	}
}

func TestDirectionOpposite(t *testing.T) {
	if Debit.Opposite() != Credit || Credit.Opposite() != Debit {
		t.Error("Opposite() should swap debit and credit")
	}
}

func TestLedgerEntryValidate(t *testing.T) {
	valid := LedgerEntry{
		Date:        NewDate(2024, 6, 1),
		Description: "Groceries",
		Direction:   Debit,
		Amount:      decimal.NewFromFloat(42.50),
		Recipient:   FamilyRecipient(),
	}

	tests := []struct {
		name    string
		mutate  func(e *LedgerEntry)
		wantErr error
	}{
		{"valid entry", func(e *LedgerEntry) {}, nil},
		{"zero date", func(e *LedgerEntry) { e.Date = Date{} }, ErrInvalidDate},
		{"blank description", func(e *LedgerEntry) { e.Description = "   " }, ErrEmptyDescription},
		{"bad direction", func(e *LedgerEntry) { e.Direction = "sideways" }, ErrInvalidDirection},
		{"negative amount", func(e *LedgerEntry) { e.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	long := valid
	long.Description = strings.Repeat("x", 201)
	if long.Validate() == nil {
		t.Error("Validate() should reject descriptions over 200 characters")
	}
}

func TestLedgerEntrySigned(t *testing.T) {
	e := LedgerEntry{Direction: Debit, Amount: decimal.NewFromInt(10)}
	if got := e.Signed(); !got.Equal(decimal.NewFromInt(-10)) {
		t.Errorf("debit Signed() = %s, want -10", got)
	}
	e.Direction = Credit
	if got := e.Signed(); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("credit Signed() = %s, want 10", got)
	}
}

func TestTemplateWindowDefaults(t *testing.T) {
	tests := []struct {
		name       string
		start, end Date
		entryDate  Date
		wantStart  string
		wantEnd    string
		wantErr    error
	}{
		{
			name:      "explicit window",
			start:     NewDate(2024, 1, 1),
			end:       NewDate(2024, 6, 30),
			entryDate: NewDate(2024, 1, 15),
			wantStart: "2024-01-01",
			wantEnd:   "2024-06-30",
		},
		{
			name:      "start defaults to entry date",
			end:       NewDate(2024, 12, 31),
			entryDate: NewDate(2024, 3, 10),
			wantStart: "2024-03-10",
			wantEnd:   "2024-12-31",
		},
		{
			name:      "end defaults to start plus one year",
			start:     NewDate(2024, 2, 29),
			entryDate: NewDate(2024, 2, 29),
			wantStart: "2024-02-29",
			wantEnd:   "2025-03-01",
		},
		{
			name:    "no start and no entry date",
			wantErr: ErrInvalidDate,
		},
		{
			name:      "inverted window",
			start:     NewDate(2024, 6, 1),
			end:       NewDate(2024, 1, 1),
			entryDate: NewDate(2024, 6, 1),
			wantErr:   ErrInvalidWindow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := RecurrenceTemplate{
				LedgerEntry:   LedgerEntry{Date: tt.entryDate},
				Period:        Monthly,
				ValidityStart: tt.start,
				ValidityEnd:   tt.end,
			}
			start, end, err := tpl.Window()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Window() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if start.String() != tt.wantStart || end.String() != tt.wantEnd {
				t.Errorf("Window() = (%s, %s), want (%s, %s)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestValidateTemplateWindow(t *testing.T) {
	tpl := RecurrenceTemplate{
		LedgerEntry:   LedgerEntry{Date: NewDate(2024, 9, 1)},
		Period:        Monthly,
		ValidityStart: NewDate(2024, 1, 1),
		ValidityEnd:   NewDate(2024, 6, 30),
	}
	if err := ValidateTemplateWindow(tpl, false); err != nil {
		t.Errorf("unenforced guard should pass, got %v", err)
	}
	if err := ValidateTemplateWindow(tpl, true); err == nil {
		t.Error("enforced guard should reject an entry date outside the window")
	}

	tpl.Date = NewDate(2024, 3, 1)
	if err := ValidateTemplateWindow(tpl, true); err != nil {
		t.Errorf("entry date inside window should pass, got %v", err)
	}
}
