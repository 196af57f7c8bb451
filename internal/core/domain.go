package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Daily     Period = "daily"
	Weekly    Period = "weekly"
	Monthly   Period = "monthly"
	Quarterly Period = "quarterly"
	Annually  Period = "annually"
)

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

type (
	// Period is the recurrence frequency of a template.
	Period string

	// Direction is the signed semantic of a ledger entry.
	Direction string

	// Date is a calendar day with no time-of-day component, always UTC.
	Date struct {
		time.Time
	}

	// LedgerEntry is one economic event on one account. Real entries are
	// persisted; projected occurrences reuse this shape via VirtualEntry.
	LedgerEntry struct {
		ID              int64
		HouseholdID     int64
		Date            Date
		Description     string
		Direction       Direction
		Amount          decimal.Decimal
		CategoryID      int64
		AccountID       int64
		PaymentMethodID int64
		Recipient       Recipient
		IsTransfer      bool
		PairedID        int64 // other side of a transfer pair, 0 if none
	}

	// RecurrenceTemplate is a ledger entry marked recurring, the seed for
	// projecting occurrences inside its validity window.
	RecurrenceTemplate struct {
		LedgerEntry
		Period        Period
		ValidityStart Date // zero value defaults to the entry date
		ValidityEnd   Date // zero value defaults to start + 1 year
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidPeriod    = errors.New("invalid recurrence period")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidWindow    = errors.New("validity start after validity end")
	ErrNotRecurring     = errors.New("template is not recurring")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (p Period) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Quarterly, Annually:
		return true
	}
	return false
}

func (dir Direction) Valid() bool {
	return dir == Debit || dir == Credit
}

// Opposite returns the other direction of a transfer pair.
func (dir Direction) Opposite() Direction {
	if dir == Debit {
		return Credit
	}
	return Debit
}

func (e LedgerEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !e.Direction.Valid() {
		return ErrInvalidDirection
	}
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Signed returns the amount with the sign implied by the direction:
// credits are positive, debits negative.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.Direction == Debit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// IsRecurring reports whether the template carries a usable period.
func (t RecurrenceTemplate) IsRecurring() bool {
	return t.Period != ""
}

// Window resolves the validity window, applying the defaults: start falls
// back to the entry date, end to start plus one year.
func (t RecurrenceTemplate) Window() (start, end Date, err error) {
	start = t.ValidityStart
	if start.IsZero() {
		start = t.Date
	}
	end = t.ValidityEnd
	if end.IsZero() && !start.IsZero() {
		end = Date{Time: start.AddDate(1, 0, 0)}
	}
	if start.IsZero() {
		return Date{}, Date{}, ErrInvalidDate
	}
	if start.After(end.Time) {
		return Date{}, Date{}, ErrInvalidWindow
	}
	return start, end, nil
}

func (t RecurrenceTemplate) Validate() error {
	if err := t.LedgerEntry.Validate(); err != nil {
		return err
	}
	if !t.Period.Valid() {
		return ErrInvalidPeriod
	}
	_, _, err := t.Window()
	return err
}

// ValidateTemplateWindow optionally enforces that the template's own entry
// date falls inside its validity window. Existing data contains templates
// created outside their window, so the guard is a policy switch rather than
// part of Validate.
func ValidateTemplateWindow(t RecurrenceTemplate, enforce bool) error {
	if !enforce {
		return nil
	}
	start, end, err := t.Window()
	if err != nil {
		return err
	}
	if t.Date.Before(start.Time) || t.Date.After(end.Time) {
		return errors.New("entry date outside validity window")
	}
	return nil
}
