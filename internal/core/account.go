package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Household is a tax household owning members, accounts and entries.
	Household struct {
		ID   int64
		Name string
	}

	// Member belongs to exactly one household.
	Member struct {
		ID          int64
		HouseholdID int64
		FirstName   string
		LastName    string
	}

	// AccountSnapshot is a recorded balance checkpoint. It is not a running
	// total: the balance at any date is the snapshot plus the net effect of
	// entries strictly after the snapshot date.
	AccountSnapshot struct {
		Balance  decimal.Decimal
		Date     Date
		Currency string
	}

	// BankAccount holds a snapshot and is owned by one or more members.
	BankAccount struct {
		ID          int64
		HouseholdID int64
		Name        string
		Number      string
		Currency    string
		Snapshot    AccountSnapshot
	}

	Category struct {
		ID          int64
		HouseholdID int64
		Name        string
	}

	PaymentMethod struct {
		ID   int64
		Name string
	}
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrNoSnapshot      = errors.New("account has no balance snapshot")
)

// Trigram derives the member's short tag: first letter of the first name
// plus the first two letters of the last name, upper-cased.
func (m Member) Trigram() string {
	if m.FirstName == "" || m.LastName == "" {
		return ""
	}
	last := m.LastName
	if len(last) > 2 {
		last = last[:2]
	}
	return strings.ToUpper(m.FirstName[:1] + last)
}

func (s AccountSnapshot) Validate() error {
	if err := s.Date.Validate(); err != nil {
		return ErrNoSnapshot
	}
	if len(s.Currency) != 3 {
		return ErrInvalidCurrency
	}
	return nil
}

func (a BankAccount) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Currency) != 3 {
		return ErrInvalidCurrency
	}
	return nil
}
