package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"foyer/internal/core"
)

func TestAppendAndItems(t *testing.T) {
	s := New([]string{"Housing", "Food", "", "Food"})

	entry := core.LedgerEntry{
		HouseholdID: 1,
		Date:        core.NewDate(2024, 6, 1),
		Description: "Groceries",
		Direction:   core.Debit,
		Amount:      decimal.RequireFromString("42.50"),
		AccountID:   1,
		Recipient:   core.ExternalRecipient(),
	}

	ref, err := s.Append(context.Background(), entry)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("Append() ref = %q, want mem:1", ref)
	}

	items := s.Items()
	if len(items) != 1 || items[0].Description != "Groceries" {
		t.Errorf("Items() = %v, want the appended entry", items)
	}

	cats, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("List() = %v, want deduplicated [Housing Food]", cats)
	}
}

func TestAppend_RejectsInvalid(t *testing.T) {
	s := New(nil)

	_, err := s.Append(context.Background(), core.LedgerEntry{})
	if err == nil {
		t.Error("Append() of an empty entry should fail validation")
	}
}
