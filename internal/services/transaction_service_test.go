package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"foyer/internal/core"
	"foyer/internal/storage"
)

type capturePublisher struct {
	ids []int64
	err error
}

func (p *capturePublisher) PublishTransactionSync(_ context.Context, id, _ int64) error {
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, id)
	return nil
}

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "foyer_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedHousehold(t *testing.T, repo *storage.SQLiteRepository) (householdID, accountID int64) {
	t.Helper()
	ctx := context.Background()

	householdID, err := repo.CreateHousehold(ctx, "Martin")
	if err != nil {
		t.Fatalf("CreateHousehold() error = %v", err)
	}
	accountID, err = repo.CreateAccount(ctx, core.BankAccount{
		HouseholdID: householdID,
		Name:        "Checking",
		Currency:    "EUR",
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	return householdID, accountID
}

func debitEntry(householdID, accountID int64, date core.Date, desc, amount string) core.LedgerEntry {
	return core.LedgerEntry{
		HouseholdID: householdID,
		Date:        date,
		Description: desc,
		Direction:   core.Debit,
		Amount:      decimal.RequireFromString(amount),
		AccountID:   accountID,
		Recipient:   core.ExternalRecipient(),
	}
}

func TestCreateTransaction_PublishesSync(t *testing.T) {
	repo := newTestRepo(t)
	householdID, accountID := seedHousehold(t, repo)
	publisher := &capturePublisher{}
	svc := NewTransactionService(repo, publisher)

	id, err := svc.CreateTransaction(context.Background(),
		debitEntry(householdID, accountID, core.NewDate(2024, 6, 3), "Groceries", "41.20"))
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if len(publisher.ids) != 1 || publisher.ids[0] != id {
		t.Errorf("published ids = %v, want [%d]", publisher.ids, id)
	}
}

func TestCreateTransaction_PublishFailureDoesNotFail(t *testing.T) {
	repo := newTestRepo(t)
	householdID, accountID := seedHousehold(t, repo)
	svc := NewTransactionService(repo, &capturePublisher{err: errors.New("broker down")})

	id, err := svc.CreateTransaction(context.Background(),
		debitEntry(householdID, accountID, core.NewDate(2024, 6, 3), "Groceries", "41.20"))
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v, want nil when only publishing fails", err)
	}

	if _, err := repo.GetEntry(context.Background(), id); err != nil {
		t.Errorf("transaction should be saved locally despite publish failure: %v", err)
	}
}

func TestCreateTransfer(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	householdID, fromID := seedHousehold(t, repo)
	toID, err := repo.CreateAccount(ctx, core.BankAccount{
		HouseholdID: householdID,
		Name:        "Savings",
		Currency:    "EUR",
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	publisher := &capturePublisher{}
	svc := NewTransactionService(repo, publisher)

	date := core.NewDate(2024, 7, 1)
	amount := decimal.RequireFromString("200")
	debit := core.LedgerEntry{
		HouseholdID: householdID,
		Date:        date,
		Description: "Savings transfer",
		Direction:   core.Debit,
		Amount:      amount,
		AccountID:   fromID,
		Recipient:   core.FamilyRecipient(),
	}
	credit := debit
	credit.Direction = core.Credit
	credit.AccountID = toID

	debitID, creditID, err := svc.CreateTransfer(ctx, debit, credit)
	if err != nil {
		t.Fatalf("CreateTransfer() error = %v", err)
	}

	gotDebit, err := repo.GetEntry(ctx, debitID)
	if err != nil {
		t.Fatalf("GetEntry(debit) error = %v", err)
	}
	gotCredit, err := repo.GetEntry(ctx, creditID)
	if err != nil {
		t.Fatalf("GetEntry(credit) error = %v", err)
	}
	if err := core.ValidateTransferPair(gotDebit, gotCredit); err != nil {
		t.Errorf("persisted pair invalid: %v", err)
	}
	if len(publisher.ids) != 2 {
		t.Errorf("published %d sync messages, want 2", len(publisher.ids))
	}
}

func TestCreateTransfer_RejectsSameAccount(t *testing.T) {
	repo := newTestRepo(t)
	householdID, accountID := seedHousehold(t, repo)
	svc := NewTransactionService(repo, nil)

	debit := debitEntry(householdID, accountID, core.NewDate(2024, 7, 1), "Loop", "10")
	credit := debit
	credit.Direction = core.Credit

	if _, _, err := svc.CreateTransfer(context.Background(), debit, credit); !errors.Is(err, core.ErrPairSameAccount) {
		t.Errorf("CreateTransfer() error = %v, want ErrPairSameAccount", err)
	}
}

func TestCreateRecurring_WindowPolicy(t *testing.T) {
	repo := newTestRepo(t)
	householdID, accountID := seedHousehold(t, repo)
	svc := NewTransactionService(repo, nil)

	tpl := core.RecurrenceTemplate{
		LedgerEntry:   debitEntry(householdID, accountID, core.NewDate(2024, 9, 1), "Gym", "35"),
		Period:        core.Monthly,
		ValidityStart: core.NewDate(2024, 1, 1),
		ValidityEnd:   core.NewDate(2024, 6, 30),
	}

	// Unenforced: templates dated outside their window are accepted.
	if _, err := svc.CreateRecurring(context.Background(), tpl); err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	svc.EnforceTemplateWindow(true)
	if _, err := svc.CreateRecurring(context.Background(), tpl); err == nil {
		t.Error("CreateRecurring() should reject an entry date outside the window when enforced")
	}
}

func TestCreateTransfer_FailedSideWritesNothing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	householdID, fromID := seedHousehold(t, repo)
	toID, err := repo.CreateAccount(ctx, core.BankAccount{
		HouseholdID: householdID,
		Name:        "Savings",
		Currency:    "EUR",
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	svc := NewTransactionService(repo, nil)

	debit := debitEntry(householdID, fromID, core.NewDate(2024, 7, 1), "Top-up", "100")
	credit := debit
	credit.Direction = core.Credit
	credit.AccountID = toID
	credit.Description = ""

	if _, _, err := svc.CreateTransfer(ctx, debit, credit); !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("CreateTransfer() error = %v, want ErrEmptyDescription", err)
	}

	entries, err := repo.EntriesByAccount(ctx, fromID)
	if err != nil {
		t.Fatalf("EntriesByAccount() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("debit account holds %d rows after failed transfer, want 0: %+v", len(entries), entries)
	}
}
