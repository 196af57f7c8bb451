// Package storage persists households, accounts and transactions in SQLite
// and supplies the read models the projection and balance services consume.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"foyer/internal/core"
)

const dateLayout = "2006-01-02"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEntryNotFound   = errors.New("transaction not found")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateHousehold(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO households (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create household: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) Households(ctx context.Context) ([]core.Household, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM households ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query households: %w", err)
	}
	defer rows.Close()

	var households []core.Household
	for rows.Next() {
		var h core.Household
		if err := rows.Scan(&h.ID, &h.Name); err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, h)
	}
	return households, rows.Err()
}

func (r *SQLiteRepository) CreateMember(ctx context.Context, m core.Member) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO members (household_id, first_name, last_name) VALUES (?, ?, ?)`,
		m.HouseholdID, m.FirstName, m.LastName)
	if err != nil {
		return 0, fmt.Errorf("create member: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.BankAccount) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bank_accounts (household_id, name, number, currency) VALUES (?, ?, ?, ?)`,
		a.HouseholdID, a.Name, a.Number, a.Currency)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) AddAccountOwner(ctx context.Context, accountID, memberID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO account_members (account_id, member_id) VALUES (?, ?)`,
		accountID, memberID)
	if err != nil {
		return fmt.Errorf("add account owner: %w", err)
	}
	return nil
}

// OwnersOf implements the account-ownership lookup used to derive transfer
// recipients.
func (r *SQLiteRepository) OwnersOf(ctx context.Context, accountID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member_id FROM account_members WHERE account_id = ? ORDER BY member_id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query account owners: %w", err)
	}
	defer rows.Close()

	var owners []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

// SetSnapshot records a balance checkpoint on the account.
func (r *SQLiteRepository) SetSnapshot(ctx context.Context, accountID int64, snap core.AccountSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE bank_accounts SET balance = ?, balance_date = ?, currency = ? WHERE id = ?`,
		snap.Balance.String(), snap.Date.Format(dateLayout), snap.Currency, accountID)
	if err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.BankAccount, error) {
	var (
		a           core.BankAccount
		balance     string
		balanceDate sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, household_id, name, number, currency, balance, balance_date
		 FROM bank_accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.HouseholdID, &a.Name, &a.Number, &a.Currency, &balance, &balanceDate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BankAccount{}, ErrAccountNotFound
	}
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("get account: %w", err)
	}

	a.Snapshot.Currency = a.Currency
	a.Snapshot.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("parse snapshot balance: %w", err)
	}
	if balanceDate.Valid {
		d, err := parseDate(balanceDate.String)
		if err != nil {
			return core.BankAccount{}, fmt.Errorf("parse snapshot date: %w", err)
		}
		a.Snapshot.Date = d
	}
	return a, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEntry(ctx context.Context, db execer, e core.LedgerEntry) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO transactions
			(household_id, date, description, direction, amount, category_id,
			 account_id, payment_method_id, recipient_kind, recipient_member_id,
			 is_transfer, paired_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.HouseholdID, e.Date.Format(dateLayout), e.Description, string(e.Direction),
		e.Amount.String(), nullID(e.CategoryID), e.AccountID, nullID(e.PaymentMethodID),
		string(e.Recipient.Kind), nullID(e.Recipient.MemberID), e.IsTransfer, nullID(e.PairedID))
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.LedgerEntry) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	id, err := insertEntry(ctx, r.db, e)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"account_id", e.AccountID,
		"date", e.Date.String(),
		"direction", string(e.Direction),
		"amount", e.Amount.String())
	return id, nil
}

// CreateTransfer persists both sides of a transfer pair and links them
// mutually inside one transaction. A failure on either side rolls back the
// whole pair; no orphaned half ever reaches the ledger.
func (r *SQLiteRepository) CreateTransfer(ctx context.Context, debit, credit core.LedgerEntry) (int64, int64, error) {
	if err := debit.Validate(); err != nil {
		return 0, 0, err
	}
	if err := credit.Validate(); err != nil {
		return 0, 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback()

	debitID, err := insertEntry(ctx, tx, debit)
	if err != nil {
		return 0, 0, fmt.Errorf("transfer debit side: %w", err)
	}
	creditID, err := insertEntry(ctx, tx, credit)
	if err != nil {
		return 0, 0, fmt.Errorf("transfer credit side: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET is_transfer = 1, paired_id = ? WHERE id = ?`, creditID, debitID); err != nil {
		return 0, 0, fmt.Errorf("pair debit side: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET is_transfer = 1, paired_id = ? WHERE id = ?`, debitID, creditID); err != nil {
		return 0, 0, fmt.Errorf("pair credit side: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit transfer: %w", err)
	}

	slog.InfoContext(ctx, "Transfer saved",
		"debit_id", debitID,
		"credit_id", creditID,
		"date", debit.Date.String(),
		"amount", debit.Amount.String())
	return debitID, creditID, nil
}

// CreateTemplate persists a recurring transaction with its recurrence
// columns filled in.
func (r *SQLiteRepository) CreateTemplate(ctx context.Context, t core.RecurrenceTemplate) (int64, error) {
	if !t.IsRecurring() {
		return 0, core.ErrNotRecurring
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(household_id, date, description, direction, amount, category_id,
			 account_id, payment_method_id, recipient_kind, recipient_member_id,
			 is_transfer, paired_id, recurrence_period, validity_start, validity_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.HouseholdID, t.Date.Format(dateLayout), t.Description, string(t.Direction),
		t.Amount.String(), nullID(t.CategoryID), t.AccountID, nullID(t.PaymentMethodID),
		string(t.Recipient.Kind), nullID(t.Recipient.MemberID), t.IsTransfer, nullID(t.PairedID),
		string(t.Period), nullDate(t.ValidityStart), nullDate(t.ValidityEnd))
	if err != nil {
		return 0, fmt.Errorf("create recurring transaction: %w", err)
	}
	return res.LastInsertId()
}

// PairTransfer links two persisted transactions as one transfer.
func (r *SQLiteRepository) PairTransfer(ctx context.Context, debitID, creditID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pairing: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET is_transfer = 1, paired_id = ? WHERE id = ?`, creditID, debitID); err != nil {
		return fmt.Errorf("pair debit side: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET is_transfer = 1, paired_id = ? WHERE id = ?`, debitID, creditID); err != nil {
		return fmt.Errorf("pair credit side: %w", err)
	}
	return tx.Commit()
}

const entryColumns = `id, household_id, date, description, direction, amount,
	category_id, account_id, payment_method_id, recipient_kind,
	recipient_member_id, is_transfer, paired_id`

func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM transactions WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, ErrEntryNotFound
	}
	return e, err
}

// EntriesByAccount returns every persisted transaction on the account,
// recurring templates included, ordered by date.
func (r *SQLiteRepository) EntriesByAccount(ctx context.Context, accountID int64) ([]core.LedgerEntry, error) {
	return r.listEntries(ctx,
		`SELECT `+entryColumns+` FROM transactions WHERE account_id = ? ORDER BY date, id`, accountID)
}

func (r *SQLiteRepository) EntriesByHousehold(ctx context.Context, householdID int64) ([]core.LedgerEntry, error) {
	return r.listEntries(ctx,
		`SELECT `+entryColumns+` FROM transactions WHERE household_id = ? ORDER BY date, id`, householdID)
}

func (r *SQLiteRepository) listEntries(ctx context.Context, query string, arg int64) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const templateColumns = entryColumns + `, recurrence_period, validity_start, validity_end`

func (r *SQLiteRepository) GetTemplate(ctx context.Context, id int64) (core.RecurrenceTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM transactions WHERE id = ? AND recurrence_period != ''`, id)
	if err != nil {
		return core.RecurrenceTemplate{}, fmt.Errorf("query template: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return core.RecurrenceTemplate{}, ErrEntryNotFound
	}
	return scanTemplate(rows)
}

// TemplatesByAccount returns the account's recurring transactions.
func (r *SQLiteRepository) TemplatesByAccount(ctx context.Context, accountID int64) ([]core.RecurrenceTemplate, error) {
	return r.listTemplates(ctx,
		`SELECT `+templateColumns+` FROM transactions
		 WHERE account_id = ? AND recurrence_period != '' ORDER BY date, id`, accountID)
}

func (r *SQLiteRepository) TemplatesByHousehold(ctx context.Context, householdID int64) ([]core.RecurrenceTemplate, error) {
	return r.listTemplates(ctx,
		`SELECT `+templateColumns+` FROM transactions
		 WHERE household_id = ? AND recurrence_period != '' ORDER BY date, id`, householdID)
}

func (r *SQLiteRepository) listTemplates(ctx context.Context, query string, arg int64) ([]core.RecurrenceTemplate, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var templates []core.RecurrenceTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// EntryExists reports whether a transaction with the same identity triple
// already exists on the account; the materializer uses it for idempotency.
func (r *SQLiteRepository) EntryExists(ctx context.Context, accountID int64, date core.Date, description string, amount decimal.Decimal) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM transactions
		WHERE account_id = ? AND date = ? AND description = ? AND amount = ?`,
		accountID, date.Format(dateLayout), description, amount.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check transaction existence: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.LedgerEntry, error) {
	var (
		e               core.LedgerEntry
		date            string
		amount          string
		direction       string
		categoryID      sql.NullInt64
		paymentMethodID sql.NullInt64
		recipientKind   string
		recipientMember sql.NullInt64
		pairedID        sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.HouseholdID, &date, &e.Description, &direction, &amount,
		&categoryID, &e.AccountID, &paymentMethodID, &recipientKind,
		&recipientMember, &e.IsTransfer, &pairedID)
	if err != nil {
		return core.LedgerEntry{}, err
	}

	e.Date, err = parseDate(date)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse transaction date: %w", err)
	}
	e.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse transaction amount: %w", err)
	}
	e.Direction = core.Direction(direction)
	e.CategoryID = categoryID.Int64
	e.PaymentMethodID = paymentMethodID.Int64
	e.PairedID = pairedID.Int64
	e.Recipient = core.Recipient{Kind: core.RecipientKind(recipientKind), MemberID: recipientMember.Int64}
	return e, nil
}

func scanTemplate(rows *sql.Rows) (core.RecurrenceTemplate, error) {
	var (
		t               core.RecurrenceTemplate
		date            string
		amount          string
		direction       string
		categoryID      sql.NullInt64
		paymentMethodID sql.NullInt64
		recipientKind   string
		recipientMember sql.NullInt64
		pairedID        sql.NullInt64
		period          string
		validityStart   sql.NullString
		validityEnd     sql.NullString
	)
	err := rows.Scan(&t.ID, &t.HouseholdID, &date, &t.Description, &direction, &amount,
		&categoryID, &t.AccountID, &paymentMethodID, &recipientKind,
		&recipientMember, &t.IsTransfer, &pairedID,
		&period, &validityStart, &validityEnd)
	if err != nil {
		return core.RecurrenceTemplate{}, err
	}

	t.Date, err = parseDate(date)
	if err != nil {
		return core.RecurrenceTemplate{}, fmt.Errorf("parse template date: %w", err)
	}
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return core.RecurrenceTemplate{}, fmt.Errorf("parse template amount: %w", err)
	}
	t.Direction = core.Direction(direction)
	t.CategoryID = categoryID.Int64
	t.PaymentMethodID = paymentMethodID.Int64
	t.PairedID = pairedID.Int64
	t.Recipient = core.Recipient{Kind: core.RecipientKind(recipientKind), MemberID: recipientMember.Int64}
	t.Period = core.Period(period)
	if validityStart.Valid {
		if t.ValidityStart, err = parseDate(validityStart.String); err != nil {
			return core.RecurrenceTemplate{}, fmt.Errorf("parse validity start: %w", err)
		}
	}
	if validityEnd.Valid {
		if t.ValidityEnd, err = parseDate(validityEnd.String); err != nil {
			return core.RecurrenceTemplate{}, fmt.Errorf("parse validity end: %w", err)
		}
	}
	return t, nil
}

func parseDate(s string) (core.Date, error) {
	tm, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(tm), nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func nullDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Format(dateLayout), Valid: true}
}
