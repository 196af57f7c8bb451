package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"foyer/internal/core"
	"foyer/internal/storage"
)

// balanceSeriesResponse is the wire shape of a reconstructed series: two
// parallel arrays, one point per calendar day. Balances travel as decimal
// strings, like every amount on this API.
type balanceSeriesResponse struct {
	AccountID int64    `json:"account_id"`
	Currency  string   `json:"currency"`
	Dates     []string `json:"dates"`
	Balances  []string `json:"balances"`
}

func (s *Server) handleBalanceSeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	today := core.DateOf(time.Now())
	start, err := parseDateParam(r, "start", today.AddDays(-30))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date, want YYYY-MM-DD")
		return
	}
	end, err := parseDateParam(r, "end", today.AddDays(60))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date, want YYYY-MM-DD")
		return
	}
	if start.After(end.Time) {
		writeError(w, http.StatusBadRequest, "start date after end date")
		return
	}
	currency := r.URL.Query().Get("currency")
	if currency != "" && !core.SupportedCurrency(currency) {
		writeError(w, http.StatusBadRequest, "unsupported currency")
		return
	}

	cacheKey := fmt.Sprintf("%d|%s|%s|%s", accountID, start, end, currency)
	series, hit := s.seriesCache.Get(cacheKey)
	if !hit {
		series, err = s.balances.Series(ctx, accountID, start, end, currency)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrAccountNotFound):
				writeError(w, http.StatusNotFound, "account not found")
			case errors.Is(err, core.ErrNoSnapshot):
				writeError(w, http.StatusConflict, "account has no balance snapshot")
			default:
				slog.ErrorContext(ctx, "Balance series failed",
					"account_id", accountID,
					"error", err)
				writeError(w, http.StatusInternalServerError, "balance reconstruction failed")
			}
			return
		}
		s.seriesCache.Set(cacheKey, series)
	}

	resp := balanceSeriesResponse{
		AccountID: series.AccountID,
		Currency:  series.Currency,
		Dates:     make([]string, len(series.Points)),
		Balances:  make([]string, len(series.Points)),
	}
	for i, p := range series.Points {
		resp.Dates[i] = p.Date.String()
		resp.Balances[i] = p.Balance.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// transactionJSON is one row of the merged ledger view. Virtual rows carry
// no id and virtual=true.
type transactionJSON struct {
	ID          int64  `json:"id,omitempty"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Direction   string `json:"direction"`
	Amount      string `json:"amount"`
	AccountID   int64  `json:"account_id"`
	Recipient   string `json:"recipient"`
	IsTransfer  bool   `json:"is_transfer,omitempty"`
	Virtual     bool   `json:"virtual,omitempty"`
}

func (s *Server) handleHouseholdTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	householdID, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid household id")
		return
	}
	asOf, err := parseDateParam(r, "as_of", core.DateOf(time.Now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date, want YYYY-MM-DD")
		return
	}

	ledger, err := s.projections.HouseholdTransactions(ctx, householdID, asOf)
	if err != nil {
		slog.ErrorContext(ctx, "Household projection failed",
			"household_id", householdID,
			"error", err)
		writeError(w, http.StatusInternalServerError, "projection failed")
		return
	}

	out := make([]transactionJSON, 0, len(ledger.Real)+len(ledger.Virtual))
	for _, e := range ledger.Real {
		out = append(out, transactionJSON{
			ID:          e.ID,
			Date:        e.Date.String(),
			Description: e.Description,
			Direction:   string(e.Direction),
			Amount:      e.Amount.String(),
			AccountID:   e.AccountID,
			Recipient:   e.Recipient.String(),
			IsTransfer:  e.IsTransfer,
		})
	}
	for _, v := range ledger.Virtual {
		out = append(out, transactionJSON{
			Date:        v.Date.String(),
			Description: v.Description,
			Direction:   string(v.Direction),
			Amount:      v.Amount.String(),
			AccountID:   v.AccountID,
			Recipient:   v.Recipient.String(),
			IsTransfer:  v.IsTransfer,
			Virtual:     true,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

type createTransactionRequest struct {
	HouseholdID int64  `json:"household_id"`
	AccountID   int64  `json:"account_id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Direction   string `json:"direction"`
	Amount      string `json:"amount"`
	Recipient   string `json:"recipient"`
	MemberID    int64  `json:"member_id"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry, err := entryFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.transactions.CreateTransaction(ctx, entry)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(ctx, "Create transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save transaction")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type createTransferRequest struct {
	HouseholdID   int64  `json:"household_id"`
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	debit := core.LedgerEntry{
		HouseholdID: req.HouseholdID,
		Date:        date,
		Description: req.Description,
		Direction:   core.Debit,
		Amount:      amount,
		AccountID:   req.FromAccountID,
		Recipient:   core.FamilyRecipient(),
	}
	credit := debit
	credit.Direction = core.Credit
	credit.AccountID = req.ToAccountID

	debitID, creditID, err := s.transactions.CreateTransfer(ctx, debit, credit)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(ctx, "Create transfer failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save transfer")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{
		"debit_id":  debitID,
		"credit_id": creditID,
	})
}

func entryFromRequest(req createTransactionRequest) (core.LedgerEntry, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.LedgerEntry{}, errors.New("invalid date, want YYYY-MM-DD")
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.LedgerEntry{}, errors.New("invalid amount")
	}

	direction := core.Direction(req.Direction)
	if !direction.Valid() {
		return core.LedgerEntry{}, errors.New("direction must be debit or credit")
	}

	recipient := core.ExternalRecipient()
	switch req.Recipient {
	case "", string(core.RecipientExternal):
	case string(core.RecipientFamily):
		recipient = core.FamilyRecipient()
	case string(core.RecipientMember):
		recipient = core.MemberRecipient(req.MemberID)
	default:
		return core.LedgerEntry{}, errors.New("recipient must be family, member or external")
	}

	return core.LedgerEntry{
		HouseholdID: req.HouseholdID,
		Date:        date,
		Description: req.Description,
		Direction:   direction,
		Amount:      amount,
		AccountID:   req.AccountID,
		Recipient:   recipient,
	}, nil
}

// isValidationError reports whether err stems from bad input rather than an
// infrastructure failure.
func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrInvalidDirection,
		core.ErrEmptyDescription,
		core.ErrNotTransferPair,
		core.ErrPairSameAccount,
		core.ErrPairSameDirection,
		core.ErrPairMismatch,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
