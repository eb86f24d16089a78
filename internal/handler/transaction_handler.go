package handler

import (
	"net/http"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/service"
)

type TransactionHandler struct {
	transactionService *service.TransactionService
	transferService    *service.TransferService
}

func NewTransactionHandler(transactionService *service.TransactionService, transferService *service.TransferService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		transferService:    transferService,
	}
}

type TransferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	fromID, err := parseID("from_account_id", req.FromAccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	toID, err := parseID("to_account_id", req.ToAccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount, false)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.transferService.Transfer(r.Context(), service.TransferRequest{
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        amount,
		Description:   req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transaction_id")
	if err != nil {
		writeError(w, err)
		return
	}

	transaction, err := h.transactionService.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transaction)
}

// ListAccountTransactions pages through the history; with ?type= it returns
// every entry of that type instead.
func (h *TransactionHandler) ListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, err)
		return
	}

	if txType := r.URL.Query().Get("type"); txType != "" {
		items, err := h.transactionService.FindByAccountAndType(r.Context(), accountID, domain.TransactionType(txType))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}

	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.transactionService.FindByAccount(r.Context(), accountID, domain.Page{Page: page, Limit: limit})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TransactionHandler) ListBetween(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, err)
		return
	}
	otherID, err := pathID(r, "other_account_id")
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := h.transactionService.FindBetween(r.Context(), accountID, otherID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *TransactionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, err)
		return
	}

	stats, err := h.transactionService.GetAccountStats(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *TransactionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, err)
		return
	}

	verify := h.transactionService.VerifyAccount
	if queryBool(r, "quick") {
		verify = h.transactionService.CheckLatest
	}

	verification, err := verify(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verification)
}
