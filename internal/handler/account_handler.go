package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

type movementFunc func(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*service.BalanceResult, error)

type CreateAccountRequest struct {
	OwnerID        string `json:"owner_id"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance,omitempty"`
}

type UpdateAccountRequest struct {
	Type string `json:"type"`
}

type MovementRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

type OwnerBalanceResponse struct {
	OwnerID      string `json:"owner_id"`
	TotalBalance string `json:"total_balance"`
	HasBalance   bool   `json:"has_balance"`
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ownerID, err := parseID("owner_id", req.OwnerID)
	if err != nil {
		writeError(w, err)
		return
	}
	initialBalance, err := parseAmount("initial_balance", req.InitialBalance, true)
	if err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), service.CreateAccountRequest{
		OwnerID:        ownerID,
		Type:           domain.AccountType(req.Type),
		InitialBalance: initialBalance,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req UpdateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accountService.ChangeType(r.Context(), accountID, domain.AccountType(req.Type))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) ListOwnerAccounts(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "owner_id")
	if err != nil {
		writeError(w, err)
		return
	}

	accounts, err := h.accountService.ListByOwner(r.Context(), ownerID, queryBool(r, "include_inactive"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) OwnerBalance(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "owner_id")
	if err != nil {
		writeError(w, err)
		return
	}

	total, err := h.accountService.OwnerTotalBalance(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	hasBalance, err := h.accountService.OwnerHasBalance(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, OwnerBalanceResponse{
		OwnerID:      ownerID.String(),
		TotalBalance: total.StringFixed(2),
		HasBalance:   hasBalance,
	})
}

func (h *AccountHandler) DeactivateOwnerAccounts(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "owner_id")
	if err != nil {
		writeError(w, err)
		return
	}

	count, err := h.accountService.DeactivateAllByOwner(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deactivated": count})
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.accountService.Deposit)
}

func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.accountService.Withdraw)
}

func (h *AccountHandler) movement(w http.ResponseWriter, r *http.Request, apply movementFunc) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req MovementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount, false)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := apply(r.Context(), accountID, amount, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accountService.Deactivate(r.Context(), accountID, queryBool(r, "force"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accountService.Reactivate(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}
