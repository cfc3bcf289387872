// src/handlers/account_handler.go
package handlers

import (
	"net/http"

	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/services"
	"github.com/username/spendlens/src/utils"
)

type AccountHandler struct {
	accountService  services.AccountService
	categoryService services.CategoryService
}

func NewAccountHandler(accountService services.AccountService, categoryService services.CategoryService) *AccountHandler {
	return &AccountHandler{
		accountService:  accountService,
		categoryService: categoryService,
	}
}

func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListAccounts(r.Context(), queryBool(r, "include_archived"))
	if err != nil {
		sendServiceError(w, r, err, "list accounts")
		return
	}
	utils.WriteJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	account, err := h.accountService.GetAccount(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "load account")
		return
	}
	utils.WriteJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var in models.AccountCreate
	if err := decodeJSON(w, r, &in); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	account, err := h.accountService.CreateAccount(r.Context(), in)
	if err != nil {
		sendServiceError(w, r, err, "create account")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, account)
}

// HandleArchiveAccount hides the account. Its ledger is kept.
func (h *AccountHandler) HandleArchiveAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.accountService.ArchiveAccount(r.Context(), id); err != nil {
		sendServiceError(w, r, err, "archive account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	txs, err := h.accountService.ListTransactions(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "list transactions")
		return
	}
	utils.WriteJSON(w, http.StatusOK, txs)
}

func (h *AccountHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.ListCategories(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "list categories")
		return
	}
	utils.WriteJSON(w, http.StatusOK, categories)
}

func (h *AccountHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in models.CategoryCreate
	if err := decodeJSON(w, r, &in); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	category, err := h.categoryService.CreateCategory(r.Context(), in)
	if err != nil {
		sendServiceError(w, r, err, "create category")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, category)
}
