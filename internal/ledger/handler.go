package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Handler wires HTTP endpoints for accounts and transactions.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireAuth)
		r.Get("/accounts", h.listAccounts)
		r.Post("/accounts", h.createAccount)
		r.Get("/accounts/{id}", h.getAccount)
		r.Get("/transactions", h.listTransactions)
		r.Post("/transactions", h.addTransaction)
		r.Delete("/transactions/{id}", h.deleteTransaction)
	})
}

type accountRequest struct {
	Name    string  `json:"name" validate:"required"`
	Opening float64 `json:"opening"`
}

type accountResponse struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

type transactionRequest struct {
	AccountID        int64   `json:"account_id" validate:"required"`
	CounterAccountID int64   `json:"counter_account_id"`
	Amount           float64 `json:"amount" validate:"gt=0"`
	Type             string  `json:"type" validate:"required,oneof=income expense transfer"`
	Description      string  `json:"description"`
	OccurredAt       string  `json:"occurred_at"`
}

type transactionResponse struct {
	ID               int64     `json:"id"`
	AccountID        int64     `json:"account_id"`
	CounterAccountID int64     `json:"counter_account_id,omitempty"`
	Amount           float64   `json:"amount"`
	Type             string    `json:"type"`
	Description      string    `json:"description,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.CreateAccount(r.Context(), req.Name, req.Opening)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, accountResponse{ID: account.ID, Name: account.Name, Balance: account.Balance})
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accountResponse{ID: account.ID, Name: account.Name, Balance: account.Balance})
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{ID: a.ID, Name: a.Name, Balance: a.Balance})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) addTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var occurredAt time.Time
	if req.OccurredAt != "" {
		parsed, err := time.Parse("2006-01-02", req.OccurredAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "occurred_at must be YYYY-MM-DD")
			return
		}
		occurredAt = parsed
	}
	txn, err := h.service.AddTransaction(r.Context(), TransactionInput{
		AccountID:        req.AccountID,
		CounterAccountID: req.CounterAccountID,
		Amount:           req.Amount,
		Type:             TransactionType(req.Type),
		Description:      req.Description,
		OccurredAt:       occurredAt,
		ActorID:          shared.ActorID(r.Context()),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	if err := h.service.DeleteTransaction(r.Context(), id, shared.ActorID(r.Context())); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{}
	q := r.URL.Query()
	if acc := q.Get("account_id"); acc != "" {
		id, err := strconv.ParseInt(acc, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
			return
		}
		filter.AccountID = id
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
			return
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
			return
		}
		filter.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	txns, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, toTransactionResponse(&txns[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrTransactionNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidType), errors.Is(err, ErrTransferAccounts), errors.Is(err, ErrAmbiguousAccount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("ledger request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func toTransactionResponse(t *Transaction) transactionResponse {
	return transactionResponse{
		ID:               t.ID,
		AccountID:        t.AccountID,
		CounterAccountID: t.CounterAccountID,
		Amount:           t.Amount,
		Type:             string(t.Type),
		Description:      t.Description,
		OccurredAt:       t.OccurredAt,
	}
}
