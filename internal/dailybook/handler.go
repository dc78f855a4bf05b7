package dailybook

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Handler wires the daily posting endpoint.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the dailybook handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers dailybook routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireAuth)
		r.Post("/", h.post)
	})
}

type entryRequest struct {
	ProductID   int64   `json:"product_id" validate:"required"`
	QtySold     int64   `json:"qty_sold" validate:"gte=0"`
	QtyReturned int64   `json:"qty_returned" validate:"gte=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

type expenseEntryRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Category    string  `json:"category" validate:"required"`
}

type postRequest struct {
	Date         string                `json:"date" validate:"required"`
	Entries      []entryRequest        `json:"entries" validate:"dive"`
	Expenses     []expenseEntryRequest `json:"expenses" validate:"dive"`
	PropertyFund float64               `json:"property_fund"`
	OthersFund   float64               `json:"others_fund"`
	AdCostDollar float64               `json:"ad_cost_dollar" validate:"gte=0"`
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}

	input := PostInput{
		Date:         date,
		PropertyFund: req.PropertyFund,
		OthersFund:   req.OthersFund,
		AdCostDollar: req.AdCostDollar,
		ActorID:      shared.ActorID(r.Context()),
	}
	for _, e := range req.Entries {
		input.Entries = append(input.Entries, Entry{
			ProductID:   e.ProductID,
			QtySold:     e.QtySold,
			QtyReturned: e.QtyReturned,
			UnitPrice:   e.UnitPrice,
		})
	}
	for _, e := range req.Expenses {
		input.Expenses = append(input.Expenses, ExpenseEntry{
			Description: e.Description,
			Amount:      e.Amount,
			Category:    e.Category,
		})
	}

	result, err := h.service.PostDailyBook(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyDay), errors.Is(err, ErrInvalidEntry), errors.Is(err, ErrMissingDate):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			h.logger.Error("daily book post failed", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	status := http.StatusOK
	if result.Failed() {
		// some steps landed, some did not; the body says which
		status = http.StatusMultiStatus
	}
	httpx.JSON(w, status, result)
}
