package inventory

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Handler wires HTTP endpoints for stock movements.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireAuth)
		r.Post("/adjustments", h.adjustStock)
		r.Post("/purchases", h.purchaseStock)
	})
}

type adjustRequest struct {
	ProductID int64  `json:"product_id" validate:"required"`
	Qty       int64  `json:"qty" validate:"gt=0"`
	Type      string `json:"type" validate:"required,oneof=in out"`
	Reason    string `json:"reason"`
}

type purchaseRequest struct {
	ProductID int64   `json:"product_id" validate:"required"`
	Qty       int64   `json:"qty" validate:"gt=0"`
	UnitCost  float64 `json:"unit_cost" validate:"gte=0"`
	TotalCost float64 `json:"total_cost" validate:"gte=0"`
	AccountID int64   `json:"account_id" validate:"required"`
}

type adjustmentResponse struct {
	ProductID int64 `json:"product_id"`
	NewStock  int64 `json:"new_stock"`
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.AdjustStock(r.Context(), AdjustmentInput{
		ProductID: req.ProductID,
		Qty:       req.Qty,
		Type:      AdjustmentType(req.Type),
		Reason:    req.Reason,
		ActorID:   shared.ActorID(r.Context()),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, adjustmentResponse{ProductID: result.ProductID, NewStock: result.NewStock})
}

func (h *Handler) purchaseStock(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.PurchaseStock(r.Context(), PurchaseInput{
		ProductID: req.ProductID,
		Qty:       req.Qty,
		UnitCost:  req.UnitCost,
		TotalCost: req.TotalCost,
		AccountID: req.AccountID,
		ActorID:   shared.ActorID(r.Context()),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, adjustmentResponse{ProductID: result.ProductID, NewStock: result.NewStock})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidCost):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNegativeStock):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("inventory request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
