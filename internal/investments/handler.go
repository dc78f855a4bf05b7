package investments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Handler wires HTTP endpoints for investments.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the investments handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers investment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireAuth)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type investmentRequest struct {
	Name          string  `json:"name" validate:"required"`
	Capital       float64 `json:"capital" validate:"gt=0"`
	CurrentReturn float64 `json:"current_return"`
	Status        string  `json:"status" validate:"omitempty,oneof=active closed"`
}

type investmentResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Capital       float64 `json:"capital"`
	CurrentReturn float64 `json:"current_return"`
	Status        string  `json:"status"`
}

func toResponse(inv *Investment) investmentResponse {
	return investmentResponse{
		ID:            inv.ID,
		Name:          inv.Name,
		Capital:       inv.Capital,
		CurrentReturn: inv.CurrentReturn,
		Status:        string(inv.Status),
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*investmentRequest, bool) {
	var req investmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return nil, false
	}
	return &req, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	inv, err := h.service.CreateInvestment(r.Context(), InvestmentInput{
		Name:          req.Name,
		Capital:       req.Capital,
		CurrentReturn: req.CurrentReturn,
		Status:        Status(req.Status),
		ActorID:       shared.ActorID(r.Context()),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(inv))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid investment id")
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	inv, err := h.service.UpdateInvestment(r.Context(), id, InvestmentInput{
		Name:          req.Name,
		Capital:       req.Capital,
		CurrentReturn: req.CurrentReturn,
		Status:        Status(req.Status),
		ActorID:       shared.ActorID(r.Context()),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(inv))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid investment id")
		return
	}
	inv, err := h.service.GetInvestment(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(inv))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("status") == "active"
	list, err := h.service.ListInvestments(r.Context(), onlyActive)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]investmentResponse, 0, len(list))
	for i := range list {
		out = append(out, toResponse(&list[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid investment id")
		return
	}
	if err := h.service.DeleteInvestment(r.Context(), id, shared.ActorID(r.Context())); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidCapital), errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("investments request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
