package settings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Handler wires HTTP endpoints for settings.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the settings handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireAuth)
		r.Get("/", h.get)
		r.Put("/", h.update)
	})
}

type settingsRequest struct {
	DollarRate      float64 `json:"dollar_rate" validate:"gt=0"`
	OfficeRent      float64 `json:"office_rent" validate:"gte=0"`
	MonthlySalaries float64 `json:"monthly_salaries" validate:"gte=0"`
}

type settingsResponse struct {
	DollarRate      float64 `json:"dollar_rate"`
	OfficeRent      float64 `json:"office_rent"`
	MonthlySalaries float64 `json:"monthly_salaries"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("settings fetch failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settingsResponse{DollarRate: s.DollarRate, OfficeRent: s.OfficeRent, MonthlySalaries: s.MonthlySalaries})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	s, err := h.service.Update(r.Context(), Settings{
		DollarRate:      req.DollarRate,
		OfficeRent:      req.OfficeRent,
		MonthlySalaries: req.MonthlySalaries,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRate) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("settings update failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settingsResponse{DollarRate: s.DollarRate, OfficeRent: s.OfficeRent, MonthlySalaries: s.MonthlySalaries})
}
