package invoicing

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

// Handler wires HTTP endpoints for invoices.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the invoicing handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers invoice routes. All of them require an
// authenticated session.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireAuth)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/", h.create)
		r.Delete("/{id}", h.delete)
	})
}

type lineRequest struct {
	ProductID int64   `json:"product_id" validate:"required"`
	Qty       int64   `json:"qty" validate:"required"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

type createRequest struct {
	Number     string        `json:"number"`
	CustomerID int64         `json:"customer_id"`
	Lines      []lineRequest `json:"lines" validate:"required,min=1,dive"`
	Discount   float64       `json:"discount" validate:"gte=0"`
	// Paid may be negative on a net-return invoice (the refund paid out);
	// the service enforces the sign against the cart total.
	Paid     float64 `json:"paid"`
	IssuedAt string  `json:"issued_at"`
}

type lineResponse struct {
	ProductID int64   `json:"product_id"`
	Qty       int64   `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
	UnitCost  float64 `json:"unit_cost"`
	Movement  string  `json:"movement"`
}

type invoiceResponse struct {
	ID         int64          `json:"id"`
	Number     string         `json:"number"`
	CustomerID int64          `json:"customer_id,omitempty"`
	Total      float64        `json:"total"`
	Discount   float64        `json:"discount"`
	Paid       float64        `json:"paid"`
	Status     string         `json:"status"`
	IssuedAt   time.Time      `json:"issued_at"`
	Lines      []lineResponse `json:"lines,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var issuedAt time.Time
	if req.IssuedAt != "" {
		parsed, err := time.Parse("2006-01-02", req.IssuedAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "issued_at must be YYYY-MM-DD")
			return
		}
		issuedAt = parsed
	}
	input := InvoiceInput{
		Number:     req.Number,
		CustomerID: req.CustomerID,
		Discount:   req.Discount,
		Paid:       req.Paid,
		IssuedAt:   issuedAt,
		ActorID:    shared.ActorID(r.Context()),
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, LineInput{ProductID: line.ProductID, Qty: line.Qty, UnitPrice: line.UnitPrice})
	}
	inv, err := h.service.CreateInvoice(r.Context(), input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toInvoiceResponse(inv, nil))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice id")
		return
	}
	inv, lines, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(inv, lines))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{}
	q := r.URL.Query()
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
	invoices, err := h.service.ListInvoices(r.Context(), filter)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]invoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, toInvoiceResponse(&invoices[i], nil))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice id")
		return
	}
	if err := h.service.DeleteInvoice(r.Context(), id, shared.ActorID(r.Context())); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrProductNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateNumber):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrEmptyInvoice), errors.Is(err, ErrZeroQuantity), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrNegativeStock):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("invoicing request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func toInvoiceResponse(inv *Invoice, lines []InvoiceLine) invoiceResponse {
	resp := invoiceResponse{
		ID:         inv.ID,
		Number:     inv.Number,
		CustomerID: inv.CustomerID,
		Total:      inv.Total,
		Discount:   inv.Discount,
		Paid:       inv.Paid,
		Status:     string(inv.Status),
		IssuedAt:   inv.IssuedAt,
	}
	for _, line := range lines {
		resp.Lines = append(resp.Lines, lineResponse{
			ProductID: line.ProductID,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice,
			UnitCost:  line.UnitCost,
			Movement:  string(line.Movement),
		})
	}
	return resp
}
