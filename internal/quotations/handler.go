package quotations

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gits-cloud/billing/internal/invoices"
	"github.com/gits-cloud/billing/internal/shared"
)

// Handler manages quotation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers quotation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/quotations", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Get("/{id}/pdf", h.downloadPDF)
		r.Post("/{id}/send", h.send)
		r.Post("/{id}/accept", h.accept)
		r.Post("/{id}/deny", h.deny)
	})
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, shared.ValidationError("invalid id")
	}
	return id, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			shared.RespondError(w, h.logger, shared.ValidationError("invalid client_id"))
			return
		}
		filter.ClientID = id
	}
	filter.Status = Status(r.URL.Query().Get("status"))

	quotations, err := h.service.List(r.Context(), filter)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, quotations)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := shared.DecodeJSON(r, &input); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if err := h.validate.Struct(input); err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("%v", err))
		return
	}
	q, err := h.service.Create(r.Context(), input)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, q)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, q)
}

func (h *Handler) downloadPDF(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if q.PdfPath == "" {
		shared.RespondError(w, h.logger, shared.ErrNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+q.Number+`.pdf"`)
	http.ServeFile(w, r, q.PdfPath)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	var input SendInput
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &input); err != nil {
			shared.RespondError(w, h.logger, err)
			return
		}
		if err := h.validate.Struct(input); err != nil {
			shared.RespondError(w, h.logger, shared.ValidationError("%v", err))
			return
		}
	}
	q, err := h.service.Send(r.Context(), id, input)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, q)
}

type acceptResponse struct {
	Quotation *Quotation        `json:"quotation"`
	Invoice   *invoices.Invoice `json:"invoice"`
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	q, inv, err := h.service.Accept(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, acceptResponse{Quotation: q, Invoice: inv})
}

func (h *Handler) deny(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	q, err := h.service.Deny(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, q)
}
