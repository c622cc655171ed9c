package invoices

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gits-cloud/billing/internal/shared"
)

// Tax invoice uploads are small PDFs; anything larger is rejected early.
const maxTaxInvoiceSize = 10 << 20

// Handler manages invoice endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/pdf", h.downloadPDF)
		r.Post("/{id}/tax-invoice", h.uploadTaxInvoice)
		r.Post("/{id}/send", h.send)
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

	invoices, err := h.service.List(r.Context(), filter)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, invoices)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, inv)
}

func (h *Handler) downloadPDF(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if inv.PdfPath == "" {
		shared.RespondError(w, h.logger, shared.ErrNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+inv.Number+`.pdf"`)
	http.ServeFile(w, r, inv.PdfPath)
}

func (h *Handler) uploadTaxInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if err := r.ParseMultipartForm(maxTaxInvoiceSize); err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("invalid multipart form: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("file field is required"))
		return
	}
	defer func() {
		_ = file.Close()
	}()
	content, err := io.ReadAll(io.LimitReader(file, maxTaxInvoiceSize))
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("read upload: %v", err))
		return
	}
	inv, err := h.service.UploadTaxInvoice(r.Context(), id, header.Filename, content)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, inv)
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
	inv, err := h.service.Send(r.Context(), id, input)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, inv)
}
