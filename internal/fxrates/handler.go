package fxrates

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gits-cloud/billing/internal/shared"
)

// Handler manages FX rate endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers FX rate routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/fx-rates", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/active", h.getActive)
		r.Delete("/active", h.deactivate)
		r.Get("/for-date", h.getForDate)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := shared.DecodeJSON(r, &input); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if err := h.validate.Struct(input); err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("%v", err))
		return
	}
	rate, err := h.service.Create(r.Context(), input)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, rate)
}

func (h *Handler) getActive(w http.ResponseWriter, r *http.Request) {
	rate, err := h.service.GetActive(r.Context())
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, rate)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Deactivate(r.Context()); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getForDate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("invalid date %q, want YYYY-MM-DD", raw))
		return
	}
	rate, err := h.service.GetForDate(r.Context(), date)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, rate)
}
