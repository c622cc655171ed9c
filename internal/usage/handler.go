package usage

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gits-cloud/billing/internal/shared"
)

// Handler manages usage endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers usage routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.upsert)
	r.Post("/batch", h.upsertBatch)
	r.Get("/{subscriptionID}", h.getForPeriod)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	var input DailyInput
	if err := shared.DecodeJSON(r, &input); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	rec, err := h.service.UpsertDaily(r.Context(), input)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) upsertBatch(w http.ResponseWriter, r *http.Request) {
	var inputs []DailyInput
	if err := shared.DecodeJSON(r, &inputs); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	records, err := h.service.UpsertBatch(r.Context(), inputs)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, records)
}

func (h *Handler) getForPeriod(w http.ResponseWriter, r *http.Request) {
	subID, err := strconv.ParseInt(chi.URLParam(r, "subscriptionID"), 10, 64)
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("invalid subscription id"))
		return
	}
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("invalid start date"))
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end"))
	if err != nil {
		shared.RespondError(w, h.logger, shared.ValidationError("invalid end date"))
		return
	}
	records, err := h.service.GetForPeriod(r.Context(), subID, start, end)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, records)
}
