package shared

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// RespondError maps the error taxonomy to HTTP statuses and writes the body.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, ErrUnknownPricingType):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrExternalService):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("unhandled error", slog.Any("error", err))
	}
	RespondJSON(w, status, errorBody{Error: UserSafeMessage(err)})
}

// DecodeJSON parses a request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return ValidationError("invalid request body: %v", err)
	}
	return nil
}
