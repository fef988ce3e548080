package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pubtrend/pubtrend/internal/trends"
)

// unknownErrorBody is the only body clients see for server-side failures.
const unknownErrorBody = "Unknown Error"

// errorResponse is the body of 4xx responses.
type errorResponse struct {
	Detail string `json:"detail"`
}

// paramError reports a missing or malformed query parameter.
type paramError struct {
	Name   string
	Reason string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("query parameter %q %s", e.Name, e.Reason)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeUnknownError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, unknownErrorBody)
}

// writeError maps err to a response. Validation failures are reported to
// the caller; anything else is logged and masked.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *paramError
	switch {
	case errors.As(err, &pe):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: pe.Error()})
	case errors.Is(err, trends.ErrInvalidInput):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
	default:
		h.log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeUnknownError(w)
	}
}
