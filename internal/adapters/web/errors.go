package web

import (
	"errors"
	"net/http"

	"library-api/internal/core"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// errorStatus maps each core error kind to its HTTP status and stable code.
var errorStatus = []struct {
	kind   error
	status int
	code   string
}{
	{core.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{core.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{core.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{core.ErrValidation, http.StatusBadRequest, "VALIDATION"},
	{core.ErrConflict, http.StatusConflict, "CONFLICT"},
	{core.ErrLoanLimitExceeded, http.StatusBadRequest, "LOAN_LIMIT_EXCEEDED"},
	{core.ErrUnavailable, http.StatusBadRequest, "UNAVAILABLE"},
	{core.ErrAlreadyReturned, http.StatusBadRequest, "ALREADY_RETURNED"},
	{core.ErrIntegrity, http.StatusBadRequest, "INTEGRITY"},
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError classifies err by kind. Unclassified errors are logged and
// answered with a generic 500 so driver details never reach the client.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.kind) {
			writeError(w, r, core.PublicMessage(err), m.code, m.status)
			return
		}
	}
	requestLogger(h.log, r).WithField("error", err.Error()).Error("request failed")
	writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
