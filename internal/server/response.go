package server

import (
	"encoding/json"
	"net/http"

	"github.com/prompt2figma/designd/internal/errs"
)

// ErrorResponse is the uniform error body: a human message, no stack traces
// or key names.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// writeTypedError maps a typed error onto its HTTP status. This is the
// single point of status mapping.
func writeTypedError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.KindSessionNotFound:
		status = http.StatusNotFound
	case errs.KindSessionInactive:
		status = http.StatusConflict
	case errs.KindStorageFault, errs.KindGeneratorFault, errs.KindIntegrityFault:
		status = http.StatusInternalServerError
	}
	writeError(w, status, err.Error())
}
