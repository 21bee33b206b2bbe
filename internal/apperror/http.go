package apperror

import (
	"encoding/json"
	"errors"
	"net/http"
)

type errorBody struct {
	Detail    string              `json:"detail"`
	Fields    map[string][]string `json:"fields,omitempty"`
	Offending []OffendingKind     `json:"offending,omitempty"`
}

// Write maps a tagged error variant to its HTTP status and writes a JSON body.
// Unknown errors are reported as 500 without leaking internals.
func Write(w http.ResponseWriter, err error) {
	var (
		validation *ValidationError
		permission *PermissionDenied
		notFound   *NotFound
		conflict   *Conflict
		mismatch   *TypeTargetMismatch
		required   *ContentRequired
		notAllowed *ContentNotAllowed
		ambiguous  *ContentAmbiguous
		unsafe     *TargetChangeUnsafe
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "validation failed", Fields: validation.Fields})
	case errors.As(err, &mismatch), errors.As(err, &required), errors.As(err, &notAllowed), errors.As(err, &ambiguous):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: err.Error()})
	case errors.As(err, &unsafe):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: err.Error(), Offending: unsafe.Offending})
	case errors.As(err, &permission):
		writeJSON(w, http.StatusForbidden, errorBody{Detail: err.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorBody{Detail: err.Error()})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorBody{Detail: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
