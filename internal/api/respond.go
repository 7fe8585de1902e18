package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"pickupsched/internal/model"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// msgReadUnavailable is shown to customers when availability cannot be loaded.
const msgReadUnavailable = "no slots available, try again"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeValidation(w http.ResponseWriter, verr *model.ValidationError) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.FieldErrors})
}

// writeReadError maps a failed read. Storage failures surface as a retryable
// "no slots" message instead of an internal error.
func writeReadError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr)
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("availability read failed")
		writeError(w, http.StatusServiceUnavailable, msgReadUnavailable)
	}
}

func writeWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr)
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "scheduling is not enabled for this affiliate")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("schedule write failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads a JSON body. Decoding problems that carry field detail
// (such as an incomplete weekly template) are reported per field.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			writeValidation(w, verr)
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
