package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/ceylonix/internal/apperr"
)

const msgValidation = "Please correct the following errors:"

// envelope is the uniform response body.
type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func errorBody(msg string) envelope {
	return envelope{Success: false, Message: msg}
}

// bodyError is a malformed request body.
type bodyError struct {
	msg string
}

func (e *bodyError) Error() string { return e.msg }

// writeError maps err onto the envelope. Anything unrecognised is logged and
// reported as fallback with a 500, without internal detail.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		ve  *apperr.ValidationError
		ue  *apperr.UploadError
		be  *bodyError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, envelope{Message: msgValidation, Errors: ve.Errors})
	case errors.As(err, &ue):
		writeJSON(w, http.StatusBadRequest, errorBody(ue.Reason))
	case errors.As(err, &be):
		writeJSON(w, http.StatusBadRequest, errorBody(be.msg))
	case errors.As(err, &mbe):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("Request body too large"))
	case errors.Is(err, apperr.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid id"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	default:
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(fallback))
	}
}
