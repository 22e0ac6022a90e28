// Package handler implements the HTTP surface of the API server.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/teamgrid/messaging-platform/internal/apperr"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondError maps the error taxonomy onto HTTP statuses. Unclassified
// errors become opaque 500s.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case apperr.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case apperr.IsForbidden(err):
		writeError(w, http.StatusForbidden, err.Error())
	case apperr.IsInvalidArgument(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case apperr.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// idParam parses a positive int64 URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidArgument("invalid " + name)
	}
	return id, nil
}

// queryID parses a positive int64 query parameter.
func queryID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidArgument("invalid " + name)
	}
	return id, nil
}

// queryInt parses an optional int query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
