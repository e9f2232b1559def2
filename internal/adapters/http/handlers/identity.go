package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// currentUserID resolves the acting user from the X-User-ID header, with
// a user_id query parameter fallback. Authentication itself is delegated
// to the fronting proxy; this service only needs the identity.
func currentUserID(r *http.Request) uint {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		raw = r.URL.Query().Get("user_id")
	}
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

func pathID(r *http.Request, param string) (uint, bool) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
