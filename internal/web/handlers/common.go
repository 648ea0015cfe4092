// Package handlers implements the HTTP surface: auth session endpoints and
// the tag-feed bookmark API over the Raindrop gateway.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/miguelalcalde/yaba/internal/raindrop"
	"github.com/miguelalcalde/yaba/internal/web/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ClientFactory builds a Raindrop client for an access token. Production
// wiring passes raindrop.NewClient; tests substitute a client pointed at an
// httptest server.
type ClientFactory func(accessToken string) *raindrop.Client

// fromRequest builds a client from the token the session middleware resolved.
func (f ClientFactory) fromRequest(r *http.Request) *raindrop.Client {
	return f(middleware.AccessToken(r.Context()))
}

// bookmarkID parses the {id} route parameter.
func bookmarkID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// writeProviderError maps a gateway failure onto the response: provider
// rejections become a 502 carrying the upstream status, everything else a
// generic 500.
func writeProviderError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var apiErr *raindrop.APIError
	if errors.As(err, &apiErr) {
		log.Printf("bookmarks: %s failed upstream (%d): %v", action, apiErr.StatusCode, err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	log.Printf("bookmarks: %s failed: %v", action, err)
	writeError(w, http.StatusInternalServerError, "Failed to "+action)
}
