package handlers

import (
	"net/http"

	"github.com/miguelalcalde/yaba/internal/version"
)

// HealthHandler reports liveness and the build version.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version.Version,
		})
	}
}
