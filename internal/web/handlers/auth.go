package handlers

import (
	"log"
	"net/http"

	"github.com/miguelalcalde/yaba/internal/auth/raindrop"
	"github.com/miguelalcalde/yaba/internal/config"
	"github.com/miguelalcalde/yaba/internal/db"
	"gorm.io/gorm"
)

// MeHandler reports the caller's authentication state. A valid session also
// gets its last_accessed bumped; an expired or unknown one is a plain 401,
// identical to having no cookie at all.
func MeHandler(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(raindrop.SessionCookieName)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
			return
		}

		session, err := store.GetSession(cookie.Value)
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				log.Printf("auth: session lookup failed: %v", err)
			}
			writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
			return
		}

		user, err := store.GetUser(session.UserID)
		if err != nil {
			log.Printf("auth: user lookup failed: %v", err)
			writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
			return
		}

		if err := store.TouchSession(cookie.Value); err != nil {
			log.Printf("auth: touch session failed: %v", err)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"user": map[string]any{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
			},
		})
	}
}

// LogoutHandler deletes the session row and expires the cookie. A failed
// row delete is reported as a 500 so the client can retry; the cookie is
// only cleared once the server-side state is gone.
func LogoutHandler(store *db.Store, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(raindrop.SessionCookieName)
		if err == nil && cookie.Value != "" {
			if err := store.DeleteSession(cookie.Value); err != nil {
				log.Printf("auth: logout failed to delete session: %v", err)
				writeError(w, http.StatusInternalServerError, "Logout failed")
				return
			}
		}

		raindrop.ClearSessionCookie(w, cfg)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
