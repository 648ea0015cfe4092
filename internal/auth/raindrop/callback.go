package raindrop

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/miguelalcalde/yaba/internal/config"
	"github.com/miguelalcalde/yaba/internal/db"
	"github.com/miguelalcalde/yaba/internal/raindrop"
)

// Error codes attached to the root redirect when the flow aborts.
const (
	errMissingParameters = "missing_parameters"
	errInvalidState      = "invalid_state"
	errCallbackFailed    = "callback_failed"
)

func redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/?auth_error="+url.QueryEscape(code), http.StatusTemporaryRedirect)
}

func newSessionID() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// HandleCallback finishes the OAuth flow. Every precondition failure aborts
// before the token exchange and redirects to the app root with a
// distinguishing auth_error code; no partial state is left behind beyond
// the state cookie, which expires on its own within ten minutes.
func HandleCallback(cfg *config.Config, store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if provErr := query.Get("error"); provErr != "" {
			redirectWithError(w, r, provErr)
			return
		}

		code := query.Get("code")
		state := query.Get("state")
		if code == "" || state == "" {
			redirectWithError(w, r, errMissingParameters)
			return
		}

		stateCookie, err := r.Cookie(StateCookieName)
		if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
			redirectWithError(w, r, errInvalidState)
			return
		}

		oauthCfg, err := OAuthConfig(cfg, r)
		if err != nil {
			log.Printf("auth: callback rejected: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		token, err := oauthCfg.Exchange(r.Context(), code)
		if err != nil {
			log.Printf("auth: token exchange failed: %v", err)
			redirectWithError(w, r, errCallbackFailed)
			return
		}

		profile, err := raindrop.NewClient(token.AccessToken).FetchUser(r.Context())
		if err != nil {
			log.Printf("auth: user info fetch failed: %v", err)
			redirectWithError(w, r, errCallbackFailed)
			return
		}

		user, err := store.UpsertUser(profile.ID, profile.Email, profile.FullName)
		if err != nil {
			log.Printf("auth: user upsert failed: %v", err)
			redirectWithError(w, r, errCallbackFailed)
			return
		}

		if err := store.SaveToken(user.ID, token); err != nil {
			log.Printf("auth: token save failed: %v", err)
			redirectWithError(w, r, errCallbackFailed)
			return
		}

		sessionID := newSessionID()
		expiresAt := time.Now().Add(SessionCookieMaxAge * time.Second)
		if err := store.CreateSession(user.ID, sessionID, expiresAt); err != nil {
			log.Printf("auth: session create failed: %v", err)
			redirectWithError(w, r, errCallbackFailed)
			return
		}

		SetSessionCookie(w, cfg, sessionID)
		clearStateCookie(w, cfg)

		log.Printf("auth: %s signed in (raindrop user %d)", profile.Email, profile.ID)
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
	}
}
