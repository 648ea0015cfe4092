package raindrop

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/miguelalcalde/yaba/internal/config"
)

// newStateToken mints a fresh CSRF state value per login attempt.
func newStateToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// HandleLogin starts the OAuth flow: generate a state token, stash it in a
// short-lived HTTP-only cookie, and send the user agent to Raindrop's
// consent page. Missing credentials surface as a 500 with a message rather
// than a silent default.
func HandleLogin(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		oauthCfg, err := OAuthConfig(cfg, r)
		if err != nil {
			log.Printf("auth: login rejected: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		state := newStateToken()
		setStateCookie(w, cfg, state)

		http.Redirect(w, r, oauthCfg.AuthCodeURL(state), http.StatusTemporaryRedirect)
	}
}
