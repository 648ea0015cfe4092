// Package raindrop drives the three-step OAuth authorization-code flow
// against Raindrop.io: redirect to the provider, verify the callback, and
// exchange the code for tokens before issuing a browser session.
package raindrop

import (
	"fmt"
	"net/http"

	"github.com/miguelalcalde/yaba/internal/config"
	"golang.org/x/oauth2"
)

// Endpoint is Raindrop's OAuth2 endpoint pair.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://raindrop.io/oauth/authorize",
	TokenURL: "https://raindrop.io/oauth/access_token",
}

// Cookie names and lifetimes for the browser flow.
const (
	SessionCookieName = "session"
	StateCookieName   = "oauth_state"

	StateCookieMaxAge   = 600               // 10 minutes, outlives any sane consent screen
	SessionCookieMaxAge = 30 * 24 * 60 * 60 // 30 days
)

// OAuthConfig builds the oauth2 config from application settings. The
// redirect URI falls back to the conventional callback path on the
// requesting host when not configured explicitly.
func OAuthConfig(cfg *config.Config, r *http.Request) (*oauth2.Config, error) {
	if cfg.Raindrop.ClientID == "" || cfg.Raindrop.ClientSecret == "" {
		return nil, fmt.Errorf("raindrop OAuth not configured: missing client credentials")
	}

	redirectURL := cfg.Raindrop.RedirectURI
	if redirectURL == "" {
		if r == nil {
			return nil, fmt.Errorf("raindrop OAuth not configured: missing redirect URI")
		}
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		redirectURL = fmt.Sprintf("%s://%s/auth/callback", scheme, r.Host)
	}

	return &oauth2.Config{
		ClientID:     cfg.Raindrop.ClientID,
		ClientSecret: cfg.Raindrop.ClientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     Endpoint,
	}, nil
}

// SetSessionCookie issues the long-lived session cookie.
func SetSessionCookie(w http.ResponseWriter, cfg *config.Config, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   SessionCookieMaxAge,
		HttpOnly: true,
		Secure:   cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie on logout.
func ClearSessionCookie(w http.ResponseWriter, cfg *config.Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
}

func setStateCookie(w http.ResponseWriter, cfg *config.Config, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   StateCookieMaxAge,
		HttpOnly: true,
		Secure:   cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
}

func clearStateCookie(w http.ResponseWriter, cfg *config.Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
}
