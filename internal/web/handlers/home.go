package handlers

import (
	"fmt"
	"html"
	"net/http"

	"github.com/miguelalcalde/yaba/internal/auth/raindrop"
	"github.com/miguelalcalde/yaba/internal/config"
	"github.com/miguelalcalde/yaba/internal/db"
)

// HomeHandler renders a minimal landing page: sign-in state, the configured
// tag feeds, and any auth_error code the OAuth flow redirected back with.
// The real feed UI is a client of the JSON API; this page is glue.
func HomeHandler(store *db.Store, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		authenticated := false
		if cookie, err := r.Cookie(raindrop.SessionCookieName); err == nil && cookie.Value != "" {
			if _, err := store.GetSession(cookie.Value); err == nil {
				authenticated = true
			}
		}

		var banner string
		if authErr := r.URL.Query().Get("auth_error"); authErr != "" {
			banner = fmt.Sprintf(`<p class="error">Sign-in failed: <code>%s</code></p>`, html.EscapeString(authErr))
		}

		var body string
		if authenticated {
			body = fmt.Sprintf(`
	<p>Signed in.</p>
	<ul>
		<li><a href="/bookmarks/%[1]s">#%[1]s feed</a></li>
		<li><a href="/bookmarks/%[2]s">#%[2]s feed</a></li>
	</ul>
	<form method="post" action="/auth/logout"><button type="submit">Sign out</button></form>`,
				html.EscapeString(cfg.Feeds.Read), html.EscapeString(cfg.Feeds.Watch))
		} else {
			body = `<p><a href="/auth/start">Sign in with Raindrop</a></p>`
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>yaba</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; }
		.error { color: #dc2626; }
		code { background: #f3f4f6; padding: 2px 6px; border-radius: 4px; }
	</style>
</head>
<body>
	<h1>yaba</h1>
	%s
	%s
</body>
</html>`, banner, body)
	}
}
