package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	rdauth "github.com/miguelalcalde/yaba/internal/auth/raindrop"
	"github.com/miguelalcalde/yaba/internal/auth/token"
	"github.com/miguelalcalde/yaba/internal/config"
	"github.com/miguelalcalde/yaba/internal/db"
	"github.com/miguelalcalde/yaba/internal/raindrop"
	"github.com/miguelalcalde/yaba/internal/version"
	"github.com/miguelalcalde/yaba/internal/web/handlers"
	"github.com/miguelalcalde/yaba/internal/web/middleware"
	"golang.org/x/oauth2"
)

func main() {
	configPath := flag.String("config", "yaba.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	store := db.NewStore(database)

	// Startup sweep; session reads enforce expiry regardless.
	if err := store.CleanupExpiredSessions(); err != nil {
		log.Printf("Failed to clean up expired sessions: %v", err)
	}

	// Refresh config needs only client credentials, not a redirect URI.
	var oauthCfg *oauth2.Config
	if cfg.Raindrop.ClientID != "" && cfg.Raindrop.ClientSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     cfg.Raindrop.ClientID,
			ClientSecret: cfg.Raindrop.ClientSecret,
			Endpoint:     rdauth.Endpoint,
		}
	} else {
		log.Printf("Raindrop OAuth credentials not configured; sign-in disabled")
	}

	tokenManager := token.NewManager(store, oauthCfg)

	// Create router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)

	// Public routes
	r.Get("/", handlers.HomeHandler(store, cfg))
	r.Get("/healthz", handlers.HealthHandler())

	// OAuth flow
	r.Get("/auth/start", rdauth.HandleLogin(cfg))
	r.Get("/auth/callback", rdauth.HandleCallback(cfg, store))
	r.Post("/auth/logout", handlers.LogoutHandler(store, cfg))
	r.Get("/auth/me", handlers.MeHandler(store))

	// Bookmark API (session cookie required)
	newClient := handlers.ClientFactory(raindrop.NewClient)
	r.Route("/bookmarks", func(r chi.Router) {
		r.Use(middleware.SessionAuth(tokenManager, cfg))
		r.Get("/{tag}", handlers.FeedHandler(newClient))
		r.Post("/{id}/archive", handlers.ArchiveHandler(newClient))
		r.Delete("/{id}", handlers.DeleteHandler(newClient))
		r.Post("/{id}/progress", handlers.ProgressHandler(newClient))
	})

	addr := cfg.Addr()
	log.Printf("yaba %s starting on http://%s (feeds: #%s, #%s)",
		version.Version, addr, cfg.Feeds.Read, cfg.Feeds.Watch)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
