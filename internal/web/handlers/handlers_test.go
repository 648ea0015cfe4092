package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	rdauth "github.com/miguelalcalde/yaba/internal/auth/raindrop"
	"github.com/miguelalcalde/yaba/internal/auth/token"
	"github.com/miguelalcalde/yaba/internal/config"
	"github.com/miguelalcalde/yaba/internal/db"
	"github.com/miguelalcalde/yaba/internal/db/models"
	"github.com/miguelalcalde/yaba/internal/progress"
	"github.com/miguelalcalde/yaba/internal/raindrop"
	"github.com/miguelalcalde/yaba/internal/web/middleware"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	database, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := database.AutoMigrate(&models.User{}, &models.OAuthToken{}, &models.Session{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db.NewStore(database)
}

// newBookmarkRouter mirrors the production route wiring with the gateway
// pointed at upstream and session auth bypassed via a test token.
func newBookmarkRouter(t *testing.T, upstream *httptest.Server) http.Handler {
	t.Helper()
	cfg := &config.Config{Raindrop: config.RaindropConfig{TestToken: "test-token"}}
	mgr := token.NewManager(newTestStore(t), nil)

	newClient := ClientFactory(func(accessToken string) *raindrop.Client {
		return raindrop.NewClientWithBaseURL(accessToken, upstream.URL)
	})

	r := chi.NewRouter()
	r.Route("/bookmarks", func(r chi.Router) {
		r.Use(middleware.SessionAuth(mgr, cfg))
		r.Get("/{tag}", FeedHandler(newClient))
		r.Post("/{id}/archive", ArchiveHandler(newClient))
		r.Delete("/{id}", DeleteHandler(newClient))
		r.Post("/{id}/progress", ProgressHandler(newClient))
	})
	return r
}

func TestFeedHandler_DecoratesProgress(t *testing.T) {
	note := progress.UpdateNote("my thoughts", progress.Data{Video: &progress.VideoProgress{
		Type:        "video",
		Timestamp:   90,
		LastUpdated: "2025-01-12T10:30:00Z",
		Platform:    progress.PlatformYouTube,
	}})
	noteJSON, _ := json.Marshal(note)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [
			{"_id": 1, "title": "Talk", "link": "https://youtu.be/abc", "type": "video", "note": ` + string(noteJSON) + `},
			{"_id": 2, "title": "Article", "link": "https://blog.example/post"}
		]}`))
	}))
	defer upstream.Close()

	router := newBookmarkRouter(t, upstream)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookmarks/watch", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Items []FeedItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("got %d items", len(resp.Items))
	}

	video := resp.Items[0]
	if video.Progress == nil {
		t.Fatal("video item should carry progress")
	}
	if video.Progress.Timestamp != 90 || video.Progress.Formatted != "01:30" {
		t.Errorf("progress = %+v", video.Progress)
	}
	if !strings.Contains(video.Progress.ResumeURL, "t=90") {
		t.Errorf("resume URL = %q", video.Progress.ResumeURL)
	}

	if resp.Items[1].Progress != nil {
		t.Error("plain article should carry no progress")
	}
}

func TestArchiveHandler_MissingTag(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway must not be called on invalid input")
	}))
	defer upstream.Close()

	router := newBookmarkRouter(t, upstream)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bookmarks/9/archive", strings.NewReader(`{}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestArchiveHandler_Success(t *testing.T) {
	var putTags []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"item": {"_id": 9, "tags": ["read", "longform"]}}`))
		case http.MethodPut:
			var body struct {
				Tags []string `json:"tags"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			putTags = body.Tags
			w.Write([]byte(`{"result": true}`))
		}
	}))
	defer upstream.Close()

	router := newBookmarkRouter(t, upstream)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bookmarks/9/archive", strings.NewReader(`{"currentTag":"#read"}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	joined := strings.Join(putTags, ",")
	if !strings.Contains(joined, "read-archive") || !strings.Contains(joined, "longform") || strings.Contains(joined, "read,") {
		t.Errorf("tags = %v", putTags)
	}
}

func TestDeleteHandler_InvalidID(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway must not be called for a bad id")
	}))
	defer upstream.Close()

	router := newBookmarkRouter(t, upstream)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/bookmarks/not-a-number", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestProgressHandler_WritesSentinelNote(t *testing.T) {
	var savedNote string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"item": {"_id": 7, "link": "https://youtu.be/abc", "note": "pre-existing note"}}`))
		case http.MethodPut:
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			savedNote = body["note"]
			w.Write([]byte(`{"result": true}`))
		}
	}))
	defer upstream.Close()

	router := newBookmarkRouter(t, upstream)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bookmarks/7/progress", strings.NewReader(`{"timestamp":754}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	data, ok := progress.ParseNote(savedNote)
	if !ok || data.Video == nil {
		t.Fatalf("saved note carries no parseable progress: %q", savedNote)
	}
	if data.Video.Timestamp != 754 || data.Video.Platform != progress.PlatformYouTube {
		t.Errorf("progress = %+v", data.Video)
	}
	if !strings.HasSuffix(savedNote, "pre-existing note") {
		t.Errorf("original note text lost: %q", savedNote)
	}
}

func TestProgressHandler_RejectsMissingTimestamp(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway must not be called without a timestamp")
	}))
	defer upstream.Close()

	router := newBookmarkRouter(t, upstream)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bookmarks/7/progress", strings.NewReader(`{}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestFeedHandler_ProviderErrorBecomesBadGateway(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	router := newBookmarkRouter(t, upstream)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookmarks/read", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "503") {
		t.Errorf("response should carry the upstream status: %s", rec.Body.String())
	}
}

func TestMeHandler(t *testing.T) {
	store := newTestStore(t)
	user, _ := store.UpsertUser(5, "me@example.com", "Me")
	store.CreateSession(user.ID, "live", time.Now().Add(time.Hour))
	store.CreateSession(user.ID, "gone", time.Now().Add(-time.Hour))

	handler := MeHandler(store)

	t.Run("valid session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: rdauth.SessionCookieName, Value: "live"})
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp struct {
			Authenticated bool `json:"authenticated"`
			User          struct {
				Email string `json:"email"`
			} `json:"user"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if !resp.Authenticated || resp.User.Email != "me@example.com" {
			t.Errorf("response = %s", rec.Body.String())
		}
	})

	t.Run("expired and missing sessions look identical", func(t *testing.T) {
		var bodies []string
		for _, sessionID := range []string{"gone", "no-such-session"} {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			req.AddCookie(&http.Cookie{Name: rdauth.SessionCookieName, Value: sessionID})
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("session %q: status = %d", sessionID, rec.Code)
			}
			bodies = append(bodies, rec.Body.String())
		}
		if bodies[0] != bodies[1] {
			t.Errorf("expired and missing sessions must be indistinguishable: %q vs %q", bodies[0], bodies[1])
		}
	})

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestLogoutHandler(t *testing.T) {
	store := newTestStore(t)
	cfg := &config.Config{}
	user, _ := store.UpsertUser(5, "me@example.com", "Me")
	store.CreateSession(user.ID, "live", time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: rdauth.SessionCookieName, Value: "live"})
	rec := httptest.NewRecorder()
	LogoutHandler(store, cfg)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if _, err := store.GetSession("live"); err == nil {
		t.Error("session row should be deleted")
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == rdauth.SessionCookieName && c.MaxAge >= 0 {
			t.Errorf("session cookie not expired: %+v", c)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
