package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/miguelalcalde/yaba/internal/progress"
	"github.com/miguelalcalde/yaba/internal/raindrop"
)

// FeedItem is a bookmark decorated with decoded progress state and a resume
// deep link when playback progress exists.
type FeedItem struct {
	raindrop.Bookmark
	Progress *ProgressInfo `json:"progress,omitempty"`
}

// ProgressInfo is the presentation form of an embedded progress record.
type ProgressInfo struct {
	Timestamp   int    `json:"timestamp"`
	Formatted   string `json:"formatted"`
	Platform    string `json:"platform"`
	LastUpdated string `json:"lastUpdated"`
	ResumeURL   string `json:"resumeUrl"`
}

func decorate(b raindrop.Bookmark) FeedItem {
	item := FeedItem{Bookmark: b}

	data, ok := progress.ParseNote(b.Note)
	if !ok || data.Video == nil {
		return item
	}

	v := data.Video
	item.Progress = &ProgressInfo{
		Timestamp:   v.Timestamp,
		Formatted:   progress.FormatTimestamp(v.Timestamp),
		Platform:    v.Platform,
		LastUpdated: v.LastUpdated,
		ResumeURL:   progress.ResumeURL(b.Link, v.Timestamp, v.Platform),
	}
	return item
}

// FeedHandler lists the bookmarks carrying the requested tag, each item
// decorated with resume affordances.
func FeedHandler(newClient ClientFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag := chi.URLParam(r, "tag")

		bookmarks, err := newClient.fromRequest(r).SearchByTag(r.Context(), tag)
		if err != nil {
			writeProviderError(w, r, "fetch bookmarks", err)
			return
		}

		items := make([]FeedItem, 0, len(bookmarks))
		for _, b := range bookmarks {
			items = append(items, decorate(b))
		}

		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// ArchiveHandler swaps a bookmark's feed tag for its archive form.
func ArchiveHandler(newClient ClientFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := bookmarkID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid bookmark id")
			return
		}

		var body struct {
			CurrentTag string `json:"currentTag"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.CurrentTag == "" {
			writeError(w, http.StatusBadRequest, "Missing currentTag")
			return
		}

		if err := newClient.fromRequest(r).Archive(r.Context(), id, body.CurrentTag); err != nil {
			writeProviderError(w, r, "archive bookmark", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// DeleteHandler removes a bookmark from Raindrop.
func DeleteHandler(newClient ClientFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := bookmarkID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid bookmark id")
			return
		}

		if err := newClient.fromRequest(r).Delete(r.Context(), id); err != nil {
			writeProviderError(w, r, "delete bookmark", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// ProgressHandler saves a playback timestamp into the bookmark's note via
// the sentinel encoding: fetch the current note, detect the platform from
// the link, and write a fresh progress block back.
func ProgressHandler(newClient ClientFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := bookmarkID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid bookmark id")
			return
		}

		var body struct {
			Timestamp *int `json:"timestamp"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Timestamp == nil || *body.Timestamp < 0 {
			writeError(w, http.StatusBadRequest, "Missing or invalid timestamp")
			return
		}

		client := newClient.fromRequest(r)
		bookmark, err := client.GetByID(r.Context(), id)
		if err != nil {
			writeProviderError(w, r, "load bookmark", err)
			return
		}

		note := progress.UpdateNote(bookmark.Note, progress.Data{
			Video: &progress.VideoProgress{
				Type:        "video",
				Timestamp:   *body.Timestamp,
				LastUpdated: time.Now().UTC().Format(time.RFC3339),
				Platform:    progress.DetectPlatform(bookmark.Link),
			},
		})

		if err := client.UpdateNote(r.Context(), id, note); err != nil {
			writeProviderError(w, r, "update progress", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
