// Package raindrop is a thin authenticated client for the Raindrop.io REST
// API, covering only the handful of operations the app uses: tag search,
// note and tag updates, delete, and the user-info probe.
package raindrop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/miguelalcalde/yaba/internal/util"
	"github.com/miguelalcalde/yaba/internal/version"
)

// DefaultBaseURL is the production Raindrop REST endpoint.
const DefaultBaseURL = "https://api.raindrop.io/rest/v1"

// APIError carries the HTTP status of a failed provider call. Callers get
// the status and nothing else; there is no retry layer.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("raindrop API error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client talks to the Raindrop API on behalf of one access token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client bound to an access token.
func NewClient(token string) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBaseURL is NewClient with an overridable endpoint, used by
// tests against httptest servers.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Bookmark is the local shape of a Raindrop item. It is never persisted;
// every read is a live fetch against the provider.
type Bookmark struct {
	ID      int64    `json:"_id"`
	Title   string   `json:"title"`
	Excerpt string   `json:"excerpt"`
	Link    string   `json:"link"`
	Domain  string   `json:"domain"`
	Cover   string   `json:"cover"`
	Tags    []string `json:"tags"`
	Created string   `json:"created"`
	Type    string   `json:"type"`
	Note    string   `json:"note"`
}

// User is the Raindrop account profile returned by the user-info endpoint.
type User struct {
	ID       int64  `json:"_id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type rawItem struct {
	ID      int64    `json:"_id"`
	Title   string   `json:"title"`
	Excerpt string   `json:"excerpt"`
	Link    string   `json:"link"`
	Domain  string   `json:"domain"`
	Cover   string   `json:"cover"`
	Tags    []string `json:"tags"`
	Created string   `json:"created"`
	Type    string   `json:"type"`
	Note    string   `json:"note"`
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "yaba/"+version.Version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("raindrop request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("raindrop: %s %s -> %d: %s", method, endpoint, resp.StatusCode, util.TruncateBytes(respBody))
		return &APIError{StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SearchByTag lists bookmarks carrying the given tag. A leading '#' on the
// tag is stripped before it is sent as a hashtag search query. Absent fields
// on raw items default to empty values and type defaults to "link".
func (c *Client) SearchByTag(ctx context.Context, tag string) ([]Bookmark, error) {
	clean := strings.TrimPrefix(tag, "#")
	endpoint := "/raindrops/0?search=" + url.QueryEscape("#"+clean)

	var result struct {
		Items []rawItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}

	bookmarks := make([]Bookmark, 0, len(result.Items))
	for _, item := range result.Items {
		bookmarks = append(bookmarks, mapItem(item))
	}
	return bookmarks, nil
}

func mapItem(item rawItem) Bookmark {
	b := Bookmark(item)
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if b.Type == "" {
		b.Type = "link"
	}
	return b
}

// GetByID fetches a single bookmark.
func (c *Client) GetByID(ctx context.Context, id int64) (*Bookmark, error) {
	var result struct {
		Item rawItem `json:"item"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/raindrop/%d", id), nil, &result); err != nil {
		return nil, err
	}
	b := mapItem(result.Item)
	return &b, nil
}

// UpdateNote replaces the bookmark's note field.
func (c *Client) UpdateNote(ctx context.Context, id int64, note string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/raindrop/%d", id), map[string]string{"note": note}, nil)
}

// UpdateTags replaces the bookmark's tag list.
func (c *Client) UpdateTags(ctx context.Context, id int64, tags []string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/raindrop/%d", id), map[string][]string{"tags": tags}, nil)
}

// Archive swaps the feed tag for its "-archive" form, preserving unrelated
// tags. This is a read-modify-write with no version check: concurrent
// archives of the same bookmark race, last write wins.
func (c *Client) Archive(ctx context.Context, id int64, currentTag string) error {
	clean := strings.TrimPrefix(currentTag, "#")
	archiveTag := clean + "-archive"

	bookmark, err := c.GetByID(ctx, id)
	if err != nil {
		return err
	}

	updated := make([]string, 0, len(bookmark.Tags)+1)
	for _, tag := range bookmark.Tags {
		if tag != clean {
			updated = append(updated, tag)
		}
	}
	updated = append(updated, archiveTag)

	return c.UpdateTags(ctx, id, updated)
}

// Delete removes a bookmark from Raindrop.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/raindrop/%d", id), nil, nil)
}

// FetchUser returns the account profile for the client's token.
func (c *Client) FetchUser(ctx context.Context) (*User, error) {
	var result struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/user", nil, &result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

// TestConnection probes the user-info endpoint and reports reachability.
// Any failure means false; the error itself is deliberately swallowed.
func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.FetchUser(ctx)
	return err == nil
}
