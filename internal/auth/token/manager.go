// Package token resolves browser sessions to usable Raindrop access tokens,
// refreshing expired tokens when a refresh token is on file. This is the
// only automatic-recovery path in the app; every other failure propagates.
package token

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/miguelalcalde/yaba/internal/db"
	"github.com/miguelalcalde/yaba/internal/db/models"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// ErrNotAuthenticated covers every absent-credential case: unknown or
// expired session, missing token, and failed or impossible refresh. Callers
// cannot distinguish them, by the same rule that makes an expired session
// look like a missing one.
var ErrNotAuthenticated = errors.New("not authenticated")

// Manager wires the session/token store to the OAuth refresh endpoint.
type Manager struct {
	store    *db.Store
	oauthCfg *oauth2.Config
}

// NewManager creates a Manager. oauthCfg may be nil when OAuth credentials
// are not configured; resolution still works until a refresh is needed.
func NewManager(store *db.Store, oauthCfg *oauth2.Config) *Manager {
	return &Manager{store: store, oauthCfg: oauthCfg}
}

// Store exposes the underlying store for handlers sharing the Manager.
func (m *Manager) Store() *db.Store {
	return m.store
}

// ResolveAccessToken maps a session identifier to a valid access token and
// its user. An expired token with no refresh token yields
// ErrNotAuthenticated without any network call.
func (m *Manager) ResolveAccessToken(ctx context.Context, sessionID string) (string, *models.User, error) {
	session, err := m.store.GetSession(sessionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("token: session lookup failed: %v", err)
		}
		return "", nil, ErrNotAuthenticated
	}

	user, err := m.store.GetUser(session.UserID)
	if err != nil {
		log.Printf("token: user %d missing for session: %v", session.UserID, err)
		return "", nil, ErrNotAuthenticated
	}

	stored, err := m.store.GetToken(user.ID)
	if err != nil {
		return "", nil, ErrNotAuthenticated
	}

	if stored.ExpiresAt == nil || stored.ExpiresAt.After(time.Now()) {
		return stored.AccessToken, user, nil
	}

	// Token expired; refresh is the sole recovery path.
	if stored.RefreshToken == "" {
		log.Printf("token: expired token for %s has no refresh token", user.Email)
		return "", nil, ErrNotAuthenticated
	}

	refreshed, err := m.refresh(ctx, user, stored)
	if err != nil {
		return "", nil, ErrNotAuthenticated
	}
	return refreshed.AccessToken, user, nil
}

func (m *Manager) refresh(ctx context.Context, user *models.User, stored *models.OAuthToken) (*oauth2.Token, error) {
	if m.oauthCfg == nil {
		return nil, errors.New("refresh unavailable: OAuth not configured")
	}

	source := m.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken})
	fresh, err := source.Token()
	if err != nil {
		if isPermanentRefreshError(err) {
			log.Printf("token: refresh permanently failed for %s, re-login required: %v", user.Email, err)
		} else {
			log.Printf("token: transient refresh failure for %s: %v", user.Email, err)
		}
		return nil, err
	}

	if fresh.RefreshToken != "" && fresh.RefreshToken != stored.RefreshToken {
		log.Printf("token: rotating refresh token for %s", user.Email)
	}
	if err := m.store.SaveToken(user.ID, fresh); err != nil {
		log.Printf("token: failed to persist refreshed token: %v", err)
		return nil, err
	}

	log.Printf("token: refreshed access token for %s (expires %s)", user.Email, fresh.Expiry.Format(time.RFC3339))
	return fresh, nil
}

// isPermanentRefreshError separates revoked/invalid grants from transient
// endpoint trouble, purely for log signal.
func isPermanentRefreshError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"invalid_grant",
		"invalid_client",
		"unauthorized_client",
		"revoked",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
