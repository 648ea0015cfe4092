package db

import (
	"fmt"
	"time"

	"github.com/miguelalcalde/yaba/internal/db/models"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// Store wraps the gorm handle with the queries the rest of the app needs.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store over an already-initialized database handle.
func NewStore(database *gorm.DB) *Store {
	return &Store{db: database}
}

// DB exposes the underlying handle for callers that share the connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// UpsertUser creates or updates the row keyed by the Raindrop user ID and
// returns it.
func (s *Store) UpsertUser(raindropUserID int64, email, name string) (*models.User, error) {
	var user models.User
	err := s.db.Where("raindrop_user_id = ?", raindropUserID).First(&user).Error
	switch {
	case err == nil:
		user.Email = email
		user.Name = name
		if err := s.db.Save(&user).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	case err == gorm.ErrRecordNotFound:
		user = models.User{RaindropUserID: raindropUserID, Email: email, Name: name}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	default:
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &user, nil
}

// GetUser fetches a user by local ID.
func (s *Store) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveToken replaces the user's stored token set with tok. A zero Expiry
// means the token never expires by this mechanism and is stored as NULL.
func (s *Store) SaveToken(userID uint, tok *oauth2.Token) error {
	var expiresAt *time.Time
	if !tok.Expiry.IsZero() {
		t := tok.Expiry
		expiresAt = &t
	}

	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	scope, _ := tok.Extra("scope").(string)

	record := models.OAuthToken{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tokenType,
		ExpiresAt:    expiresAt,
		Scope:        scope,
	}

	// One logical token set per user: clear prior rows, then insert.
	if err := s.db.Where("user_id = ?", userID).Delete(&models.OAuthToken{}).Error; err != nil {
		return fmt.Errorf("clear prior tokens: %w", err)
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// GetToken returns the user's current token, newest first in case stale rows
// survived a partial replace.
func (s *Store) GetToken(userID uint) (*models.OAuthToken, error) {
	var token models.OAuthToken
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// CreateSession inserts a session row for the given opaque identifier.
func (s *Store) CreateSession(userID uint, sessionID string, expiresAt time.Time) error {
	now := time.Now()
	session := models.Session{
		ID:           sessionID,
		UserID:       userID,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
		LastAccessed: now,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns an unexpired session. Expiry is part of the query, so
// an expired session looks exactly like a nonexistent one.
func (s *Store) GetSession(sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.Where("id = ? AND expires_at > ?", sessionID, time.Now()).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// TouchSession bumps last_accessed on an authenticated request.
func (s *Store) TouchSession(sessionID string) error {
	return s.db.Model(&models.Session{}).Where("id = ?", sessionID).
		Update("last_accessed", time.Now()).Error
}

// DeleteSession removes a session row on logout.
func (s *Store) DeleteSession(sessionID string) error {
	return s.db.Delete(&models.Session{}, "id = ?", sessionID).Error
}

// CleanupExpiredSessions sweeps out rows past their expiry. Run at startup;
// correctness never depends on it since GetSession filters by expiry anyway.
func (s *Store) CleanupExpiredSessions() error {
	return s.db.Delete(&models.Session{}, "expires_at <= ?", time.Now()).Error
}
