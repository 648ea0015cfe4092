package models

import "time"

// OAuthToken stores the Raindrop credentials for a user. A user has one
// logical token set; saving a new one replaces whatever was there.
type OAuthToken struct {
	ID           uint `gorm:"primaryKey"`
	UserID       uint `gorm:"index"`
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    *time.Time // nil means the token never expires on its own
	Scope        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
