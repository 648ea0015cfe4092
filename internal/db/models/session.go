package models

import "time"

// Session ties an opaque browser cookie value to a user. Expiry is enforced
// at query time: an expired session is indistinguishable from a missing one.
type Session struct {
	ID           string `gorm:"primaryKey"` // random hex, minted at OAuth callback
	UserID       uint   `gorm:"index"`
	ExpiresAt    time.Time
	CreatedAt    time.Time
	LastAccessed time.Time
}
