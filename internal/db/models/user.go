package models

import "time"

// User is an identity mirrored from the Raindrop account that authorized
// the app. Rows are upserted on every successful OAuth callback and never
// deleted.
type User struct {
	ID             uint  `gorm:"primaryKey"`
	RaindropUserID int64 `gorm:"uniqueIndex"`
	Email          string
	Name           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
