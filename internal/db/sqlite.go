// Package db owns the SQLite persistence layer: users, OAuth tokens, and
// browser sessions. Bookmarks themselves live in Raindrop and are never
// cached here.
package db

import (
	"log"

	"github.com/glebarez/sqlite"
	"github.com/miguelalcalde/yaba/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the SQLite database at path and runs migrations. The returned
// handle is constructed once at startup and passed to everything that needs
// it; there is no package-level singleton.
func InitDB(path string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(&models.User{}, &models.OAuthToken{}, &models.Session{}); err != nil {
		return nil, err
	}

	log.Printf("database ready at %s", path)
	return database, nil
}
