package database

import (
	"gorm.io/gorm"

	"licitahub/services/support-chat/internal/infrastructure/database/entities"
)

// Migrate applies the chat schema at startup.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entities.ChatSession{},
		&entities.ChatMessage{},
		&entities.ChatParticipant{},
	)
}
