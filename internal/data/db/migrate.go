package db

import (
	"fmt"

	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"gorm.io/gorm"
)

// partialIndexes hold the invariants GORM tags cannot express. Both Postgres
// and SQLite accept this syntax.
var partialIndexes = []string{
	// one active itinerary per user
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_itinerary_user_active ON itinerary (user_id) WHERE status <> 'archived'`,
	// one live alert per (user, type, dedup_key)
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_alert_user_type_dedup_live ON alert (user_id, type, dedup_key) WHERE NOT dismissed`,
	`CREATE INDEX IF NOT EXISTS idx_alert_user_created ON alert (user_id, created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_document_user_uploaded ON document (user_id, uploaded_at DESC)`,
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
