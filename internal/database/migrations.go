package database

import "gorm.io/gorm"

// MigrateSchema creates the properties table and its indexes if they don't exist.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&PropertyRow{}); err != nil {
		return err
	}

	// Dashboard views bucket records by month of ts
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_ts
		ON properties(ts);
	`).Error
}
