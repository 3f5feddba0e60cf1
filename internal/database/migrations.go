package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

// MigrateSchema creates or updates all tables, then applies data migrations.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Composite indexes used by the state engine and analytics
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_issues_appliance_status ON issues(appliance_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_maintenance_appliance_date ON maintenance_records(appliance_id, maintenance_date)`,
		`CREATE INDEX IF NOT EXISTS idx_rent_payments_property_date ON rent_payments(property_id, payment_date)`,
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if _, err := NormalizeLegacyStatuses(db); err != nil {
		return err
	}
	return nil
}

// NormalizeLegacyStatuses rewrites legacy appliance statuses to their canonical values
// and returns the number of rows changed.
func NormalizeLegacyStatuses(db *gorm.DB) (int64, error) {
	var changed int64
	for legacy, canonical := range models.LegacyApplianceStatuses() {
		res := db.Model(&models.Appliance{}).
			Where("status = ?", legacy).
			Update("status", canonical)
		if res.Error != nil {
			return changed, fmt.Errorf("failed to normalize appliance status %q: %w", legacy, res.Error)
		}
		changed += res.RowsAffected
	}
	return changed, nil
}
