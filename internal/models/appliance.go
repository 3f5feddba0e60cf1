package models

import "time"

// Appliance is a tracked asset within a property. Status, HasOpenIssues,
// UrgencyLevel and the maintenance rollups are derived from child rows and
// must only be written by the state engine.
type Appliance struct {
	ID                   uint                `gorm:"primaryKey" json:"id"`
	PropertyID           uint                `gorm:"not null;index" json:"property_id"`
	Name                 string              `gorm:"size:120;not null" json:"name"`
	Type                 string              `gorm:"size:60;not null" json:"type"`
	Brand                string              `gorm:"size:80" json:"brand"`
	Model                string              `gorm:"size:80" json:"model"`
	SerialNumber         string              `gorm:"size:80" json:"serial_number"`
	Location             string              `gorm:"size:120" json:"location"`
	InstallationDate     *Date               `json:"installation_date"`
	WarrantyExpiry       *Date               `json:"warranty_expiry"`
	Notes                string              `gorm:"type:text" json:"notes"`
	Status               ApplianceStatus     `gorm:"size:20;not null;default:working;index" json:"status"`
	HasOpenIssues        bool                `gorm:"not null;default:false" json:"has_open_issues"`
	UrgencyLevel         *Urgency            `gorm:"size:10" json:"urgency_level"`
	LastMaintenance      *Date               `json:"last_maintenance"`
	LastMaintenanceCost  float64             `gorm:"type:decimal(10,2);not null;default:0" json:"last_maintenance_cost"`
	MaintenanceCount     int                 `gorm:"not null;default:0" json:"maintenance_count"`
	TotalMaintenanceCost float64             `gorm:"type:decimal(12,2);not null;default:0" json:"total_maintenance_cost"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	MaintenanceRecords   []MaintenanceRecord `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Issues               []Issue             `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
