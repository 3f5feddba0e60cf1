package models

import "time"

type Issue struct {
	ID                  uint               `gorm:"primaryKey" json:"id"`
	ApplianceID         uint               `gorm:"not null;index" json:"appliance_id"`
	MaintenanceRecordID *uint              `gorm:"index" json:"maintenance_record_id"`
	MaintenanceRecord   *MaintenanceRecord `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Title               string             `gorm:"size:200;not null" json:"title"`
	Description         string             `gorm:"type:text" json:"description"`
	Urgency             Urgency            `gorm:"size:10;not null;default:medium" json:"urgency"`
	Status              IssueStatus        `gorm:"size:20;not null;default:open;index" json:"status"`
	ReportedDate        Date               `gorm:"not null" json:"reported_date"`
	ScheduledDate       *Date              `json:"scheduled_date"`
	ResolvedDate        *Date              `json:"resolved_date"`
	ResolutionNotes     string             `gorm:"type:text" json:"resolution_notes"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}
