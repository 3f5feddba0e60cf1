package models

import (
	"time"

	"gorm.io/datatypes"
)

type MaintenanceRecord struct {
	ID                uint                        `gorm:"primaryKey" json:"id"`
	ApplianceID       uint                        `gorm:"not null;index" json:"appliance_id"`
	MaintenanceType   MaintenanceType             `gorm:"size:20;not null" json:"maintenance_type"`
	Description       string                      `gorm:"type:text;not null" json:"description"`
	Cost              *float64                    `gorm:"type:decimal(10,2)" json:"cost"`
	TechnicianName    string                      `gorm:"size:120" json:"technician_name"`
	TechnicianCompany string                      `gorm:"size:120" json:"technician_company"`
	MaintenanceDate   Date                        `gorm:"not null;index" json:"maintenance_date"`
	NextDueDate       *Date                       `gorm:"index" json:"next_due_date"`
	Notes             string                      `gorm:"type:text" json:"notes"`
	PartsReplaced     datatypes.JSONSlice[string] `json:"parts_replaced"`
	WarrantyUntil     *Date                       `json:"warranty_until"`
	Status            MaintenanceStatus           `gorm:"size:20;not null;default:completed" json:"status"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

// CostOrZero treats a missing or negative cost as zero.
func (r *MaintenanceRecord) CostOrZero() float64 {
	if r.Cost == nil || *r.Cost < 0 {
		return 0
	}
	return *r.Cost
}

// ResolvesIssues reports whether creating this record closes the appliance's active issues.
func (r *MaintenanceRecord) ResolvesIssues() bool {
	return r.MaintenanceType.Fixes() && r.Status == MaintenanceCompleted
}

// DueMaintenance is a record whose next_due_date falls inside a look-ahead
// window, joined with the names needed to announce it.
type DueMaintenance struct {
	MaintenanceRecordID uint            `json:"maintenance_record_id"`
	MaintenanceType     MaintenanceType `json:"maintenance_type"`
	NextDueDate         Date            `json:"next_due_date"`
	ApplianceID         uint            `json:"appliance_id"`
	ApplianceName       string          `json:"appliance_name"`
	PropertyID          uint            `json:"property_id"`
	PropertyAddress     string          `json:"property_address"`
	UserID              uint            `json:"user_id"`
}
