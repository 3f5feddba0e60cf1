package state

import (
	"gorm.io/datatypes"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

// MaintenancePatch lists the maintenance record fields that may be edited.
// Nil fields are left untouched.
type MaintenancePatch struct {
	MaintenanceType   *models.MaintenanceType   `json:"maintenance_type"`
	Description       *string                   `json:"description"`
	Cost              *float64                  `json:"cost"`
	TechnicianName    *string                   `json:"technician_name"`
	TechnicianCompany *string                   `json:"technician_company"`
	MaintenanceDate   *models.Date              `json:"maintenance_date"`
	NextDueDate       *models.Date              `json:"next_due_date"`
	Notes             *string                   `json:"notes"`
	PartsReplaced     *[]string                 `json:"parts_replaced"`
	WarrantyUntil     *models.Date              `json:"warranty_until"`
	Status            *models.MaintenanceStatus `json:"status"`
}

func (p MaintenancePatch) IsEmpty() bool {
	return len(p.Columns()) == 0
}

// Columns maps the supplied fields to their column names.
func (p MaintenancePatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.MaintenanceType != nil {
		cols["maintenance_type"] = string(*p.MaintenanceType)
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Cost != nil {
		cols["cost"] = *p.Cost
	}
	if p.TechnicianName != nil {
		cols["technician_name"] = *p.TechnicianName
	}
	if p.TechnicianCompany != nil {
		cols["technician_company"] = *p.TechnicianCompany
	}
	if p.MaintenanceDate != nil {
		cols["maintenance_date"] = *p.MaintenanceDate
	}
	if p.NextDueDate != nil {
		cols["next_due_date"] = *p.NextDueDate
	}
	if p.Notes != nil {
		cols["notes"] = *p.Notes
	}
	if p.PartsReplaced != nil {
		cols["parts_replaced"] = datatypes.NewJSONSlice(*p.PartsReplaced)
	}
	if p.WarrantyUntil != nil {
		cols["warranty_until"] = *p.WarrantyUntil
	}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	return cols
}

// ApplyTo copies the supplied fields onto r.
func (p MaintenancePatch) ApplyTo(r *models.MaintenanceRecord) {
	if p.MaintenanceType != nil {
		r.MaintenanceType = *p.MaintenanceType
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Cost != nil {
		r.Cost = p.Cost
	}
	if p.TechnicianName != nil {
		r.TechnicianName = *p.TechnicianName
	}
	if p.TechnicianCompany != nil {
		r.TechnicianCompany = *p.TechnicianCompany
	}
	if p.MaintenanceDate != nil {
		r.MaintenanceDate = *p.MaintenanceDate
	}
	if p.NextDueDate != nil {
		r.NextDueDate = p.NextDueDate
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.PartsReplaced != nil {
		r.PartsReplaced = datatypes.NewJSONSlice(*p.PartsReplaced)
	}
	if p.WarrantyUntil != nil {
		r.WarrantyUntil = p.WarrantyUntil
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
}
