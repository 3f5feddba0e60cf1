package service

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/robnorris1/property-management-system-sub000/internal/metrics"
	"github.com/robnorris1/property-management-system-sub000/internal/models"
	"github.com/robnorris1/property-management-system-sub000/internal/state"
)

type MaintenanceInput struct {
	ApplianceID       uint                     `json:"appliance_id" binding:"required"`
	MaintenanceType   models.MaintenanceType   `json:"maintenance_type" binding:"required"`
	Description       string                   `json:"description" binding:"required"`
	Cost              *float64                 `json:"cost"`
	TechnicianName    string                   `json:"technician_name"`
	TechnicianCompany string                   `json:"technician_company"`
	MaintenanceDate   models.Date              `json:"maintenance_date"`
	NextDueDate       *models.Date             `json:"next_due_date"`
	Notes             string                   `json:"notes"`
	PartsReplaced     []string                 `json:"parts_replaced"`
	WarrantyUntil     *models.Date             `json:"warranty_until"`
	Status            models.MaintenanceStatus `json:"status"`
}

// MaintenanceResult is returned when a record is logged.
type MaintenanceResult struct {
	Record         *models.MaintenanceRecord `json:"maintenance_record"`
	Appliance      *models.Appliance         `json:"appliance"`
	ResolvedIssues int                       `json:"resolved_issues"`
}

func (s *Service) ListMaintenance(ctx context.Context, ownerID, applianceID uint) ([]models.MaintenanceRecord, error) {
	db := s.db.WithContext(ctx)
	if _, err := findAppliance(db, ownerID, applianceID); err != nil {
		return nil, err
	}

	var records []models.MaintenanceRecord
	err := db.Where("appliance_id = ?", applianceID).
		Order("maintenance_date DESC, id DESC").
		Find(&records).Error
	return records, err
}

func (s *Service) GetMaintenance(ctx context.Context, ownerID, id uint) (*models.MaintenanceRecord, error) {
	return findMaintenance(s.db.WithContext(ctx), ownerID, id)
}

// UpcomingMaintenance lists records whose next_due_date falls within days of today.
func (s *Service) UpcomingMaintenance(ctx context.Context, ownerID uint, days int) ([]models.MaintenanceRecord, error) {
	if days <= 0 || days > 365 {
		return nil, invalid("days", "must be between 1 and 365")
	}
	today := s.today()
	horizon := models.DateOf(today.AddDate(0, 0, days))

	db := s.db.WithContext(ctx)
	var records []models.MaintenanceRecord
	err := db.Where("appliance_id IN (?)", ownedApplianceIDs(db, ownerID)).
		Where("next_due_date >= ? AND next_due_date <= ?", today, horizon).
		Order("next_due_date, id").
		Find(&records).Error
	return records, err
}

// CreateMaintenance logs a record and applies its effects on the appliance in
// one transaction. Completed repair or replacement work resolves open issues.
func (s *Service) CreateMaintenance(ctx context.Context, ownerID uint, in MaintenanceInput) (*MaintenanceResult, error) {
	status := in.Status
	if status == "" {
		status = models.MaintenanceCompleted
	}
	record := &models.MaintenanceRecord{
		ApplianceID:       in.ApplianceID,
		MaintenanceType:   in.MaintenanceType,
		Description:       in.Description,
		Cost:              in.Cost,
		TechnicianName:    in.TechnicianName,
		TechnicianCompany: in.TechnicianCompany,
		MaintenanceDate:   in.MaintenanceDate,
		NextDueDate:       clearZeroDate(in.NextDueDate),
		Notes:             in.Notes,
		PartsReplaced:     datatypes.NewJSONSlice(in.PartsReplaced),
		WarrantyUntil:     clearZeroDate(in.WarrantyUntil),
		Status:            status,
	}
	if record.PartsReplaced == nil {
		record.PartsReplaced = datatypes.JSONSlice[string]{}
	}
	if err := validateMaintenanceRecord(record); err != nil {
		return nil, err
	}

	result := &MaintenanceResult{Record: record}
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := findAppliance(tx, ownerID, in.ApplianceID); err != nil {
			return err
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		resolved, err := s.engine.RecordMaintenanceCreated(tx, record)
		if err != nil {
			return err
		}
		result.ResolvedIssues = resolved

		result.Appliance, err = findAppliance(tx, ownerID, in.ApplianceID)
		return err
	})
	if err != nil {
		s.logger.WithError(err).WithField("appliance_id", in.ApplianceID).Warn("Maintenance record not created")
		return nil, err
	}

	metrics.ObserveMaintenanceCreated(string(record.MaintenanceType))
	metrics.ObserveAutoResolved(result.ResolvedIssues)
	s.afterWrite(ctx, ownerID)

	if s.notifier != nil && result.ResolvedIssues > 0 {
		if err := s.notifier.NotifyAutoResolved(ctx, record, result.Appliance, result.ResolvedIssues); err != nil {
			s.logger.WithError(err).Warn("Failed to send auto-resolution notification")
		}
	}
	return result, nil
}

func (s *Service) UpdateMaintenance(ctx context.Context, ownerID, id uint, patch state.MaintenancePatch) (*models.MaintenanceRecord, error) {
	if patch.IsEmpty() {
		return nil, ErrNoFields
	}

	var updated *models.MaintenanceRecord
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		existing, err := findMaintenance(tx, ownerID, id)
		if err != nil {
			return err
		}

		merged := *existing
		patch.ApplyTo(&merged)
		if err := validateMaintenanceRecord(&merged); err != nil {
			return err
		}

		updated, err = s.engine.RecordMaintenanceUpdated(tx, id, patch)
		if errors.Is(err, state.ErrMaintenanceNotFound) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, ownerID)
	return updated, nil
}

// DeleteMaintenance removes a record and recomputes the appliance rollup.
// Deleting an already deleted record returns ErrNotFound and changes nothing.
func (s *Service) DeleteMaintenance(ctx context.Context, ownerID, id uint) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		record, err := findMaintenance(tx, ownerID, id)
		if err != nil {
			return err
		}
		res := tx.Delete(&models.MaintenanceRecord{}, record.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return s.engine.RecordMaintenanceDeleted(tx, record.ApplianceID)
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, ownerID)
	return nil
}
