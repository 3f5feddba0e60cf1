package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

type ApplianceInput struct {
	PropertyID       uint         `json:"property_id" binding:"required"`
	Name             string       `json:"name" binding:"required"`
	Type             string       `json:"type" binding:"required"`
	Brand            string       `json:"brand"`
	Model            string       `json:"model"`
	SerialNumber     string       `json:"serial_number"`
	Location         string       `json:"location"`
	InstallationDate *models.Date `json:"installation_date"`
	WarrantyExpiry   *models.Date `json:"warranty_expiry"`
	Notes            string       `json:"notes"`
	Status           string       `json:"status"`
}

type AppliancePatch struct {
	Name             *string      `json:"name"`
	Type             *string      `json:"type"`
	Brand            *string      `json:"brand"`
	Model            *string      `json:"model"`
	SerialNumber     *string      `json:"serial_number"`
	Location         *string      `json:"location"`
	InstallationDate *models.Date `json:"installation_date"`
	WarrantyExpiry   *models.Date `json:"warranty_expiry"`
	Notes            *string      `json:"notes"`
	Status           *string      `json:"status"`
}

func normalizeStatus(raw string) (models.ApplianceStatus, error) {
	if raw == "" {
		return models.ApplianceWorking, nil
	}
	status, ok := models.NormalizeApplianceStatus(raw)
	if !ok {
		return "", invalid("status", "must be one of working, needs_repair, under_repair, out_of_service")
	}
	return status, nil
}

func (patch AppliancePatch) apply(a *models.Appliance) ([]string, error) {
	var cols []string
	if patch.Name != nil {
		a.Name, cols = *patch.Name, append(cols, "name")
	}
	if patch.Type != nil {
		a.Type, cols = *patch.Type, append(cols, "type")
	}
	if patch.Brand != nil {
		a.Brand, cols = *patch.Brand, append(cols, "brand")
	}
	if patch.Model != nil {
		a.Model, cols = *patch.Model, append(cols, "model")
	}
	if patch.SerialNumber != nil {
		a.SerialNumber, cols = *patch.SerialNumber, append(cols, "serial_number")
	}
	if patch.Location != nil {
		a.Location, cols = *patch.Location, append(cols, "location")
	}
	if patch.InstallationDate != nil {
		a.InstallationDate, cols = clearZeroDate(patch.InstallationDate), append(cols, "installation_date")
	}
	if patch.WarrantyExpiry != nil {
		a.WarrantyExpiry, cols = clearZeroDate(patch.WarrantyExpiry), append(cols, "warranty_expiry")
	}
	if patch.Notes != nil {
		a.Notes, cols = *patch.Notes, append(cols, "notes")
	}
	if patch.Status != nil {
		status, err := normalizeStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		a.Status, cols = status, append(cols, "status")
	}
	return cols, nil
}

func (s *Service) ListAppliances(ctx context.Context, ownerID, propertyID uint) ([]models.Appliance, error) {
	db := s.db.WithContext(ctx)
	if _, err := findProperty(db, ownerID, propertyID); err != nil {
		return nil, err
	}

	var appliances []models.Appliance
	err := db.Where("property_id = ?", propertyID).Order("name, id").Find(&appliances).Error
	return appliances, err
}

func (s *Service) GetAppliance(ctx context.Context, ownerID, id uint) (*models.Appliance, error) {
	return findAppliance(s.db.WithContext(ctx), ownerID, id)
}

func (s *Service) CreateAppliance(ctx context.Context, ownerID uint, in ApplianceInput) (*models.Appliance, error) {
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return nil, err
	}
	appliance := &models.Appliance{
		PropertyID:       in.PropertyID,
		Name:             in.Name,
		Type:             in.Type,
		Brand:            in.Brand,
		Model:            in.Model,
		SerialNumber:     in.SerialNumber,
		Location:         in.Location,
		InstallationDate: clearZeroDate(in.InstallationDate),
		WarrantyExpiry:   clearZeroDate(in.WarrantyExpiry),
		Notes:            in.Notes,
		Status:           status,
	}
	if err := validateAppliance(appliance); err != nil {
		return nil, err
	}

	err = s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := findProperty(tx, ownerID, in.PropertyID); err != nil {
			return err
		}
		return tx.Create(appliance).Error
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, ownerID)
	return appliance, nil
}

// UpdateAppliance edits descriptive fields. under_repair is the only status
// that can be set by hand; it holds until the next issue change. Any other
// requested status is replaced by the one derived from active issues.
func (s *Service) UpdateAppliance(ctx context.Context, ownerID, id uint, patch AppliancePatch) (*models.Appliance, error) {
	var appliance *models.Appliance
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if appliance, err = findAppliance(tx, ownerID, id); err != nil {
			return err
		}
		cols, err := patch.apply(appliance)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			return ErrNoFields
		}
		if err := validateAppliance(appliance); err != nil {
			return err
		}
		if err := tx.Model(appliance).Select(cols).Updates(appliance).Error; err != nil {
			return err
		}
		if patch.Status == nil || appliance.Status == models.ApplianceUnderRepair {
			return nil
		}

		derived, err := s.engine.RecordIssueChange(tx, appliance.ID)
		if err != nil {
			return err
		}
		appliance.Status = derived.Status
		appliance.HasOpenIssues = derived.HasOpenIssues
		appliance.UrgencyLevel = derived.UrgencyLevel
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, ownerID)
	return appliance, nil
}

func (s *Service) DeleteAppliance(ctx context.Context, ownerID, id uint) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND property_id IN (?)", id, ownedPropertyIDs(tx, ownerID)).
			Delete(&models.Appliance{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, ownerID)
	return nil
}
