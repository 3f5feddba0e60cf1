package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

type PropertyInput struct {
	Name         string              `json:"name"`
	Address      string              `json:"address" binding:"required"`
	City         string              `json:"city"`
	PostalCode   string              `json:"postal_code"`
	PropertyType models.PropertyType `json:"property_type" binding:"required"`
	MonthlyRent  *float64            `json:"monthly_rent"`
	Bedrooms     *int                `json:"bedrooms"`
	Bathrooms    *float64            `json:"bathrooms"`
	SquareFeet   *int                `json:"square_feet"`
	Latitude     *float64            `json:"latitude"`
	Longitude    *float64            `json:"longitude"`
	Notes        string              `json:"notes"`
}

type PropertyPatch struct {
	Name         *string              `json:"name"`
	Address      *string              `json:"address"`
	City         *string              `json:"city"`
	PostalCode   *string              `json:"postal_code"`
	PropertyType *models.PropertyType `json:"property_type"`
	MonthlyRent  *float64             `json:"monthly_rent"`
	Bedrooms     *int                 `json:"bedrooms"`
	Bathrooms    *float64             `json:"bathrooms"`
	SquareFeet   *int                 `json:"square_feet"`
	Latitude     *float64             `json:"latitude"`
	Longitude    *float64             `json:"longitude"`
	Notes        *string              `json:"notes"`
}

// apply copies supplied fields onto p and returns the changed columns.
func (patch PropertyPatch) apply(p *models.Property) []string {
	var cols []string
	if patch.Name != nil {
		p.Name, cols = *patch.Name, append(cols, "name")
	}
	if patch.Address != nil {
		p.Address, cols = *patch.Address, append(cols, "address")
	}
	if patch.City != nil {
		p.City, cols = *patch.City, append(cols, "city")
	}
	if patch.PostalCode != nil {
		p.PostalCode, cols = *patch.PostalCode, append(cols, "postal_code")
	}
	if patch.PropertyType != nil {
		p.PropertyType, cols = *patch.PropertyType, append(cols, "property_type")
	}
	if patch.MonthlyRent != nil {
		p.MonthlyRent, cols = patch.MonthlyRent, append(cols, "monthly_rent")
	}
	if patch.Bedrooms != nil {
		p.Bedrooms, cols = patch.Bedrooms, append(cols, "bedrooms")
	}
	if patch.Bathrooms != nil {
		p.Bathrooms, cols = patch.Bathrooms, append(cols, "bathrooms")
	}
	if patch.SquareFeet != nil {
		p.SquareFeet, cols = patch.SquareFeet, append(cols, "square_feet")
	}
	if patch.Latitude != nil {
		p.Latitude, cols = patch.Latitude, append(cols, "latitude")
	}
	if patch.Longitude != nil {
		p.Longitude, cols = patch.Longitude, append(cols, "longitude")
	}
	if patch.Notes != nil {
		p.Notes, cols = *patch.Notes, append(cols, "notes")
	}
	return cols
}

func (s *Service) ListProperties(ctx context.Context, ownerID uint) ([]models.Property, error) {
	var properties []models.Property
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("created_at DESC, id DESC").Find(&properties).Error
	return properties, err
}

func (s *Service) GetProperty(ctx context.Context, ownerID, id uint) (*models.Property, error) {
	return findProperty(s.db.WithContext(ctx), ownerID, id)
}

func (s *Service) CreateProperty(ctx context.Context, ownerID uint, in PropertyInput) (*models.Property, error) {
	property := &models.Property{
		UserID:       ownerID,
		Name:         in.Name,
		Address:      in.Address,
		City:         in.City,
		PostalCode:   in.PostalCode,
		PropertyType: in.PropertyType,
		MonthlyRent:  in.MonthlyRent,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		SquareFeet:   in.SquareFeet,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Notes:        in.Notes,
	}
	if err := validateProperty(property); err != nil {
		return nil, err
	}

	if err := s.transaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(property).Error
	}); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, ownerID)
	return property, nil
}

func (s *Service) UpdateProperty(ctx context.Context, ownerID, id uint, patch PropertyPatch) (*models.Property, error) {
	var property *models.Property
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if property, err = findProperty(tx, ownerID, id); err != nil {
			return err
		}
		cols := patch.apply(property)
		if len(cols) == 0 {
			return ErrNoFields
		}
		if err := validateProperty(property); err != nil {
			return err
		}
		return tx.Model(property).Select(cols).Updates(property).Error
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, ownerID)
	return property, nil
}

// DeleteProperty removes the property with its appliances, records, issues and payments.
func (s *Service) DeleteProperty(ctx context.Context, ownerID, id uint) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Property{})
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
