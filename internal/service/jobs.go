package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

// DueMaintenance lists records across all owners whose next_due_date falls
// within the next days days, soonest first.
func (s *Service) DueMaintenance(ctx context.Context, days int) ([]models.DueMaintenance, error) {
	if days <= 0 || days > 365 {
		return nil, invalid("days", "must be between 1 and 365")
	}
	today := s.today()
	horizon := models.DateOf(today.AddDate(0, 0, days))

	var due []models.DueMaintenance
	err := s.db.WithContext(ctx).
		Table("maintenance_records AS m").
		Select("m.id AS maintenance_record_id, m.maintenance_type, m.next_due_date, "+
			"a.id AS appliance_id, a.name AS appliance_name, "+
			"p.id AS property_id, p.address AS property_address, p.user_id").
		Joins("JOIN appliances AS a ON a.id = m.appliance_id").
		Joins("JOIN properties AS p ON p.id = a.property_id").
		Where("m.next_due_date >= ? AND m.next_due_date <= ?", today, horizon).
		Where("m.status <> ?", models.MaintenanceCancelled).
		Order("m.next_due_date, m.id").
		Scan(&due).Error
	return due, err
}

// SendMaintenanceDigest announces upcoming maintenance through the notifier
// and returns the number of records included.
func (s *Service) SendMaintenanceDigest(ctx context.Context, days int) (int, error) {
	due, err := s.DueMaintenance(ctx, days)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 || s.notifier == nil {
		return len(due), nil
	}
	if err := s.notifier.NotifyMaintenanceDue(ctx, due); err != nil {
		return 0, err
	}
	return len(due), nil
}

// GeocodeMissing fills coordinates for properties that have none. Addresses
// the geocoder cannot resolve are logged and skipped.
func (s *Service) GeocodeMissing(ctx context.Context) (int, error) {
	if s.geocoder == nil {
		return 0, nil
	}

	var properties []models.Property
	if err := s.db.WithContext(ctx).
		Where("latitude IS NULL OR longitude IS NULL").
		Order("id").
		Find(&properties).Error; err != nil {
		return 0, err
	}

	updated := 0
	owners := make(map[uint]struct{})
	for _, p := range properties {
		lat, lon, err := s.geocoder.GeocodeAddress(ctx, p.Address, p.PostalCode, p.City)
		if err != nil {
			if ctx.Err() != nil {
				return updated, ctx.Err()
			}
			s.logger.WithError(err).WithField("property_id", p.ID).Warn("Failed to geocode property")
			continue
		}

		if err := s.db.WithContext(ctx).Model(&models.Property{}).
			Where("id = ?", p.ID).
			Updates(map[string]interface{}{"latitude": lat, "longitude": lon}).Error; err != nil {
			return updated, err
		}
		updated++
		owners[p.UserID] = struct{}{}
	}

	for owner := range owners {
		s.afterWrite(ctx, owner)
	}
	s.logger.WithFields(logrus.Fields{
		"candidates": len(properties),
		"updated":    updated,
	}).Info("Geocoded properties without coordinates")
	return updated, nil
}
