package service

import (
	"context"
	"errors"

	"github.com/paulmach/orb/geojson"

	"github.com/robnorris1/property-management-system-sub000/internal/analytics"
	"github.com/robnorris1/property-management-system-sub000/internal/cache"
	"github.com/robnorris1/property-management-system-sub000/internal/geo"
	"github.com/robnorris1/property-management-system-sub000/internal/metrics"
	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

func analyticsError(err error) error {
	switch {
	case errors.Is(err, analytics.ErrInvalidYear):
		return invalid("year", err.Error())
	case errors.Is(err, analytics.ErrInvalidPropertyID):
		return invalid("property_id", err.Error())
	case errors.Is(err, analytics.ErrPropertyNotFound):
		return ErrNotFound
	}
	return err
}

// cached serves key from the analytics cache or computes and stores it.
func cached[T any](ctx context.Context, s *Service, key string, compute func() (T, error)) (T, error) {
	var value T
	found, err := s.cache.Get(ctx, key, &value)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Analytics cache read failed")
	}
	if found {
		metrics.ObserveCacheLookup(true)
		return value, nil
	}
	metrics.ObserveCacheLookup(false)

	value, err = compute()
	if err != nil {
		return value, err
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Analytics cache write failed")
	}
	return value, nil
}

func (s *Service) PropertyAnalytics(ctx context.Context, ownerID uint, year int) ([]models.PropertyAnalytics, error) {
	if err := analytics.ValidateYear(year, s.now()); err != nil {
		return nil, analyticsError(err)
	}
	// payment standing depends on today, so the key does too
	today := s.today().String()
	rows, err := cached(ctx, s, cache.Key(ownerID, "property", year, today), func() ([]models.PropertyAnalytics, error) {
		return s.aggregator.PropertyAnalytics(ctx, ownerID, year)
	})
	return rows, analyticsError(err)
}

func (s *Service) MonthlyAnalytics(ctx context.Context, ownerID uint, year int, propertyID uint) ([]models.MonthlyAnalytics, error) {
	if err := analytics.ValidateYear(year, s.now()); err != nil {
		return nil, analyticsError(err)
	}
	rows, err := cached(ctx, s, cache.Key(ownerID, "monthly", year, propertyID), func() ([]models.MonthlyAnalytics, error) {
		return s.aggregator.MonthlyAnalytics(ctx, ownerID, year, propertyID)
	})
	return rows, analyticsError(err)
}

func (s *Service) Dashboard(ctx context.Context, ownerID uint) (*models.DashboardSummary, error) {
	now := s.now()
	return cached(ctx, s, cache.Key(ownerID, "dashboard", models.DateOf(now).String()), func() (*models.DashboardSummary, error) {
		return s.aggregator.Dashboard(ctx, ownerID, now)
	})
}

// PropertyMap returns the owner's geocoded properties as GeoJSON.
func (s *Service) PropertyMap(ctx context.Context, ownerID uint) (*geojson.FeatureCollection, error) {
	properties, err := s.ListProperties(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var counts []struct {
		PropertyID uint
		Total      int
		Flagged    int
	}
	if err := s.db.WithContext(ctx).Model(&models.Appliance{}).
		Select("property_id, COUNT(*) AS total, "+
			"SUM(CASE WHEN status <> ? THEN 1 ELSE 0 END) AS flagged", models.ApplianceWorking).
		Where("property_id IN (?)", ownedPropertyIDs(s.db.WithContext(ctx), ownerID)).
		Group("property_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byProperty := make(map[uint]int, len(counts))
	flagged := make(map[uint]int, len(counts))
	for _, c := range counts {
		byProperty[c.PropertyID] = c.Total
		flagged[c.PropertyID] = c.Flagged
	}

	locations := make([]geo.PropertyLocation, 0, len(properties))
	for _, p := range properties {
		locations = append(locations, geo.PropertyLocation{
			Property:          p,
			ApplianceCount:    byProperty[p.ID],
			AppliancesFlagged: flagged[p.ID],
		})
	}
	return geo.PortfolioMap(locations, s.now()), nil
}
