package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

// Aggregator computes read-only financial metrics for an owner's properties.
type Aggregator struct {
	db     *gorm.DB
	logger *logrus.Logger
	now    func() time.Time
}

func NewAggregator(db *gorm.DB, logger *logrus.Logger) *Aggregator {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Aggregator{db: db, logger: logger, now: time.Now}
}

// SetClock replaces the time source used for year validation and payment age.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// propertyTotals is one aggregated row per property or per (property, month).
type propertyTotals struct {
	PropertyID uint
	Month      int
	Amount     float64
	Entries    int64
}

func yearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// monthExpr extracts the calendar month of a date column for the active dialect.
func monthExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "postgres" {
		return fmt.Sprintf("CAST(EXTRACT(MONTH FROM %s) AS INTEGER)", column)
	}
	return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", column)
}

func (a *Aggregator) ownerProperties(ctx context.Context, ownerID, propertyID uint) ([]models.Property, error) {
	query := a.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if propertyID > 0 {
		query = query.Where("id = ?", propertyID)
	}

	var properties []models.Property
	if err := query.Order("id").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}
	return properties, nil
}

// rentTotals sums amount plus late fee per property, optionally per month.
func (a *Aggregator) rentTotals(ctx context.Context, ownerID uint, year int, byMonth bool) ([]propertyTotals, error) {
	start, end := yearBounds(year)
	db := a.db.WithContext(ctx)

	selects := "rent_payments.property_id AS property_id, " +
		"COALESCE(SUM(rent_payments.amount + rent_payments.late_fee_amount), 0) AS amount, " +
		"COUNT(*) AS entries"
	group := "rent_payments.property_id"
	if byMonth {
		month := monthExpr(db, "rent_payments.payment_date")
		selects += ", " + month + " AS month"
		group += ", " + month
	}

	var rows []propertyTotals
	err := db.Model(&models.RentPayment{}).
		Select(selects).
		Joins("JOIN properties ON properties.id = rent_payments.property_id").
		Where("properties.user_id = ?", ownerID).
		Where("rent_payments.payment_date >= ? AND rent_payments.payment_date < ?", start, end).
		Group(group).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rent payments: %w", err)
	}
	return rows, nil
}

// maintenanceTotals sums the cost of completed maintenance per property, optionally per month.
func (a *Aggregator) maintenanceTotals(ctx context.Context, ownerID uint, year int, byMonth bool) ([]propertyTotals, error) {
	start, end := yearBounds(year)
	db := a.db.WithContext(ctx)

	selects := "appliances.property_id AS property_id, " +
		"COALESCE(SUM(CASE WHEN maintenance_records.cost > 0 THEN maintenance_records.cost ELSE 0 END), 0) AS amount, " +
		"COUNT(*) AS entries"
	group := "appliances.property_id"
	if byMonth {
		month := monthExpr(db, "maintenance_records.maintenance_date")
		selects += ", " + month + " AS month"
		group += ", " + month
	}

	var rows []propertyTotals
	err := db.Model(&models.MaintenanceRecord{}).
		Select(selects).
		Joins("JOIN appliances ON appliances.id = maintenance_records.appliance_id").
		Joins("JOIN properties ON properties.id = appliances.property_id").
		Where("properties.user_id = ?", ownerID).
		Where("maintenance_records.status = ?", models.MaintenanceCompleted).
		Where("maintenance_records.maintenance_date >= ? AND maintenance_records.maintenance_date < ?", start, end).
		Group(group).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate maintenance costs: %w", err)
	}
	return rows, nil
}

// lastPaymentDate ignores payments dated after today.
func (a *Aggregator) lastPaymentDate(ctx context.Context, propertyID uint, today models.Date) (*models.Date, error) {
	var last models.Date
	err := a.db.WithContext(ctx).
		Model(&models.RentPayment{}).
		Select("payment_date").
		Where("property_id = ? AND payment_date <= ?", propertyID, today).
		Order("payment_date DESC").
		Limit(1).
		Row().
		Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last payment for property %d: %w", propertyID, err)
	}
	return &last, nil
}

// PropertyAnalytics returns one row per owned property for year, sorted by
// net income and then rent collected, both descending.
func (a *Aggregator) PropertyAnalytics(ctx context.Context, ownerID uint, year int) ([]models.PropertyAnalytics, error) {
	now := a.now()
	if err := ValidateYear(year, now); err != nil {
		return nil, err
	}
	started := time.Now()

	properties, err := a.ownerProperties(ctx, ownerID, 0)
	if err != nil {
		return nil, err
	}
	rent, err := a.rentTotals(ctx, ownerID, year, false)
	if err != nil {
		return nil, err
	}
	maintenance, err := a.maintenanceTotals(ctx, ownerID, year, false)
	if err != nil {
		return nil, err
	}

	rentByProperty := make(map[uint]propertyTotals, len(rent))
	for _, r := range rent {
		rentByProperty[r.PropertyID] = r
	}
	maintenanceByProperty := make(map[uint]propertyTotals, len(maintenance))
	for _, m := range maintenance {
		maintenanceByProperty[m.PropertyID] = m
	}

	today := models.DateOf(now)
	results := make([]models.PropertyAnalytics, 0, len(properties))
	for _, p := range properties {
		r := rentByProperty[p.ID]
		m := maintenanceByProperty[p.ID]

		occupancy := OccupancyRate(r.Amount, p.MonthlyRent)
		ratio := MaintenanceToRentRatio(m.Amount, p.MonthlyRent)

		last, err := a.lastPaymentDate(ctx, p.ID, today)
		if err != nil {
			return nil, err
		}
		var daysSince *int
		if last != nil {
			days := last.DaysUntil(today)
			daysSince = &days
		}

		results = append(results, models.PropertyAnalytics{
			PropertyID:             p.ID,
			PropertyName:           p.Name,
			Address:                p.Address,
			PropertyType:           p.PropertyType,
			MonthlyRent:            p.MonthlyRent,
			Year:                   year,
			TotalRentCollected:     roundTo(r.Amount, 2),
			TotalMaintenanceCost:   roundTo(m.Amount, 2),
			NetIncome:              roundTo(r.Amount-m.Amount, 2),
			PaymentsCount:          int(r.Entries),
			MaintenanceCount:       int(m.Entries),
			OccupancyRate:          roundPtr(occupancy, 2),
			MaintenanceToRentRatio: roundPtr(ratio, 4),
			LastPaymentDate:        last,
			DaysSinceLastPayment:   daysSince,
			MaintenanceCategory:    MaintenanceCategory(ratio),
			PerformanceRating:      PerformanceRating(occupancy),
			PaymentStatus:          PaymentStatus(daysSince),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].NetIncome != results[j].NetIncome {
			return results[i].NetIncome > results[j].NetIncome
		}
		if results[i].TotalRentCollected != results[j].TotalRentCollected {
			return results[i].TotalRentCollected > results[j].TotalRentCollected
		}
		return results[i].PropertyID < results[j].PropertyID
	})

	a.logger.WithFields(logrus.Fields{
		"owner_id":   ownerID,
		"year":       year,
		"properties": len(results),
		"duration":   time.Since(started).String(),
	}).Debug("Computed property analytics")

	return results, nil
}

type monthKey struct {
	propertyID uint
	month      int
}

// MonthlyAnalytics returns twelve rows per property for year, months ascending.
// A zero propertyID selects every property of the owner.
func (a *Aggregator) MonthlyAnalytics(ctx context.Context, ownerID uint, year int, propertyID uint) ([]models.MonthlyAnalytics, error) {
	if err := ValidateYear(year, a.now()); err != nil {
		return nil, err
	}

	properties, err := a.ownerProperties(ctx, ownerID, propertyID)
	if err != nil {
		return nil, err
	}
	if propertyID > 0 && len(properties) == 0 {
		return nil, ErrPropertyNotFound
	}

	rent, err := a.rentTotals(ctx, ownerID, year, true)
	if err != nil {
		return nil, err
	}
	maintenance, err := a.maintenanceTotals(ctx, ownerID, year, true)
	if err != nil {
		return nil, err
	}

	// Either series may be missing a month the other has.
	rentByMonth := make(map[monthKey]propertyTotals, len(rent))
	for _, r := range rent {
		rentByMonth[monthKey{r.PropertyID, r.Month}] = r
	}
	maintenanceByMonth := make(map[monthKey]propertyTotals, len(maintenance))
	for _, m := range maintenance {
		maintenanceByMonth[monthKey{m.PropertyID, m.Month}] = m
	}

	results := make([]models.MonthlyAnalytics, 0, len(properties)*12)
	for _, p := range properties {
		expected := 0.0
		if p.MonthlyRent != nil {
			expected = *p.MonthlyRent
		}
		for month := 1; month <= 12; month++ {
			key := monthKey{p.ID, month}
			r := rentByMonth[key]
			m := maintenanceByMonth[key]
			results = append(results, models.MonthlyAnalytics{
				PropertyID:       p.ID,
				PropertyName:     p.Name,
				Address:          p.Address,
				Year:             year,
				Month:            month,
				RentCollected:    roundTo(r.Amount, 2),
				MaintenanceCost:  roundTo(m.Amount, 2),
				NetIncome:        roundTo(r.Amount-m.Amount, 2),
				PaymentsCount:    int(r.Entries),
				MaintenanceCount: int(m.Entries),
				ExpectedRent:     expected,
			})
		}
	}
	return results, nil
}
