package analytics

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

const maintenanceDueWindowDays = 30

// sumFloat runs a single-value aggregate and returns it as a float.
func sumFloat(query *gorm.DB, expr string) (float64, error) {
	var total struct{ Total float64 }
	if err := query.Select("COALESCE(" + expr + ", 0) AS total").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total.Total, nil
}

// Dashboard summarises the owner's portfolio as of now.
func (a *Aggregator) Dashboard(ctx context.Context, ownerID uint, now time.Time) (*models.DashboardSummary, error) {
	db := a.db.WithContext(ctx)
	summary := &models.DashboardSummary{AppliancesByStatus: map[models.ApplianceStatus]int{}}

	properties, err := a.ownerProperties(ctx, ownerID, 0)
	if err != nil {
		return nil, err
	}
	summary.TotalProperties = len(properties)
	for _, p := range properties {
		if p.MonthlyRent != nil {
			summary.ExpectedMonthlyRent += *p.MonthlyRent
		}
	}

	ownedAppliances := func() *gorm.DB {
		return db.Model(&models.Appliance{}).
			Joins("JOIN properties ON properties.id = appliances.property_id").
			Where("properties.user_id = ?", ownerID)
	}

	var statusCounts []struct {
		Status models.ApplianceStatus
		Total  int
	}
	if err := ownedAppliances().
		Select("appliances.status AS status, COUNT(*) AS total").
		Group("appliances.status").
		Scan(&statusCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count appliances: %w", err)
	}
	for _, sc := range statusCounts {
		summary.AppliancesByStatus[sc.Status] = sc.Total
		summary.TotalAppliances += sc.Total
	}

	var withIssues int64
	if err := ownedAppliances().Where("appliances.has_open_issues = ?", true).Count(&withIssues).Error; err != nil {
		return nil, fmt.Errorf("failed to count appliances with issues: %w", err)
	}
	summary.AppliancesWithIssues = int(withIssues)

	ownedIssues := func() *gorm.DB {
		return db.Model(&models.Issue{}).
			Joins("JOIN appliances ON appliances.id = issues.appliance_id").
			Joins("JOIN properties ON properties.id = appliances.property_id").
			Where("properties.user_id = ? AND issues.status IN ?", ownerID, models.ActiveIssueStatuses)
	}
	var openIssues, criticalIssues int64
	if err := ownedIssues().Count(&openIssues).Error; err != nil {
		return nil, fmt.Errorf("failed to count open issues: %w", err)
	}
	if err := ownedIssues().Where("issues.urgency = ?", models.UrgencyCritical).Count(&criticalIssues).Error; err != nil {
		return nil, fmt.Errorf("failed to count critical issues: %w", err)
	}
	summary.OpenIssues = int(openIssues)
	summary.CriticalIssues = int(criticalIssues)

	ownedMaintenance := func() *gorm.DB {
		return db.Model(&models.MaintenanceRecord{}).
			Joins("JOIN appliances ON appliances.id = maintenance_records.appliance_id").
			Joins("JOIN properties ON properties.id = appliances.property_id").
			Where("properties.user_id = ?", ownerID)
	}

	today := models.DateOf(now)
	horizon := models.DateOf(today.AddDate(0, 0, maintenanceDueWindowDays))
	var dueSoon int64
	if err := ownedMaintenance().
		Where("maintenance_records.next_due_date >= ? AND maintenance_records.next_due_date <= ?", today, horizon).
		Count(&dueSoon).Error; err != nil {
		return nil, fmt.Errorf("failed to count upcoming maintenance: %w", err)
	}
	summary.MaintenanceDueSoon = int(dueSoon)

	yearStart, yearEnd := yearBounds(now.Year())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	ownedRent := func(from, to time.Time) *gorm.DB {
		return db.Model(&models.RentPayment{}).
			Joins("JOIN properties ON properties.id = rent_payments.property_id").
			Where("properties.user_id = ?", ownerID).
			Where("rent_payments.payment_date >= ? AND rent_payments.payment_date < ?", from, to)
	}
	rentExpr := "SUM(rent_payments.amount + rent_payments.late_fee_amount)"

	if summary.RentCollectedThisMonth, err = sumFloat(ownedRent(monthStart, monthEnd), rentExpr); err != nil {
		return nil, fmt.Errorf("failed to sum monthly rent: %w", err)
	}
	if summary.RentCollectedThisYear, err = sumFloat(ownedRent(yearStart, yearEnd), rentExpr); err != nil {
		return nil, fmt.Errorf("failed to sum yearly rent: %w", err)
	}

	cost, err := sumFloat(ownedMaintenance().
		Where("maintenance_records.status = ?", models.MaintenanceCompleted).
		Where("maintenance_records.maintenance_date >= ? AND maintenance_records.maintenance_date < ?", yearStart, yearEnd),
		"SUM(CASE WHEN maintenance_records.cost > 0 THEN maintenance_records.cost ELSE 0 END)")
	if err != nil {
		return nil, fmt.Errorf("failed to sum maintenance cost: %w", err)
	}
	summary.MaintenanceCostThisYear = cost

	summary.RentCollectedThisMonth = roundTo(summary.RentCollectedThisMonth, 2)
	summary.RentCollectedThisYear = roundTo(summary.RentCollectedThisYear, 2)
	summary.MaintenanceCostThisYear = roundTo(summary.MaintenanceCostThisYear, 2)
	summary.NetIncomeThisYear = roundTo(summary.RentCollectedThisYear-summary.MaintenanceCostThisYear, 2)

	return summary, nil
}
