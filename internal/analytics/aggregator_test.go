package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
	"github.com/robnorris1/property-management-system-sub000/internal/testutil"
)

var fixedNow = time.Date(2024, time.December, 31, 12, 0, 0, 0, time.UTC)

func setupAggregator(t *testing.T) (*gorm.DB, *Aggregator) {
	db := testutil.SetupTestDB(t)
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	agg := NewAggregator(db, logger)
	agg.now = func() time.Time { return fixedNow }
	return db, agg
}

func addPayment(t *testing.T, db *gorm.DB, propertyID uint, amount, lateFee float64, paid models.Date) {
	payment := &models.RentPayment{
		PropertyID:    propertyID,
		Amount:        amount,
		LateFeeAmount: lateFee,
		PaymentDate:   paid,
		DueDate:       paid,
		PaymentMethod: models.PaymentBankTransfer,
		Status:        models.PaymentPaid,
	}
	require.NoError(t, db.Create(payment).Error)
}

func addMaintenance(t *testing.T, db *gorm.DB, applianceID uint, cost float64, date models.Date, status models.MaintenanceStatus) {
	record := &models.MaintenanceRecord{
		ApplianceID:     applianceID,
		MaintenanceType: models.MaintenanceRoutine,
		Description:     "Service",
		Cost:            testutil.Float(cost),
		MaintenanceDate: date,
		Status:          status,
	}
	require.NoError(t, db.Create(record).Error)
}

func findProperty(t *testing.T, rows []models.PropertyAnalytics, id uint) models.PropertyAnalytics {
	for _, r := range rows {
		if r.PropertyID == id {
			return r
		}
	}
	t.Fatalf("property %d missing from analytics", id)
	return models.PropertyAnalytics{}
}

func TestPropertyAnalytics_OccupancyRate(t *testing.T) {
	db, agg := setupAggregator(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")

	full := testutil.CreateProperty(t, db, owner.ID, 1000)
	half := testutil.CreateProperty(t, db, owner.ID, 1000)
	for month := time.January; month <= time.December; month++ {
		addPayment(t, db, full.ID, 1000, 0, models.NewDate(2024, month, 1))
		if month <= time.June {
			addPayment(t, db, half.ID, 1000, 0, models.NewDate(2024, month, 1))
		}
	}

	rows, err := agg.PropertyAnalytics(context.Background(), owner.ID, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	fullRow := findProperty(t, rows, full.ID)
	require.NotNil(t, fullRow.OccupancyRate)
	assert.Equal(t, 100.0, *fullRow.OccupancyRate)
	assert.Equal(t, models.PerformanceExcellent, fullRow.PerformanceRating)
	assert.Equal(t, 12, fullRow.PaymentsCount)
	assert.InDelta(t, 12000.0, fullRow.TotalRentCollected, 0.001)

	halfRow := findProperty(t, rows, half.ID)
	require.NotNil(t, halfRow.OccupancyRate)
	assert.Equal(t, 50.0, *halfRow.OccupancyRate)
	assert.Equal(t, models.PerformancePoor, halfRow.PerformanceRating)

	// sorted by net income descending
	assert.Equal(t, full.ID, rows[0].PropertyID)
}

func TestPropertyAnalytics_MaintenanceAndNetIncome(t *testing.T) {
	db, agg := setupAggregator(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	property := testutil.CreateProperty(t, db, owner.ID, 1000)
	appliance := testutil.CreateAppliance(t, db, property.ID)

	addPayment(t, db, property.ID, 1000, 50, models.NewDate(2024, 12, 1))
	addMaintenance(t, db, appliance.ID, 2000, models.NewDate(2024, 5, 10), models.MaintenanceCompleted)
	addMaintenance(t, db, appliance.ID, 1000, models.NewDate(2024, 6, 10), models.MaintenanceCompleted)
	addMaintenance(t, db, appliance.ID, 5000, models.NewDate(2024, 7, 10), models.MaintenanceScheduled)
	addMaintenance(t, db, appliance.ID, 9000, models.NewDate(2023, 7, 10), models.MaintenanceCompleted)

	rows, err := agg.PropertyAnalytics(context.Background(), owner.ID, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.InDelta(t, 1050.0, row.TotalRentCollected, 0.001)
	assert.InDelta(t, 3000.0, row.TotalMaintenanceCost, 0.001)
	assert.InDelta(t, -1950.0, row.NetIncome, 0.001)
	assert.Equal(t, 2, row.MaintenanceCount)
	require.NotNil(t, row.MaintenanceToRentRatio)
	assert.Equal(t, 0.25, *row.MaintenanceToRentRatio)
	assert.Equal(t, models.MaintenanceMedium, row.MaintenanceCategory)

	require.NotNil(t, row.LastPaymentDate)
	assert.Equal(t, "2024-12-01", row.LastPaymentDate.String())
	require.NotNil(t, row.DaysSinceLastPayment)
	assert.Equal(t, 30, *row.DaysSinceLastPayment)
	assert.Equal(t, models.RentCurrent, row.PaymentStatus)
}

func TestPropertyAnalytics_NoRentAndNoPayments(t *testing.T) {
	db, agg := setupAggregator(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	testutil.CreateProperty(t, db, owner.ID, 0)

	rows, err := agg.PropertyAnalytics(context.Background(), owner.ID, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Nil(t, row.OccupancyRate)
	assert.Nil(t, row.MaintenanceToRentRatio)
	assert.Nil(t, row.LastPaymentDate)
	assert.Equal(t, models.MaintenanceNoData, row.MaintenanceCategory)
	assert.Equal(t, models.PerformanceNoData, row.PerformanceRating)
	assert.Equal(t, models.RentNoPayments, row.PaymentStatus)
}

func TestPropertyAnalytics_TiesBrokenByRentCollected(t *testing.T) {
	db, agg := setupAggregator(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")

	quiet := testutil.CreateProperty(t, db, owner.ID, 1000)
	busy := testutil.CreateProperty(t, db, owner.ID, 2000)
	appliance := testutil.CreateAppliance(t, db, busy.ID)

	addPayment(t, db, quiet.ID, 1000, 0, models.NewDate(2024, 3, 1))
	addPayment(t, db, busy.ID, 2000, 0, models.NewDate(2024, 3, 1))
	addMaintenance(t, db, appliance.ID, 1000, models.NewDate(2024, 4, 1), models.MaintenanceCompleted)

	rows, err := agg.PropertyAnalytics(context.Background(), owner.ID, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, rows[0].NetIncome, rows[1].NetIncome)
	assert.Equal(t, busy.ID, rows[0].PropertyID)
	assert.InDelta(t, 2000.0, rows[0].TotalRentCollected, 0.001)
	assert.Equal(t, quiet.ID, rows[1].PropertyID)
}

func TestPropertyAnalytics_IgnoresFuturePayments(t *testing.T) {
	db, agg := setupAggregator(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	property := testutil.CreateProperty(t, db, owner.ID, 1000)

	addPayment(t, db, property.ID, 1000, 0, models.NewDate(2024, 12, 21))
	addPayment(t, db, property.ID, 1000, 0, models.NewDate(2025, 1, 1))

	rows, err := agg.PropertyAnalytics(context.Background(), owner.ID, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	require.NotNil(t, row.LastPaymentDate)
	assert.Equal(t, "2024-12-21", row.LastPaymentDate.String())
	require.NotNil(t, row.DaysSinceLastPayment)
	assert.Equal(t, 10, *row.DaysSinceLastPayment)
	assert.Equal(t, models.RentCurrent, row.PaymentStatus)
}

func TestMonthlyAnalytics_CountsCompletedMaintenanceOnly(t *testing.T) {
	db, agg := setupAggregator(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	property := testutil.CreateProperty(t, db, owner.ID, 1000)
	appliance := testutil.CreateAppliance(t, db, property.ID)

	addMaintenance(t, db, appliance.ID, 200, models.NewDate(2024, 5, 3), models.MaintenanceCompleted)
	addMaintenance(t, db, appliance.ID, 700, models.NewDate(2024, 5, 20), models.MaintenanceScheduled)
	addMaintenance(t, db, appliance.ID, 90, models.NewDate(2024, 5, 21), models.MaintenanceCancelled)

	rows, err := agg.MonthlyAnalytics(context.Background(), owner.ID, 2024, property.ID)
	require.NoError(t, err)
	require.Len(t, rows, 12)

	may := rows[4]
	assert.Equal(t, 5, may.Month)
	assert.InDelta(t, 200.0, may.MaintenanceCost, 0.001)
	assert.Equal(t, 1, may.MaintenanceCount)
}

func TestPropertyAnalytics_ScopedToOwner(t *testing.T) {
	db, agg := setupAggregator(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	other := testutil.CreateUser(t, db, "other@example.com")
	mine := testutil.CreateProperty(t, db, owner.ID, 800)
	theirs := testutil.CreateProperty(t, db, other.ID, 800)
	addPayment(t, db, theirs.ID, 800, 0, models.NewDate(2024, 2, 1))

	rows, err := agg.PropertyAnalytics(context.Background(), owner.ID, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mine.ID, rows[0].PropertyID)
	assert.Zero(t, rows[0].TotalRentCollected)
}

func TestMonthlyAnalytics_DenseSeries(t *testing.T) {
	db, agg := setupAggregator(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	active := testutil.CreateProperty(t, db, owner.ID, 1200)
	idle := testutil.CreateProperty(t, db, owner.ID, 0)
	appliance := testutil.CreateAppliance(t, db, active.ID)

	addPayment(t, db, active.ID, 1200, 0, models.NewDate(2024, 3, 3))
	addPayment(t, db, active.ID, 1200, 25, models.NewDate(2024, 3, 28))
	addMaintenance(t, db, appliance.ID, 300, models.NewDate(2024, 3, 15), models.MaintenanceCompleted)
	// maintenance-only month
	addMaintenance(t, db, appliance.ID, 120, models.NewDate(2024, 8, 2), models.MaintenanceCompleted)

	rows, err := agg.MonthlyAnalytics(context.Background(), owner.ID, 2024, 0)
	require.NoError(t, err)
	require.Len(t, rows, 24)

	for i, row := range rows[:12] {
		assert.Equal(t, active.ID, row.PropertyID)
		assert.Equal(t, i+1, row.Month)
		assert.Equal(t, 1200.0, row.ExpectedRent)
	}
	for i, row := range rows[12:] {
		assert.Equal(t, idle.ID, row.PropertyID)
		assert.Equal(t, i+1, row.Month)
		assert.Zero(t, row.RentCollected)
		assert.Zero(t, row.MaintenanceCost)
		assert.Zero(t, row.PaymentsCount)
		assert.Zero(t, row.ExpectedRent)
	}

	march := rows[2]
	assert.InDelta(t, 2425.0, march.RentCollected, 0.001)
	assert.InDelta(t, 300.0, march.MaintenanceCost, 0.001)
	assert.InDelta(t, 2125.0, march.NetIncome, 0.001)
	assert.Equal(t, 2, march.PaymentsCount)
	assert.Equal(t, 1, march.MaintenanceCount)

	august := rows[7]
	assert.Zero(t, august.RentCollected)
	assert.InDelta(t, 120.0, august.MaintenanceCost, 0.001)
	assert.InDelta(t, -120.0, august.NetIncome, 0.001)
}

func TestMonthlyAnalytics_PropertyFilter(t *testing.T) {
	db, agg := setupAggregator(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	other := testutil.CreateUser(t, db, "other@example.com")
	first := testutil.CreateProperty(t, db, owner.ID, 900)
	testutil.CreateProperty(t, db, owner.ID, 900)
	foreign := testutil.CreateProperty(t, db, other.ID, 900)

	rows, err := agg.MonthlyAnalytics(context.Background(), owner.ID, 2024, first.ID)
	require.NoError(t, err)
	require.Len(t, rows, 12)
	for _, row := range rows {
		assert.Equal(t, first.ID, row.PropertyID)
	}

	_, err = agg.MonthlyAnalytics(context.Background(), owner.ID, 2024, foreign.ID)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestAnalytics_RejectsInvalidYear(t *testing.T) {
	_, agg := setupAggregator(t)

	for _, year := range []int{1999, 2026, 0} {
		_, err := agg.PropertyAnalytics(context.Background(), 1, year)
		assert.ErrorIs(t, err, ErrInvalidYear, "year %d", year)

		_, err = agg.MonthlyAnalytics(context.Background(), 1, year, 0)
		assert.ErrorIs(t, err, ErrInvalidYear, "year %d", year)
	}

	_, err := agg.PropertyAnalytics(context.Background(), 1, 2025)
	assert.NoError(t, err)
}

func TestDashboard(t *testing.T) {
	db, agg := setupAggregator(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	property := testutil.CreateProperty(t, db, owner.ID, 1500)
	second := testutil.CreateProperty(t, db, owner.ID, 500)
	appliance := testutil.CreateAppliance(t, db, property.ID)
	testutil.CreateAppliance(t, db, second.ID)

	require.NoError(t, db.Model(&models.Appliance{}).Where("id = ?", appliance.ID).
		Updates(map[string]interface{}{"status": models.ApplianceOutOfService, "has_open_issues": true}).Error)
	require.NoError(t, db.Create(&models.Issue{
		ApplianceID: appliance.ID, Title: "Leak", Urgency: models.UrgencyCritical,
		Status: models.IssueOpen, ReportedDate: models.NewDate(2024, 12, 20),
	}).Error)
	require.NoError(t, db.Create(&models.Issue{
		ApplianceID: appliance.ID, Title: "Old", Urgency: models.UrgencyLow,
		Status: models.IssueResolved, ReportedDate: models.NewDate(2024, 1, 20),
	}).Error)

	due := models.NewDate(2025, 1, 15)
	require.NoError(t, db.Create(&models.MaintenanceRecord{
		ApplianceID: appliance.ID, MaintenanceType: models.MaintenanceRoutine, Description: "Service",
		Cost: testutil.Float(200), MaintenanceDate: models.NewDate(2024, 6, 1), NextDueDate: &due,
		Status: models.MaintenanceCompleted,
	}).Error)

	addPayment(t, db, property.ID, 1500, 0, models.NewDate(2024, 12, 2))
	addPayment(t, db, property.ID, 1500, 0, models.NewDate(2024, 11, 2))

	summary, err := agg.Dashboard(context.Background(), owner.ID, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalProperties)
	assert.Equal(t, 2, summary.TotalAppliances)
	assert.Equal(t, 1, summary.AppliancesByStatus[models.ApplianceOutOfService])
	assert.Equal(t, 1, summary.AppliancesByStatus[models.ApplianceWorking])
	assert.Equal(t, 1, summary.AppliancesWithIssues)
	assert.Equal(t, 1, summary.OpenIssues)
	assert.Equal(t, 1, summary.CriticalIssues)
	assert.Equal(t, 1, summary.MaintenanceDueSoon)
	assert.InDelta(t, 2000.0, summary.ExpectedMonthlyRent, 0.001)
	assert.InDelta(t, 1500.0, summary.RentCollectedThisMonth, 0.001)
	assert.InDelta(t, 3000.0, summary.RentCollectedThisYear, 0.001)
	assert.InDelta(t, 200.0, summary.MaintenanceCostThisYear, 0.001)
	assert.InDelta(t, 2800.0, summary.NetIncomeThisYear, 0.001)
}
