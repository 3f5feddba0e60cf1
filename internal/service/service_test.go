package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
	"github.com/robnorris1/property-management-system-sub000/internal/state"
	"github.com/robnorris1/property-management-system-sub000/internal/testutil"
)

var testNow = time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyCriticalIssue(ctx context.Context, issue *models.Issue, appliance *models.Appliance, property *models.Property) error {
	args := m.Called(ctx, issue, appliance, property)
	return args.Error(0)
}

func (m *mockNotifier) NotifyAutoResolved(ctx context.Context, record *models.MaintenanceRecord, appliance *models.Appliance, resolved int) error {
	args := m.Called(ctx, record, appliance, resolved)
	return args.Error(0)
}

func (m *mockNotifier) NotifyMaintenanceDue(ctx context.Context, due []models.DueMaintenance) error {
	args := m.Called(ctx, due)
	return args.Error(0)
}

// memCache is an in-process Cache used to observe invalidation.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memCache) InvalidateOwner(_ context.Context, ownerID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := fmt.Sprintf("analytics:%d:", ownerID)
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *memCache) Ping(context.Context) error { return nil }
func (c *memCache) Close() error               { return nil }

type fixture struct {
	db        *gorm.DB
	svc       *Service
	notifier  *mockNotifier
	owner     *models.User
	property  *models.Property
	appliance *models.Appliance
}

func setupService(t *testing.T) *fixture {
	db := testutil.SetupTestDB(t)
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	notifier := &mockNotifier{}
	svc := New(db, logger, Options{Notifier: notifier, Cache: newMemCache()})
	svc.SetClock(func() time.Time { return testNow })

	owner := testutil.CreateUser(t, db, "owner@example.com")
	property := testutil.CreateProperty(t, db, owner.ID, 1000)
	appliance := testutil.CreateAppliance(t, db, property.ID)

	return &fixture{db: db, svc: svc, notifier: notifier, owner: owner, property: property, appliance: appliance}
}

func (f *fixture) logMaintenance(t *testing.T, kind models.MaintenanceType, cost float64) *MaintenanceResult {
	result, err := f.svc.CreateMaintenance(context.Background(), f.owner.ID, MaintenanceInput{
		ApplianceID:     f.appliance.ID,
		MaintenanceType: kind,
		Description:     "Work done",
		Cost:            &cost,
		MaintenanceDate: models.NewDate(2024, 6, 1),
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) reportIssue(t *testing.T, urgency models.Urgency) *models.Issue {
	issue, err := f.svc.CreateIssue(context.Background(), f.owner.ID, IssueInput{
		ApplianceID: f.appliance.ID,
		Title:       "Broken " + string(urgency),
		Urgency:     urgency,
	})
	require.NoError(t, err)
	return issue
}

func TestDeleteMaintenanceTwice(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	first := f.logMaintenance(t, models.MaintenanceRoutine, 100)
	f.logMaintenance(t, models.MaintenanceCleaning, 40)

	require.NoError(t, f.svc.DeleteMaintenance(ctx, f.owner.ID, first.Record.ID))
	after := testutil.ReloadAppliance(t, f.db, f.appliance.ID)
	assert.Equal(t, 1, after.MaintenanceCount)
	assert.InDelta(t, 40.0, after.TotalMaintenanceCost, 0.001)

	err := f.svc.DeleteMaintenance(ctx, f.owner.ID, first.Record.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	again := testutil.ReloadAppliance(t, f.db, f.appliance.ID)
	assert.Equal(t, after.MaintenanceCount, again.MaintenanceCount)
	assert.Equal(t, after.TotalMaintenanceCost, again.TotalMaintenanceCost)
}

func TestCreateMaintenanceAutoResolvesAndNotifies(t *testing.T) {
	f := setupService(t)
	f.notifier.On("NotifyCriticalIssue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("NotifyAutoResolved", mock.Anything, mock.Anything, mock.Anything, 2).Return(nil)

	f.reportIssue(t, models.UrgencyCritical)
	f.reportIssue(t, models.UrgencyMedium)
	assert.Equal(t, models.ApplianceOutOfService, testutil.ReloadAppliance(t, f.db, f.appliance.ID).Status)

	result := f.logMaintenance(t, models.MaintenanceRepair, 250)
	assert.Equal(t, 2, result.ResolvedIssues)
	assert.Equal(t, models.MaintenanceCompleted, result.Record.Status)
	require.NotNil(t, result.Appliance)
	assert.Equal(t, models.ApplianceWorking, result.Appliance.Status)
	assert.Equal(t, 1, result.Appliance.MaintenanceCount)

	f.notifier.AssertExpectations(t)
	f.notifier.AssertNumberOfCalls(t, "NotifyCriticalIssue", 1)
}

func TestCreateMaintenanceRejectsBadDates(t *testing.T) {
	f := setupService(t)
	due := models.NewDate(2024, 6, 1)

	_, err := f.svc.CreateMaintenance(context.Background(), f.owner.ID, MaintenanceInput{
		ApplianceID:     f.appliance.ID,
		MaintenanceType: models.MaintenanceRoutine,
		Description:     "Service",
		MaintenanceDate: models.NewDate(2024, 6, 1),
		NextDueDate:     &due,
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var count int64
	require.NoError(t, f.db.Model(&models.MaintenanceRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateMaintenanceNegativeCost(t *testing.T) {
	f := setupService(t)
	cost := -5.0
	_, err := f.svc.CreateMaintenance(context.Background(), f.owner.ID, MaintenanceInput{
		ApplianceID:     f.appliance.ID,
		MaintenanceType: models.MaintenanceRoutine,
		Description:     "Service",
		Cost:            &cost,
		MaintenanceDate: models.NewDate(2024, 6, 1),
	})
	assert.True(t, IsValidation(err))
}

func TestOwnershipIsEnforced(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	intruder := testutil.CreateUser(t, f.db, "intruder@example.com")
	record := f.logMaintenance(t, models.MaintenanceRoutine, 10)

	_, err := f.svc.GetAppliance(ctx, intruder.ID, f.appliance.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.CreateIssue(ctx, intruder.ID, IssueInput{ApplianceID: f.appliance.ID, Title: "Mine now"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.CreateMaintenance(ctx, intruder.ID, MaintenanceInput{
		ApplianceID: f.appliance.ID, MaintenanceType: models.MaintenanceRoutine,
		Description: "x", MaintenanceDate: models.NewDate(2024, 6, 1),
	})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.svc.DeleteMaintenance(ctx, intruder.ID, record.Record.ID), ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteProperty(ctx, intruder.ID, f.property.ID), ErrNotFound)

	_, err = f.svc.ListRentPayments(ctx, intruder.ID, f.property.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var issues int64
	require.NoError(t, f.db.Model(&models.Issue{}).Count(&issues).Error)
	assert.Zero(t, issues)
}

func TestUpdateMaintenance(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	created := f.logMaintenance(t, models.MaintenanceRoutine, 100)

	_, err := f.svc.UpdateMaintenance(ctx, f.owner.ID, created.Record.ID, state.MaintenancePatch{})
	assert.ErrorIs(t, err, ErrNoFields)

	cost := 180.0
	updated, err := f.svc.UpdateMaintenance(ctx, f.owner.ID, created.Record.ID, state.MaintenancePatch{Cost: &cost})
	require.NoError(t, err)
	require.NotNil(t, updated.Cost)
	assert.InDelta(t, 180.0, *updated.Cost, 0.001)
	assert.InDelta(t, 180.0, testutil.ReloadAppliance(t, f.db, f.appliance.ID).TotalMaintenanceCost, 0.001)

	early := models.NewDate(2024, 5, 1)
	_, err = f.svc.UpdateMaintenance(ctx, f.owner.ID, created.Record.ID, state.MaintenancePatch{NextDueDate: &early})
	assert.True(t, IsValidation(err))

	_, err = f.svc.UpdateMaintenance(ctx, f.owner.ID, 9999, state.MaintenancePatch{Cost: &cost})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateIssueResolvesAndRederives(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	issue := f.reportIssue(t, models.UrgencyHigh)
	assert.Equal(t, "2024-06-15", issue.ReportedDate.String())
	assert.Equal(t, models.ApplianceNeedsRepair, testutil.ReloadAppliance(t, f.db, f.appliance.ID).Status)

	_, err := f.svc.UpdateIssue(ctx, f.owner.ID, issue.ID, IssuePatch{})
	assert.ErrorIs(t, err, ErrNoFields)

	resolved := models.IssueResolved
	updated, err := f.svc.UpdateIssue(ctx, f.owner.ID, issue.ID, IssuePatch{Status: &resolved})
	require.NoError(t, err)
	require.NotNil(t, updated.ResolvedDate)
	assert.Equal(t, "2024-06-15", updated.ResolvedDate.String())

	appliance := testutil.ReloadAppliance(t, f.db, f.appliance.ID)
	assert.Equal(t, models.ApplianceWorking, appliance.Status)
	assert.False(t, appliance.HasOpenIssues)
}

func TestUpdateIssueRejectsForeignMaintenanceRecord(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	issue := f.reportIssue(t, models.UrgencyLow)

	other := testutil.CreateAppliance(t, f.db, f.property.ID)
	cost := 10.0
	foreign, err := f.svc.CreateMaintenance(ctx, f.owner.ID, MaintenanceInput{
		ApplianceID: other.ID, MaintenanceType: models.MaintenanceRoutine, Description: "x",
		Cost: &cost, MaintenanceDate: models.NewDate(2024, 6, 1),
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateIssue(ctx, f.owner.ID, issue.ID, IssuePatch{MaintenanceRecordID: &foreign.Record.ID})
	assert.True(t, IsValidation(err))
}

func TestDeleteIssueRestoresWorking(t *testing.T) {
	f := setupService(t)
	issue := f.reportIssue(t, models.UrgencyMedium)

	require.NoError(t, f.svc.DeleteIssue(context.Background(), f.owner.ID, issue.ID))
	assert.Equal(t, models.ApplianceWorking, testutil.ReloadAppliance(t, f.db, f.appliance.ID).Status)
	assert.ErrorIs(t, f.svc.DeleteIssue(context.Background(), f.owner.ID, issue.ID), ErrNotFound)
}

func TestApplianceStatusNormalisation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	appliance, err := f.svc.CreateAppliance(ctx, f.owner.ID, ApplianceInput{
		PropertyID: f.property.ID, Name: "Boiler", Type: "boiler", Status: "broken",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplianceOutOfService, appliance.Status)

	f.reportIssue(t, models.UrgencyMedium)
	status := "maintenance"
	updated, err := f.svc.UpdateAppliance(ctx, f.owner.ID, f.appliance.ID, AppliancePatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.ApplianceNeedsRepair, updated.Status)

	bogus := "exploded"
	_, err = f.svc.UpdateAppliance(ctx, f.owner.ID, appliance.ID, AppliancePatch{Status: &bogus})
	assert.True(t, IsValidation(err))
}

func TestUpdateApplianceStatusFollowsActiveIssues(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	f.notifier.On("NotifyCriticalIssue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.reportIssue(t, models.UrgencyCritical)

	working := "working"
	updated, err := f.svc.UpdateAppliance(ctx, f.owner.ID, f.appliance.ID, AppliancePatch{Status: &working})
	require.NoError(t, err)
	assert.Equal(t, models.ApplianceOutOfService, updated.Status)
	assert.True(t, updated.HasOpenIssues)
	assert.Equal(t, models.ApplianceOutOfService, testutil.ReloadAppliance(t, f.db, f.appliance.ID).Status)

	repairing := "under_repair"
	updated, err = f.svc.UpdateAppliance(ctx, f.owner.ID, f.appliance.ID, AppliancePatch{Status: &repairing})
	require.NoError(t, err)
	assert.Equal(t, models.ApplianceUnderRepair, updated.Status)
	assert.Equal(t, models.ApplianceUnderRepair, testutil.ReloadAppliance(t, f.db, f.appliance.ID).Status)

	// without a status in the patch the stored status is left alone
	notes := "Checked by the landlord"
	updated, err = f.svc.UpdateAppliance(ctx, f.owner.ID, f.appliance.ID, AppliancePatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.ApplianceUnderRepair, updated.Status)
}

func TestCreateRentPaymentRejectsFutureDate(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.CreateRentPayment(ctx, f.owner.ID, RentPaymentInput{
		PropertyID: f.property.ID, Amount: 1000,
		PaymentDate: models.NewDate(2024, 6, 16), DueDate: models.NewDate(2024, 6, 1),
	})
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "payment_date", verr.Field)

	payment, err := f.svc.CreateRentPayment(ctx, f.owner.ID, RentPaymentInput{
		PropertyID: f.property.ID, Amount: 1000,
		PaymentDate: models.NewDate(2024, 6, 15), DueDate: models.NewDate(2024, 6, 1),
	})
	require.NoError(t, err)

	future := models.NewDate(2024, 7, 1)
	_, err = f.svc.UpdateRentPayment(ctx, f.owner.ID, payment.ID, RentPaymentPatch{PaymentDate: &future})
	assert.True(t, IsValidation(err))
}

func TestPropertyAnalyticsCacheKeyedByDay(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.CreateRentPayment(ctx, f.owner.ID, RentPaymentInput{
		PropertyID: f.property.ID, Amount: 1000,
		PaymentDate: models.NewDate(2024, 6, 1), DueDate: models.NewDate(2024, 6, 1),
	})
	require.NoError(t, err)

	rows, err := f.svc.PropertyAnalytics(ctx, f.owner.ID, 2024)
	require.NoError(t, err)
	require.NotNil(t, rows[0].DaysSinceLastPayment)
	assert.Equal(t, 14, *rows[0].DaysSinceLastPayment)

	f.svc.SetClock(func() time.Time { return testNow.AddDate(0, 0, 30) })
	rows, err = f.svc.PropertyAnalytics(ctx, f.owner.ID, 2024)
	require.NoError(t, err)
	require.NotNil(t, rows[0].DaysSinceLastPayment)
	assert.Equal(t, 44, *rows[0].DaysSinceLastPayment)
	assert.Equal(t, models.RentLate, rows[0].PaymentStatus)
}

func TestCreateRentPaymentDerivesStatus(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	late, err := f.svc.CreateRentPayment(ctx, f.owner.ID, RentPaymentInput{
		PropertyID: f.property.ID, Amount: 1000,
		PaymentDate: models.NewDate(2024, 6, 5), DueDate: models.NewDate(2024, 6, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentLate, late.Status)
	assert.Equal(t, models.PaymentBankTransfer, late.PaymentMethod)

	onTime, err := f.svc.CreateRentPayment(ctx, f.owner.ID, RentPaymentInput{
		PropertyID: f.property.ID, Amount: 1000,
		PaymentDate: models.NewDate(2024, 5, 1), DueDate: models.NewDate(2024, 5, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, onTime.Status)

	_, err = f.svc.CreateRentPayment(ctx, f.owner.ID, RentPaymentInput{
		PropertyID: f.property.ID, Amount: 1000, PaymentDate: models.NewDate(2024, 5, 1),
	})
	assert.True(t, IsValidation(err))
}

func TestAnalyticsCacheInvalidatedByWrites(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.CreateRentPayment(ctx, f.owner.ID, RentPaymentInput{
		PropertyID: f.property.ID, Amount: 1000,
		PaymentDate: models.NewDate(2024, 1, 1), DueDate: models.NewDate(2024, 1, 1),
	})
	require.NoError(t, err)

	rows, err := f.svc.PropertyAnalytics(ctx, f.owner.ID, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1000.0, rows[0].TotalRentCollected, 0.001)

	// written behind the service's back, so the cached value is served
	require.NoError(t, f.db.Create(&models.RentPayment{
		PropertyID: f.property.ID, Amount: 500, PaymentDate: models.NewDate(2024, 2, 1),
		DueDate: models.NewDate(2024, 2, 1), PaymentMethod: models.PaymentCash, Status: models.PaymentPaid,
	}).Error)
	rows, err = f.svc.PropertyAnalytics(ctx, f.owner.ID, 2024)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, rows[0].TotalRentCollected, 0.001)

	_, err = f.svc.CreateRentPayment(ctx, f.owner.ID, RentPaymentInput{
		PropertyID: f.property.ID, Amount: 250,
		PaymentDate: models.NewDate(2024, 3, 1), DueDate: models.NewDate(2024, 3, 1),
	})
	require.NoError(t, err)
	rows, err = f.svc.PropertyAnalytics(ctx, f.owner.ID, 2024)
	require.NoError(t, err)
	assert.InDelta(t, 1750.0, rows[0].TotalRentCollected, 0.001)
}

func TestAnalyticsInputErrors(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	other := testutil.CreateUser(t, f.db, "other@example.com")
	foreign := testutil.CreateProperty(t, f.db, other.ID, 500)

	_, err := f.svc.PropertyAnalytics(ctx, f.owner.ID, 1999)
	assert.True(t, IsValidation(err))

	_, err = f.svc.MonthlyAnalytics(ctx, f.owner.ID, 2026, 0)
	assert.True(t, IsValidation(err))

	_, err = f.svc.MonthlyAnalytics(ctx, f.owner.ID, 2024, foreign.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	rows, err := f.svc.MonthlyAnalytics(ctx, f.owner.ID, 2024, f.property.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 12)
}

func TestDeletePropertyCascades(t *testing.T) {
	f := setupService(t)
	f.reportIssue(t, models.UrgencyLow)
	f.logMaintenance(t, models.MaintenanceRoutine, 10)

	require.NoError(t, f.svc.DeleteProperty(context.Background(), f.owner.ID, f.property.ID))

	for _, model := range []interface{}{&models.Appliance{}, &models.Issue{}, &models.MaintenanceRecord{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
}

func TestUpdatePropertyNoFields(t *testing.T) {
	f := setupService(t)
	_, err := f.svc.UpdateProperty(context.Background(), f.owner.ID, f.property.ID, PropertyPatch{})
	assert.ErrorIs(t, err, ErrNoFields)

	rent := 1250.0
	updated, err := f.svc.UpdateProperty(context.Background(), f.owner.ID, f.property.ID, PropertyPatch{MonthlyRent: &rent})
	require.NoError(t, err)
	assert.Equal(t, 1250.0, *updated.MonthlyRent)
}

func TestPropertyMap(t *testing.T) {
	f := setupService(t)
	lat, lon := 51.5, -0.12
	_, err := f.svc.UpdateProperty(context.Background(), f.owner.ID, f.property.ID, PropertyPatch{Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	f.reportIssue(t, models.UrgencyLow)

	fc, err := f.svc.PropertyMap(context.Background(), f.owner.ID)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, 1, fc.Features[0].Properties["appliance_count"])
	assert.Equal(t, 1, fc.Features[0].Properties["appliances_flagged"])
}

func TestReconcileAllAndEnsureUser(t *testing.T) {
	f := setupService(t)
	f.reportIssue(t, models.UrgencyCritical)
	require.NoError(t, f.db.Model(&models.Appliance{}).Where("id = ?", f.appliance.ID).Update("status", "working").Error)

	n, err := f.svc.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.ApplianceOutOfService, testutil.ReloadAppliance(t, f.db, f.appliance.ID).Status)

	user, err := f.svc.EnsureUser(context.Background(), 77, "new@example.com", "New")
	require.NoError(t, err)
	again, err := f.svc.EnsureUser(context.Background(), 77, "ignored@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, user.Email, again.Email)
}
