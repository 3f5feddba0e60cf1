// Package testutil holds database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/robnorris1/property-management-system-sub000/internal/database"
	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewTestDB()
	require.NoError(t, err)

	err = database.MigrateSchema(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: "Test Owner"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProperty stores a house owned by userID. A zero rent leaves monthly_rent unset.
func CreateProperty(t *testing.T, db *gorm.DB, userID uint, rent float64) *models.Property {
	t.Helper()
	property := &models.Property{
		UserID:       userID,
		Name:         "Test Property",
		Address:      fmt.Sprintf("%d Main Street", userID),
		City:         "Springfield",
		PropertyType: models.PropertyHouse,
	}
	if rent > 0 {
		property.MonthlyRent = &rent
	}
	require.NoError(t, db.Create(property).Error)
	return property
}

func CreateAppliance(t *testing.T, db *gorm.DB, propertyID uint) *models.Appliance {
	t.Helper()
	appliance := &models.Appliance{
		PropertyID: propertyID,
		Name:       "Dishwasher",
		Type:       "dishwasher",
		Status:     models.ApplianceWorking,
	}
	require.NoError(t, db.Create(appliance).Error)
	return appliance
}

func ReloadAppliance(t *testing.T, db *gorm.DB, id uint) *models.Appliance {
	t.Helper()
	var appliance models.Appliance
	require.NoError(t, db.Where("id = ?", id).Take(&appliance).Error)
	return &appliance
}

func Float(v float64) *float64 {
	return &v
}
