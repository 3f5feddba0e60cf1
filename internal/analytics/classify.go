package analytics

import (
	"errors"
	"math"
	"time"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

const minYear = 2000

var (
	ErrInvalidYear       = errors.New("year must be between 2000 and next year")
	ErrInvalidPropertyID = errors.New("property_id must be a positive integer")
	ErrPropertyNotFound  = errors.New("property not found")
)

// ValidateYear accepts years from 2000 through the year after now.
func ValidateYear(year int, now time.Time) error {
	if year < minYear || year > now.Year()+1 {
		return ErrInvalidYear
	}
	return nil
}

// OccupancyRate is the percentage of a year's expected rent actually collected.
// It is nil when the property has no monthly rent.
func OccupancyRate(collected float64, monthlyRent *float64) *float64 {
	if monthlyRent == nil || *monthlyRent <= 0 {
		return nil
	}
	rate := 100 * collected / (*monthlyRent * 12)
	return &rate
}

// MaintenanceToRentRatio compares a year's maintenance spend with expected rent.
func MaintenanceToRentRatio(maintenance float64, monthlyRent *float64) *float64 {
	if monthlyRent == nil || *monthlyRent <= 0 {
		return nil
	}
	ratio := maintenance / (*monthlyRent * 12)
	return &ratio
}

func MaintenanceCategory(ratio *float64) models.MaintenanceCategory {
	switch {
	case ratio == nil:
		return models.MaintenanceNoData
	case *ratio > 0.30:
		return models.MaintenanceHigh
	case *ratio > 0.15:
		return models.MaintenanceMedium
	default:
		return models.MaintenanceLow
	}
}

func PerformanceRating(occupancy *float64) models.PerformanceRating {
	switch {
	case occupancy == nil:
		return models.PerformanceNoData
	case *occupancy >= 90:
		return models.PerformanceExcellent
	case *occupancy >= 75:
		return models.PerformanceGood
	case *occupancy >= 60:
		return models.PerformanceFair
	default:
		return models.PerformancePoor
	}
}

// PaymentStatus classifies rent standing by days since the last payment.
func PaymentStatus(daysSinceLastPayment *int) models.RentStanding {
	switch {
	case daysSinceLastPayment == nil:
		return models.RentNoPayments
	case *daysSinceLastPayment > 45:
		return models.RentOverdue
	case *daysSinceLastPayment > 30:
		return models.RentLate
	default:
		return models.RentCurrent
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	r := roundTo(*v, places)
	return &r
}
