package service

import (
	"strings"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

func dateSet(d *models.Date) bool {
	return d != nil && !d.IsZero()
}

// clearZeroDate turns a supplied empty date into nil.
func clearZeroDate(d *models.Date) *models.Date {
	if dateSet(d) {
		return d
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

func validateProperty(p *models.Property) error {
	if err := required("address", p.Address); err != nil {
		return err
	}
	if !p.PropertyType.Valid() {
		return invalid("property_type", "must be one of house, apartment, condo, townhouse, commercial, other")
	}
	if p.MonthlyRent != nil && *p.MonthlyRent < 0 {
		return invalid("monthly_rent", "must not be negative")
	}
	if p.Bedrooms != nil && *p.Bedrooms < 0 {
		return invalid("bedrooms", "must not be negative")
	}
	if p.Bathrooms != nil && *p.Bathrooms < 0 {
		return invalid("bathrooms", "must not be negative")
	}
	if p.SquareFeet != nil && *p.SquareFeet < 0 {
		return invalid("square_feet", "must not be negative")
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return invalid("latitude", "latitude and longitude must be supplied together")
	}
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90) {
		return invalid("latitude", "must be between -90 and 90")
	}
	if p.Longitude != nil && (*p.Longitude < -180 || *p.Longitude > 180) {
		return invalid("longitude", "must be between -180 and 180")
	}
	return nil
}

func validateAppliance(a *models.Appliance) error {
	if err := required("name", a.Name); err != nil {
		return err
	}
	if err := required("type", a.Type); err != nil {
		return err
	}
	if !a.Status.Valid() {
		return invalid("status", "must be one of working, needs_repair, under_repair, out_of_service")
	}
	if dateSet(a.InstallationDate) && dateSet(a.WarrantyExpiry) && a.WarrantyExpiry.Before(*a.InstallationDate) {
		return invalid("warranty_expiry", "must not be before installation_date")
	}
	return nil
}

func validateMaintenanceRecord(r *models.MaintenanceRecord) error {
	if !r.MaintenanceType.Valid() {
		return invalid("maintenance_type", "must be one of routine, repair, inspection, replacement, cleaning, upgrade")
	}
	if err := required("description", r.Description); err != nil {
		return err
	}
	if r.Cost != nil && *r.Cost < 0 {
		return invalid("cost", "must not be negative")
	}
	if r.MaintenanceDate.IsZero() {
		return invalid("maintenance_date", "is required")
	}
	if dateSet(r.NextDueDate) && !r.NextDueDate.After(r.MaintenanceDate) {
		return invalid("next_due_date", "must be after maintenance_date")
	}
	if dateSet(r.WarrantyUntil) && r.WarrantyUntil.Before(r.MaintenanceDate) {
		return invalid("warranty_until", "must not be before maintenance_date")
	}
	if !r.Status.Valid() {
		return invalid("status", "must be one of scheduled, in_progress, completed, cancelled")
	}
	return nil
}

func validateIssue(i *models.Issue) error {
	if err := required("title", i.Title); err != nil {
		return err
	}
	if !i.Urgency.Valid() {
		return invalid("urgency", "must be one of critical, high, medium, low")
	}
	if !i.Status.Valid() {
		return invalid("status", "must be one of open, scheduled, in_progress, resolved, cancelled")
	}
	if dateSet(i.ResolvedDate) && i.ResolvedDate.Before(i.ReportedDate) {
		return invalid("resolved_date", "must not be before reported_date")
	}
	return nil
}

func validateRentPayment(p *models.RentPayment, today models.Date) error {
	if p.Amount <= 0 {
		return invalid("amount", "must be greater than zero")
	}
	if p.LateFeeAmount < 0 {
		return invalid("late_fee_amount", "must not be negative")
	}
	if p.PaymentDate.IsZero() {
		return invalid("payment_date", "is required")
	}
	if p.PaymentDate.After(today) {
		return invalid("payment_date", "must not be in the future")
	}
	if p.DueDate.IsZero() {
		return invalid("due_date", "is required")
	}
	if !p.PaymentMethod.Valid() {
		return invalid("payment_method", "must be one of cash, check, bank_transfer, card, online, other")
	}
	if !p.Status.Valid() {
		return invalid("status", "must be one of paid, late, partial")
	}
	return nil
}
