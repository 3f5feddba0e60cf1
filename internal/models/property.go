package models

import "time"

type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Email      string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name       string     `gorm:"size:120" json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Properties []Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Property struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	UserID       uint          `gorm:"not null;index" json:"user_id"`
	Name         string        `gorm:"size:120" json:"name"`
	Address      string        `gorm:"size:255;not null" json:"address"`
	City         string        `gorm:"size:120" json:"city"`
	PostalCode   string        `gorm:"size:20" json:"postal_code"`
	PropertyType PropertyType  `gorm:"size:20;not null" json:"property_type"`
	MonthlyRent  *float64      `gorm:"type:decimal(10,2)" json:"monthly_rent"`
	Bedrooms     *int          `json:"bedrooms"`
	Bathrooms    *float64      `json:"bathrooms"`
	SquareFeet   *int          `json:"square_feet"`
	Latitude     *float64      `json:"latitude"`
	Longitude    *float64      `json:"longitude"`
	Notes        string        `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Appliances   []Appliance   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RentPayments []RentPayment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// AnnualExpectedRent returns twelve months of rent, or false when no rent is set.
func (p *Property) AnnualExpectedRent() (float64, bool) {
	if p.MonthlyRent == nil || *p.MonthlyRent <= 0 {
		return 0, false
	}
	return *p.MonthlyRent * 12, true
}

// HasLocation reports whether the property has been geocoded.
func (p *Property) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}
