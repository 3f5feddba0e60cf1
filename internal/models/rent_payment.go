package models

import "time"

type RentPayment struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	PropertyID      uint          `gorm:"not null;index" json:"property_id"`
	TenantName      string        `gorm:"size:120" json:"tenant_name"`
	Amount          float64       `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentDate     Date          `gorm:"not null;index" json:"payment_date"`
	DueDate         Date          `gorm:"not null" json:"due_date"`
	PaymentMethod   PaymentMethod `gorm:"size:20;not null;default:bank_transfer" json:"payment_method"`
	ReferenceNumber string        `gorm:"size:80" json:"reference_number"`
	Notes           string        `gorm:"type:text" json:"notes"`
	Status          PaymentStatus `gorm:"size:10;not null;default:paid" json:"status"`
	LateFeeAmount   float64       `gorm:"type:decimal(10,2);not null;default:0" json:"late_fee_amount"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Total is the amount collected including any late fee.
func (p *RentPayment) Total() float64 {
	return p.Amount + p.LateFeeAmount
}

// DerivePaymentStatus is used when a payment is recorded without an explicit status.
func DerivePaymentStatus(paymentDate, dueDate Date) PaymentStatus {
	if paymentDate.After(dueDate) {
		return PaymentLate
	}
	return PaymentPaid
}
