package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

type RentPaymentInput struct {
	PropertyID      uint                 `json:"property_id" binding:"required"`
	TenantName      string               `json:"tenant_name"`
	Amount          float64              `json:"amount" binding:"required"`
	PaymentDate     models.Date          `json:"payment_date"`
	DueDate         models.Date          `json:"due_date"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	ReferenceNumber string               `json:"reference_number"`
	Notes           string               `json:"notes"`
	Status          models.PaymentStatus `json:"status"`
	LateFeeAmount   float64              `json:"late_fee_amount"`
}

type RentPaymentPatch struct {
	TenantName      *string               `json:"tenant_name"`
	Amount          *float64              `json:"amount"`
	PaymentDate     *models.Date          `json:"payment_date"`
	DueDate         *models.Date          `json:"due_date"`
	PaymentMethod   *models.PaymentMethod `json:"payment_method"`
	ReferenceNumber *string               `json:"reference_number"`
	Notes           *string               `json:"notes"`
	Status          *models.PaymentStatus `json:"status"`
	LateFeeAmount   *float64              `json:"late_fee_amount"`
}

func (patch RentPaymentPatch) apply(p *models.RentPayment) []string {
	var cols []string
	if patch.TenantName != nil {
		p.TenantName, cols = *patch.TenantName, append(cols, "tenant_name")
	}
	if patch.Amount != nil {
		p.Amount, cols = *patch.Amount, append(cols, "amount")
	}
	if patch.PaymentDate != nil {
		p.PaymentDate, cols = *patch.PaymentDate, append(cols, "payment_date")
	}
	if patch.DueDate != nil {
		p.DueDate, cols = *patch.DueDate, append(cols, "due_date")
	}
	if patch.PaymentMethod != nil {
		p.PaymentMethod, cols = *patch.PaymentMethod, append(cols, "payment_method")
	}
	if patch.ReferenceNumber != nil {
		p.ReferenceNumber, cols = *patch.ReferenceNumber, append(cols, "reference_number")
	}
	if patch.Notes != nil {
		p.Notes, cols = *patch.Notes, append(cols, "notes")
	}
	if patch.Status != nil {
		p.Status, cols = *patch.Status, append(cols, "status")
	}
	if patch.LateFeeAmount != nil {
		p.LateFeeAmount, cols = *patch.LateFeeAmount, append(cols, "late_fee_amount")
	}
	return cols
}

func (s *Service) ListRentPayments(ctx context.Context, ownerID, propertyID uint) ([]models.RentPayment, error) {
	db := s.db.WithContext(ctx)
	if _, err := findProperty(db, ownerID, propertyID); err != nil {
		return nil, err
	}

	var payments []models.RentPayment
	err := db.Where("property_id = ?", propertyID).
		Order("payment_date DESC, id DESC").
		Find(&payments).Error
	return payments, err
}

func (s *Service) GetRentPayment(ctx context.Context, ownerID, id uint) (*models.RentPayment, error) {
	return findRentPayment(s.db.WithContext(ctx), ownerID, id)
}

// CreateRentPayment records a payment. Without an explicit status it is paid,
// or late when received after the due date.
func (s *Service) CreateRentPayment(ctx context.Context, ownerID uint, in RentPaymentInput) (*models.RentPayment, error) {
	payment := &models.RentPayment{
		PropertyID:      in.PropertyID,
		TenantName:      in.TenantName,
		Amount:          in.Amount,
		PaymentDate:     in.PaymentDate,
		DueDate:         in.DueDate,
		PaymentMethod:   in.PaymentMethod,
		ReferenceNumber: in.ReferenceNumber,
		Notes:           in.Notes,
		Status:          in.Status,
		LateFeeAmount:   in.LateFeeAmount,
	}
	if payment.PaymentMethod == "" {
		payment.PaymentMethod = models.PaymentBankTransfer
	}
	if payment.Status == "" {
		payment.Status = models.DerivePaymentStatus(payment.PaymentDate, payment.DueDate)
	}
	if err := validateRentPayment(payment, s.today()); err != nil {
		return nil, err
	}

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := findProperty(tx, ownerID, in.PropertyID); err != nil {
			return err
		}
		return tx.Create(payment).Error
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, ownerID)
	return payment, nil
}

func (s *Service) UpdateRentPayment(ctx context.Context, ownerID, id uint, patch RentPaymentPatch) (*models.RentPayment, error) {
	var payment *models.RentPayment
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if payment, err = findRentPayment(tx, ownerID, id); err != nil {
			return err
		}
		cols := patch.apply(payment)
		if len(cols) == 0 {
			return ErrNoFields
		}
		if err := validateRentPayment(payment, s.today()); err != nil {
			return err
		}
		return tx.Model(payment).Select(cols).Updates(payment).Error
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, ownerID)
	return payment, nil
}

func (s *Service) DeleteRentPayment(ctx context.Context, ownerID, id uint) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND property_id IN (?)", id, ownedPropertyIDs(tx, ownerID)).
			Delete(&models.RentPayment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, ownerID)
	return nil
}
