package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/robnorris1/property-management-system-sub000/internal/analytics"
	"github.com/robnorris1/property-management-system-sub000/internal/cache"
	"github.com/robnorris1/property-management-system-sub000/internal/models"
	"github.com/robnorris1/property-management-system-sub000/internal/state"
)

// Notifier receives best-effort alerts after a write commits.
type Notifier interface {
	NotifyCriticalIssue(ctx context.Context, issue *models.Issue, appliance *models.Appliance, property *models.Property) error
	NotifyAutoResolved(ctx context.Context, record *models.MaintenanceRecord, appliance *models.Appliance, resolved int) error
	NotifyMaintenanceDue(ctx context.Context, due []models.DueMaintenance) error
}

// Geocoder resolves an address to latitude and longitude.
type Geocoder interface {
	GeocodeAddress(ctx context.Context, street, postalCode, city string) (float64, float64, error)
}

// Service implements the owner-scoped operations behind the HTTP API. Every
// write runs in a single transaction and is never retried.
type Service struct {
	db         *gorm.DB
	engine     *state.Engine
	aggregator *analytics.Aggregator
	cache      cache.Cache
	notifier   Notifier
	geocoder   Geocoder
	logger     *logrus.Logger
	now        func() time.Time
}

type Options struct {
	Cache    cache.Cache
	Notifier Notifier
	Geocoder Geocoder
}

func New(db *gorm.DB, logger *logrus.Logger, opts Options) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}
	return &Service{
		db:         db,
		engine:     state.NewEngine(logger),
		aggregator: analytics.NewAggregator(db, logger),
		cache:      opts.Cache,
		notifier:   opts.Notifier,
		geocoder:   opts.Geocoder,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock replaces the time source, including the aggregator's.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.aggregator.SetClock(now)
}

func (s *Service) today() models.Date {
	return models.DateOf(s.now())
}

func (s *Service) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// afterWrite drops cached analytics once a write has committed.
func (s *Service) afterWrite(ctx context.Context, ownerID uint) {
	if err := s.cache.InvalidateOwner(ctx, ownerID); err != nil {
		s.logger.WithError(err).WithField("owner_id", ownerID).Warn("Failed to invalidate analytics cache")
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ownedPropertyIDs is a subquery of property ids owned by ownerID.
func ownedPropertyIDs(db *gorm.DB, ownerID uint) *gorm.DB {
	return db.Model(&models.Property{}).Select("id").Where("user_id = ?", ownerID)
}

func ownedApplianceIDs(db *gorm.DB, ownerID uint) *gorm.DB {
	return db.Model(&models.Appliance{}).Select("id").Where("property_id IN (?)", ownedPropertyIDs(db, ownerID))
}

func findProperty(db *gorm.DB, ownerID, id uint) (*models.Property, error) {
	var property models.Property
	if err := db.Where("id = ? AND user_id = ?", id, ownerID).Take(&property).Error; err != nil {
		return nil, notFound(err)
	}
	return &property, nil
}

func findAppliance(db *gorm.DB, ownerID, id uint) (*models.Appliance, error) {
	var appliance models.Appliance
	if err := db.Where("id = ? AND property_id IN (?)", id, ownedPropertyIDs(db, ownerID)).
		Take(&appliance).Error; err != nil {
		return nil, notFound(err)
	}
	return &appliance, nil
}

func findMaintenance(db *gorm.DB, ownerID, id uint) (*models.MaintenanceRecord, error) {
	var record models.MaintenanceRecord
	if err := db.Where("id = ? AND appliance_id IN (?)", id, ownedApplianceIDs(db, ownerID)).
		Take(&record).Error; err != nil {
		return nil, notFound(err)
	}
	return &record, nil
}

func findIssue(db *gorm.DB, ownerID, id uint) (*models.Issue, error) {
	var issue models.Issue
	if err := db.Where("id = ? AND appliance_id IN (?)", id, ownedApplianceIDs(db, ownerID)).
		Take(&issue).Error; err != nil {
		return nil, notFound(err)
	}
	return &issue, nil
}

func findRentPayment(db *gorm.DB, ownerID, id uint) (*models.RentPayment, error) {
	var payment models.RentPayment
	if err := db.Where("id = ? AND property_id IN (?)", id, ownedPropertyIDs(db, ownerID)).
		Take(&payment).Error; err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

// EnsureUser returns the user with id, creating it when missing.
func (s *Service) EnsureUser(ctx context.Context, id uint, email, name string) (*models.User, error) {
	if id == 0 {
		return nil, invalid("user_id", "is required")
	}
	if err := required("email", email); err != nil {
		return nil, err
	}

	var user models.User
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		err := tx.Where("id = ?", id).Take(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		user = models.User{ID: id, Email: email, Name: name}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ReconcileAll recomputes derived state for every appliance, one transaction
// per appliance, and returns how many were processed.
func (s *Service) ReconcileAll(ctx context.Context) (int, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Appliance{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := s.transaction(ctx, func(tx *gorm.DB) error {
			return s.engine.Reconcile(tx, id)
		}); err != nil {
			return i, err
		}
	}

	s.logger.WithField("appliances", len(ids)).Info("Reconciled appliance derived state")
	return len(ids), nil
}
