package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

type IssueInput struct {
	ApplianceID   uint           `json:"appliance_id" binding:"required"`
	Title         string         `json:"title" binding:"required"`
	Description   string         `json:"description"`
	Urgency       models.Urgency `json:"urgency"`
	ReportedDate  *models.Date   `json:"reported_date"`
	ScheduledDate *models.Date   `json:"scheduled_date"`
}

// IssuePatch lists the issue fields that may be edited.
type IssuePatch struct {
	Title               *string             `json:"title"`
	Description         *string             `json:"description"`
	Urgency             *models.Urgency     `json:"urgency"`
	Status              *models.IssueStatus `json:"status"`
	ScheduledDate       *models.Date        `json:"scheduled_date"`
	ResolvedDate        *models.Date        `json:"resolved_date"`
	ResolutionNotes     *string             `json:"resolution_notes"`
	MaintenanceRecordID *uint               `json:"maintenance_record_id"`
}

func (patch IssuePatch) apply(i *models.Issue) []string {
	var cols []string
	if patch.Title != nil {
		i.Title, cols = *patch.Title, append(cols, "title")
	}
	if patch.Description != nil {
		i.Description, cols = *patch.Description, append(cols, "description")
	}
	if patch.Urgency != nil {
		i.Urgency, cols = *patch.Urgency, append(cols, "urgency")
	}
	if patch.Status != nil {
		i.Status, cols = *patch.Status, append(cols, "status")
	}
	if patch.ScheduledDate != nil {
		i.ScheduledDate, cols = clearZeroDate(patch.ScheduledDate), append(cols, "scheduled_date")
	}
	if patch.ResolvedDate != nil {
		i.ResolvedDate, cols = clearZeroDate(patch.ResolvedDate), append(cols, "resolved_date")
	}
	if patch.ResolutionNotes != nil {
		i.ResolutionNotes, cols = *patch.ResolutionNotes, append(cols, "resolution_notes")
	}
	if patch.MaintenanceRecordID != nil {
		i.MaintenanceRecordID, cols = patch.MaintenanceRecordID, append(cols, "maintenance_record_id")
	}
	return cols
}

func (s *Service) ListIssues(ctx context.Context, ownerID, applianceID uint) ([]models.Issue, error) {
	db := s.db.WithContext(ctx)
	if _, err := findAppliance(db, ownerID, applianceID); err != nil {
		return nil, err
	}

	var issues []models.Issue
	err := db.Where("appliance_id = ?", applianceID).
		Order("reported_date DESC, id DESC").
		Find(&issues).Error
	return issues, err
}

func (s *Service) GetIssue(ctx context.Context, ownerID, id uint) (*models.Issue, error) {
	return findIssue(s.db.WithContext(ctx), ownerID, id)
}

// CreateIssue reports a new open issue and re-derives the appliance state.
func (s *Service) CreateIssue(ctx context.Context, ownerID uint, in IssueInput) (*models.Issue, error) {
	issue := &models.Issue{
		ApplianceID:   in.ApplianceID,
		Title:         in.Title,
		Description:   in.Description,
		Urgency:       in.Urgency,
		Status:        models.IssueOpen,
		ReportedDate:  s.today(),
		ScheduledDate: clearZeroDate(in.ScheduledDate),
	}
	if issue.Urgency == "" {
		issue.Urgency = models.UrgencyMedium
	}
	if dateSet(in.ReportedDate) {
		issue.ReportedDate = *in.ReportedDate
	}
	if err := validateIssue(issue); err != nil {
		return nil, err
	}

	var appliance *models.Appliance
	var property *models.Property
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if appliance, err = findAppliance(tx, ownerID, in.ApplianceID); err != nil {
			return err
		}
		if property, err = findProperty(tx, ownerID, appliance.PropertyID); err != nil {
			return err
		}
		if err := tx.Create(issue).Error; err != nil {
			return err
		}
		_, err = s.engine.RecordIssueChange(tx, appliance.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, ownerID)

	if s.notifier != nil && issue.Urgency == models.UrgencyCritical {
		if err := s.notifier.NotifyCriticalIssue(ctx, issue, appliance, property); err != nil {
			s.logger.WithError(err).WithField("issue_id", issue.ID).Warn("Failed to send critical issue notification")
		}
	}
	return issue, nil
}

// UpdateIssue applies patch and re-derives the appliance state. Moving an
// issue to resolved without a resolved_date stamps today.
func (s *Service) UpdateIssue(ctx context.Context, ownerID, id uint, patch IssuePatch) (*models.Issue, error) {
	var issue *models.Issue
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if issue, err = findIssue(tx, ownerID, id); err != nil {
			return err
		}

		cols := patch.apply(issue)
		if len(cols) == 0 {
			return ErrNoFields
		}
		if issue.Status == models.IssueResolved && !dateSet(issue.ResolvedDate) {
			today := s.today()
			issue.ResolvedDate = &today
			cols = append(cols, "resolved_date")
		}
		if err := validateIssue(issue); err != nil {
			return err
		}

		if issue.MaintenanceRecordID != nil {
			var count int64
			if err := tx.Model(&models.MaintenanceRecord{}).
				Where("id = ? AND appliance_id = ?", *issue.MaintenanceRecordID, issue.ApplianceID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return invalid("maintenance_record_id", "must reference a record of the same appliance")
			}
		}

		if err := tx.Model(issue).Select(cols).Updates(issue).Error; err != nil {
			return err
		}
		_, err = s.engine.RecordIssueChange(tx, issue.ApplianceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, ownerID)
	return issue, nil
}

func (s *Service) DeleteIssue(ctx context.Context, ownerID, id uint) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		issue, err := findIssue(tx, ownerID, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Issue{}, issue.ID).Error; err != nil {
			return err
		}
		_, err = s.engine.RecordIssueChange(tx, issue.ApplianceID)
		return err
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, ownerID)
	return nil
}
