package state

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/robnorris1/property-management-system-sub000/internal/metrics"
	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

var (
	ErrApplianceNotFound   = errors.New("appliance not found")
	ErrMaintenanceNotFound = errors.New("maintenance record not found")
	ErrEmptyPatch          = errors.New("no updatable fields supplied")
)

// Engine keeps the derived columns of an appliance consistent with its issues
// and maintenance records. Every method runs on the caller's transaction and
// never commits or retries on its own.
type Engine struct {
	logger *logrus.Logger
}

func NewEngine(logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Engine{logger: logger}
}

// IssueState is the part of an appliance derived from its active issues.
type IssueState struct {
	Status        models.ApplianceStatus
	HasOpenIssues bool
	UrgencyLevel  *models.Urgency
}

// DeriveIssueState computes appliance state from the urgencies of its active issues.
func DeriveIssueState(urgencies []models.Urgency) IssueState {
	if len(urgencies) == 0 {
		return IssueState{Status: models.ApplianceWorking}
	}

	highest := urgencies[0]
	for _, u := range urgencies[1:] {
		if u.Rank() > highest.Rank() {
			highest = u
		}
	}

	state := IssueState{
		Status:        models.ApplianceNeedsRepair,
		HasOpenIssues: true,
		UrgencyLevel:  &highest,
	}
	if highest == models.UrgencyCritical {
		state.Status = models.ApplianceOutOfService
	}
	return state
}

// AutoResolutionNote is appended to issues closed by completed repair work.
func AutoResolutionNote(t models.MaintenanceType, description string) string {
	return fmt.Sprintf("Auto-resolved: %s maintenance completed - %s", t, description)
}

// lockAppliance serialises concurrent recomputations for the same appliance.
// SQLite ignores the locking clause; its writer lock already serialises.
func lockAppliance(tx *gorm.DB, applianceID uint) error {
	var appliance models.Appliance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", applianceID).
		Take(&appliance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrApplianceNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock appliance %d: %w", applianceID, err)
	}
	return nil
}

// RecordIssueChange re-derives status, has_open_issues and urgency_level from
// the appliance's active issues and writes them back in one UPDATE.
func (e *Engine) RecordIssueChange(tx *gorm.DB, applianceID uint) (IssueState, error) {
	if err := lockAppliance(tx, applianceID); err != nil {
		return IssueState{}, err
	}

	var raw []string
	if err := tx.Model(&models.Issue{}).
		Where("appliance_id = ? AND status IN ?", applianceID, models.ActiveIssueStatuses).
		Pluck("urgency", &raw).Error; err != nil {
		return IssueState{}, fmt.Errorf("failed to load active issues: %w", err)
	}

	urgencies := make([]models.Urgency, 0, len(raw))
	for _, u := range raw {
		urgencies = append(urgencies, models.Urgency(u))
	}
	derived := DeriveIssueState(urgencies)

	var urgency interface{}
	if derived.UrgencyLevel != nil {
		urgency = string(*derived.UrgencyLevel)
	}
	if err := tx.Model(&models.Appliance{}).
		Where("id = ?", applianceID).
		Updates(map[string]interface{}{
			"status":          derived.Status,
			"has_open_issues": derived.HasOpenIssues,
			"urgency_level":   urgency,
		}).Error; err != nil {
		return IssueState{}, fmt.Errorf("failed to update appliance %d state: %w", applianceID, err)
	}

	metrics.ObserveStatusDerivation(string(derived.Status))
	e.logger.WithFields(logrus.Fields{
		"appliance_id":  applianceID,
		"active_issues": len(urgencies),
		"status":        derived.Status,
	}).Debug("Recomputed appliance issue state")

	return derived, nil
}

// RefreshMaintenanceRollup recomputes count, total cost and the latest
// maintenance date and cost from the appliance's current records.
func (e *Engine) RefreshMaintenanceRollup(tx *gorm.DB, applianceID uint) error {
	var totals struct {
		Count int64
		Total float64
	}
	if err := tx.Model(&models.MaintenanceRecord{}).
		Select("COUNT(*) AS count, COALESCE(SUM(CASE WHEN cost > 0 THEN cost ELSE 0 END), 0) AS total").
		Where("appliance_id = ?", applianceID).
		Scan(&totals).Error; err != nil {
		return fmt.Errorf("failed to aggregate maintenance records: %w", err)
	}

	var latest []models.MaintenanceRecord
	if err := tx.Where("appliance_id = ?", applianceID).
		Order("maintenance_date DESC, id DESC").
		Limit(1).
		Find(&latest).Error; err != nil {
		return fmt.Errorf("failed to load latest maintenance record: %w", err)
	}

	var lastDate interface{}
	lastCost := 0.0
	if len(latest) > 0 {
		lastDate = latest[0].MaintenanceDate
		lastCost = latest[0].CostOrZero()
	}

	if err := tx.Model(&models.Appliance{}).
		Where("id = ?", applianceID).
		Updates(map[string]interface{}{
			"maintenance_count":      totals.Count,
			"total_maintenance_cost": totals.Total,
			"last_maintenance":       lastDate,
			"last_maintenance_cost":  lastCost,
		}).Error; err != nil {
		return fmt.Errorf("failed to update appliance %d rollup: %w", applianceID, err)
	}

	e.logger.WithFields(logrus.Fields{
		"appliance_id":      applianceID,
		"maintenance_count": totals.Count,
		"total_cost":        totals.Total,
	}).Debug("Refreshed maintenance rollup")
	return nil
}

// RecordMaintenanceCreated updates the appliance after record has been inserted
// on tx. Completed repair or replacement work resolves every active issue of
// the appliance; the number of issues resolved is returned.
func (e *Engine) RecordMaintenanceCreated(tx *gorm.DB, record *models.MaintenanceRecord) (int, error) {
	if record.ID == 0 {
		return 0, fmt.Errorf("maintenance record must be persisted before recording it")
	}
	if err := lockAppliance(tx, record.ApplianceID); err != nil {
		return 0, err
	}
	if err := e.RefreshMaintenanceRollup(tx, record.ApplianceID); err != nil {
		return 0, err
	}

	if !record.ResolvesIssues() {
		return 0, nil
	}

	if err := tx.Model(&models.Appliance{}).
		Where("id = ?", record.ApplianceID).
		Update("status", models.ApplianceWorking).Error; err != nil {
		return 0, fmt.Errorf("failed to mark appliance %d working: %w", record.ApplianceID, err)
	}

	note := AutoResolutionNote(record.MaintenanceType, record.Description)
	res := tx.Model(&models.Issue{}).
		Where("appliance_id = ? AND status IN ?", record.ApplianceID, models.ActiveIssueStatuses).
		Updates(map[string]interface{}{
			"status":                models.IssueResolved,
			"resolved_date":         record.MaintenanceDate,
			"maintenance_record_id": record.ID,
			"resolution_notes": gorm.Expr(
				"CASE WHEN resolution_notes IS NULL OR resolution_notes = '' THEN ? ELSE resolution_notes || ? END",
				note, "\n\n"+note,
			),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to auto-resolve issues: %w", res.Error)
	}

	if _, err := e.RecordIssueChange(tx, record.ApplianceID); err != nil {
		return 0, err
	}

	resolved := int(res.RowsAffected)
	if resolved > 0 {
		e.logger.WithFields(logrus.Fields{
			"appliance_id":          record.ApplianceID,
			"maintenance_record_id": record.ID,
			"resolved":              resolved,
		}).Info("Auto-resolved issues after completed maintenance")
	}
	return resolved, nil
}

// RecordMaintenanceDeleted updates the appliance after one of its records has
// been deleted on tx. last_maintenance falls back to the previous record.
func (e *Engine) RecordMaintenanceDeleted(tx *gorm.DB, applianceID uint) error {
	if err := lockAppliance(tx, applianceID); err != nil {
		return err
	}
	return e.RefreshMaintenanceRollup(tx, applianceID)
}

// RecordMaintenanceUpdated applies patch to the record and refreshes the
// appliance rollup so cost and date edits are reflected.
func (e *Engine) RecordMaintenanceUpdated(tx *gorm.DB, recordID uint, patch MaintenancePatch) (*models.MaintenanceRecord, error) {
	columns := patch.Columns()
	if len(columns) == 0 {
		return nil, ErrEmptyPatch
	}

	var record models.MaintenanceRecord
	if err := tx.Where("id = ?", recordID).Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMaintenanceNotFound
		}
		return nil, fmt.Errorf("failed to load maintenance record %d: %w", recordID, err)
	}

	if err := lockAppliance(tx, record.ApplianceID); err != nil {
		return nil, err
	}

	if err := tx.Model(&models.MaintenanceRecord{}).
		Where("id = ?", recordID).
		Updates(columns).Error; err != nil {
		return nil, fmt.Errorf("failed to update maintenance record %d: %w", recordID, err)
	}

	if err := e.RefreshMaintenanceRollup(tx, record.ApplianceID); err != nil {
		return nil, err
	}

	var updated models.MaintenanceRecord
	if err := tx.Where("id = ?", recordID).Take(&updated).Error; err != nil {
		return nil, fmt.Errorf("failed to reload maintenance record %d: %w", recordID, err)
	}
	return &updated, nil
}

// Reconcile recomputes every derived column of the appliance.
func (e *Engine) Reconcile(tx *gorm.DB, applianceID uint) error {
	if _, err := e.RecordIssueChange(tx, applianceID); err != nil {
		return err
	}
	return e.RefreshMaintenanceRollup(tx, applianceID)
}
