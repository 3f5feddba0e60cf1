package models

type ApplianceStatus string

const (
	ApplianceWorking      ApplianceStatus = "working"
	ApplianceNeedsRepair  ApplianceStatus = "needs_repair"
	ApplianceUnderRepair  ApplianceStatus = "under_repair"
	ApplianceOutOfService ApplianceStatus = "out_of_service"
)

// Legacy values still found in older imports.
const (
	legacyStatusMaintenance = "maintenance"
	legacyStatusBroken      = "broken"
)

func (s ApplianceStatus) Valid() bool {
	switch s {
	case ApplianceWorking, ApplianceNeedsRepair, ApplianceUnderRepair, ApplianceOutOfService:
		return true
	}
	return false
}

// NormalizeApplianceStatus maps legacy synonyms onto the canonical set.
// The second return value is false when s is not a known status.
func NormalizeApplianceStatus(s string) (ApplianceStatus, bool) {
	switch s {
	case legacyStatusMaintenance:
		return ApplianceNeedsRepair, true
	case legacyStatusBroken:
		return ApplianceOutOfService, true
	}
	status := ApplianceStatus(s)
	return status, status.Valid()
}

// LegacyApplianceStatuses lists stored values that must be rewritten at migration time.
func LegacyApplianceStatuses() map[string]ApplianceStatus {
	return map[string]ApplianceStatus{
		legacyStatusMaintenance: ApplianceNeedsRepair,
		legacyStatusBroken:      ApplianceOutOfService,
	}
}

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Rank orders urgencies: critical > high > medium > low. Unknown values rank 0.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 4
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	}
	return 0
}

func (u Urgency) Valid() bool {
	return u.Rank() > 0
}

type IssueStatus string

const (
	IssueOpen       IssueStatus = "open"
	IssueScheduled  IssueStatus = "scheduled"
	IssueInProgress IssueStatus = "in_progress"
	IssueResolved   IssueStatus = "resolved"
	IssueCancelled  IssueStatus = "cancelled"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case IssueOpen, IssueScheduled, IssueInProgress, IssueResolved, IssueCancelled:
		return true
	}
	return false
}

// Active reports whether an issue in this status still affects its appliance.
func (s IssueStatus) Active() bool {
	return s == IssueOpen || s == IssueScheduled || s == IssueInProgress
}

// ActiveIssueStatuses is the set used in queries for active issues.
var ActiveIssueStatuses = []IssueStatus{IssueOpen, IssueScheduled, IssueInProgress}

type MaintenanceType string

const (
	MaintenanceRoutine     MaintenanceType = "routine"
	MaintenanceRepair      MaintenanceType = "repair"
	MaintenanceInspection  MaintenanceType = "inspection"
	MaintenanceReplacement MaintenanceType = "replacement"
	MaintenanceCleaning    MaintenanceType = "cleaning"
	MaintenanceUpgrade     MaintenanceType = "upgrade"
)

func (t MaintenanceType) Valid() bool {
	switch t {
	case MaintenanceRoutine, MaintenanceRepair, MaintenanceInspection,
		MaintenanceReplacement, MaintenanceCleaning, MaintenanceUpgrade:
		return true
	}
	return false
}

// Fixes reports whether completing this kind of work resolves open issues.
func (t MaintenanceType) Fixes() bool {
	return t == MaintenanceRepair || t == MaintenanceReplacement
}

type MaintenanceStatus string

const (
	MaintenanceScheduled  MaintenanceStatus = "scheduled"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenanceScheduled, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentLate    PaymentStatus = "late"
	PaymentPartial PaymentStatus = "partial"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPaid || s == PaymentLate || s == PaymentPartial
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCheck        PaymentMethod = "check"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCard         PaymentMethod = "card"
	PaymentOnline       PaymentMethod = "online"
	PaymentOther        PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCheck, PaymentBankTransfer, PaymentCard, PaymentOnline, PaymentOther:
		return true
	}
	return false
}

type PropertyType string

const (
	PropertyHouse      PropertyType = "house"
	PropertyApartment  PropertyType = "apartment"
	PropertyCondo      PropertyType = "condo"
	PropertyTownhouse  PropertyType = "townhouse"
	PropertyCommercial PropertyType = "commercial"
	PropertyOther      PropertyType = "other"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyHouse, PropertyApartment, PropertyCondo, PropertyTownhouse, PropertyCommercial, PropertyOther:
		return true
	}
	return false
}
