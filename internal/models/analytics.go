package models

type MaintenanceCategory string

const (
	MaintenanceHigh   MaintenanceCategory = "high_maintenance"
	MaintenanceMedium MaintenanceCategory = "medium_maintenance"
	MaintenanceLow    MaintenanceCategory = "low_maintenance"
	MaintenanceNoData MaintenanceCategory = "no_data"
)

type PerformanceRating string

const (
	PerformanceExcellent PerformanceRating = "excellent"
	PerformanceGood      PerformanceRating = "good"
	PerformanceFair      PerformanceRating = "fair"
	PerformancePoor      PerformanceRating = "poor"
	PerformanceNoData    PerformanceRating = "no_data"
)

type RentStanding string

const (
	RentCurrent    RentStanding = "current"
	RentLate       RentStanding = "late"
	RentOverdue    RentStanding = "overdue"
	RentNoPayments RentStanding = "no_payments"
)

type PropertyAnalytics struct {
	PropertyID             uint                `json:"property_id"`
	PropertyName           string              `json:"property_name"`
	Address                string              `json:"address"`
	PropertyType           PropertyType        `json:"property_type"`
	MonthlyRent            *float64            `json:"monthly_rent"`
	Year                   int                 `json:"year"`
	TotalRentCollected     float64             `json:"total_rent_collected"`
	TotalMaintenanceCost   float64             `json:"total_maintenance_cost"`
	NetIncome              float64             `json:"net_income"`
	PaymentsCount          int                 `json:"payments_count"`
	MaintenanceCount       int                 `json:"maintenance_count"`
	OccupancyRate          *float64            `json:"occupancy_rate"`
	MaintenanceToRentRatio *float64            `json:"maintenance_to_rent_ratio"`
	LastPaymentDate        *Date               `json:"last_payment_date"`
	DaysSinceLastPayment   *int                `json:"days_since_last_payment"`
	MaintenanceCategory    MaintenanceCategory `json:"maintenance_category"`
	PerformanceRating      PerformanceRating   `json:"performance_rating"`
	PaymentStatus          RentStanding        `json:"payment_status"`
}

type MonthlyAnalytics struct {
	PropertyID       uint    `json:"property_id"`
	PropertyName     string  `json:"property_name"`
	Address          string  `json:"address"`
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	RentCollected    float64 `json:"rent_collected"`
	MaintenanceCost  float64 `json:"maintenance_cost"`
	NetIncome        float64 `json:"net_income"`
	PaymentsCount    int     `json:"payments_count"`
	MaintenanceCount int     `json:"maintenance_count"`
	ExpectedRent     float64 `json:"expected_rent"`
}

type DashboardSummary struct {
	TotalProperties         int                     `json:"total_properties"`
	TotalAppliances         int                     `json:"total_appliances"`
	AppliancesByStatus      map[ApplianceStatus]int `json:"appliances_by_status"`
	AppliancesWithIssues    int                     `json:"appliances_with_issues"`
	OpenIssues              int                     `json:"open_issues"`
	CriticalIssues          int                     `json:"critical_issues"`
	MaintenanceDueSoon      int                     `json:"maintenance_due_soon"`
	ExpectedMonthlyRent     float64                 `json:"expected_monthly_rent"`
	RentCollectedThisMonth  float64                 `json:"rent_collected_this_month"`
	RentCollectedThisYear   float64                 `json:"rent_collected_this_year"`
	MaintenanceCostThisYear float64                 `json:"maintenance_cost_this_year"`
	NetIncomeThisYear       float64                 `json:"net_income_this_year"`
}
