package domain

import "time"

// Status enumerates lifecycle states for work orders, ordered roughly
// by workflow progress.
type Status string

const (
	StatusNew             Status = "NEW"
	StatusSurveying       Status = "SURVEYING"
	StatusQuoted          Status = "QUOTED"
	StatusWaitingApproval Status = "WAITING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusScheduled       Status = "SCHEDULED"
	StatusInProgress      Status = "IN_PROGRESS"
	StatusCompleted       Status = "COMPLETED"
	StatusInvoiced        Status = "INVOICED"
	StatusCancelled       Status = "CANCELLED"
)

// AllStatuses lists every lifecycle state in workflow order.
var AllStatuses = []Status{
	StatusNew,
	StatusSurveying,
	StatusQuoted,
	StatusWaitingApproval,
	StatusApproved,
	StatusScheduled,
	StatusInProgress,
	StatusCompleted,
	StatusInvoiced,
	StatusCancelled,
}

// IsTerminal reports whether no role may move the work order further.
func (s Status) IsTerminal() bool {
	return s == StatusInvoiced || s == StatusCancelled
}

// Severity enumerates response urgency.
type Severity string

const (
	SeverityEmergency Severity = "EMERGENCY"
	SeverityUrgent    Severity = "URGENT"
	SeverityStandard  Severity = "STANDARD"
)

// Category classifies the reported issue.
type Category string

const (
	CategoryPlumbing   Category = "PLUMBING"
	CategoryElectrical Category = "ELECTRICAL"
	CategoryHVAC       Category = "HVAC"
	CategoryStructural Category = "STRUCTURAL"
	CategoryOther      Category = "OTHER"
)

// WorkOrder is the aggregate for maintenance requests.
type WorkOrder struct {
	ID          string
	Number      string
	OrgID       string
	BuildingID  string
	SpaceID     *string
	RequesterID string
	Status      Status
	Severity    Severity
	Category    Category
	Description string

	// Restricted fields, mutable only by platform staff.
	AssignedTechnician  *string
	ScheduledDate       *time.Time
	ScheduledTimeWindow *string
	QuoteAmount         *int64
	InvoiceNumber       *string

	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
