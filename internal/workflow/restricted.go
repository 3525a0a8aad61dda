package workflow

import "github.com/spec-kit/workorder-service/internal/domain"

// RestrictedField names a work-order field mutable only by platform staff.
type RestrictedField string

const (
	FieldAssignedTechnician  RestrictedField = "assigned_technician"
	FieldScheduledDate       RestrictedField = "scheduled_date"
	FieldScheduledTimeWindow RestrictedField = "scheduled_time_window"
	FieldQuoteAmount         RestrictedField = "quote_amount"
	FieldInvoiceNumber       RestrictedField = "invoice_number"
)

// CanEditRestrictedFields reports whether the role may touch any
// restricted field.
func CanEditRestrictedFields(role domain.Role) bool {
	return role == domain.RolePlatformAdmin
}
