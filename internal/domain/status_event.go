package domain

import "time"

// StatusChangeEvent is an append-only record of an accepted transition.
// Never updated or deleted; consumed by notification fan-out and
// timeline views.
type StatusChangeEvent struct {
	ID          string
	WorkOrderID string
	OldStatus   Status
	NewStatus   Status
	ActorID     string
	ActorRole   Role
	Note        *string
	CreatedAt   time.Time
}
