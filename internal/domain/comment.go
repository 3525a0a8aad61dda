package domain

import "time"

// Comment is a discussion entry on a work order. Created once, never
// mutated or deleted. Internal comments are visible to platform staff
// only and must be omitted entirely from other readers' result sets.
type Comment struct {
	ID          string
	WorkOrderID string
	AuthorID    string
	AuthorRole  Role
	Body        string
	Internal    bool
	CreatedAt   time.Time
}
