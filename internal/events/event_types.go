package events

import (
	"time"

	"github.com/spec-kit/workorder-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventWorkOrderCreated       EventType = "work_order_created"
	EventWorkOrderStatusChanged EventType = "work_order_status_changed"
	EventCommentAdded           EventType = "comment_added"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	AccountID string      `json:"account_id"`
	Role      domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	WorkOrderID string      `json:"work_order_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// WorkOrderCreatedPayload payload.
type WorkOrderCreatedPayload struct {
	Number      string          `json:"number"`
	OrgID       string          `json:"org_id"`
	BuildingID  string          `json:"building_id"`
	RequesterID string          `json:"requester_id"`
	Severity    domain.Severity `json:"severity"`
	Category    domain.Category `json:"category"`
	Description string          `json:"description"`
}

// WorkOrderStatusChangedPayload payload.
type WorkOrderStatusChangedPayload struct {
	Number      string        `json:"number"`
	OrgID       string        `json:"org_id"`
	RequesterID string        `json:"requester_id"`
	OldStatus   domain.Status `json:"old_status"`
	NewStatus   domain.Status `json:"new_status"`
	Note        string        `json:"note,omitempty"`
}

// CommentAddedPayload payload. Internal comments never reach the bus;
// the visibility gate drops them before publication.
type CommentAddedPayload struct {
	Number      string `json:"number"`
	OrgID       string `json:"org_id"`
	RequesterID string `json:"requester_id"`
	CommentID   string `json:"comment_id"`
	BodyPreview string `json:"body_preview"`
}
