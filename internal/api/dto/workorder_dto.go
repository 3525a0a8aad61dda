package dto

import (
	"time"

	"github.com/spec-kit/workorder-service/internal/domain"
)

// CreateWorkOrderRequest payload.
type CreateWorkOrderRequest struct {
	OrgID       string          `json:"org_id"`
	BuildingID  string          `json:"building_id"`
	SpaceID     *string         `json:"space_id"`
	Severity    domain.Severity `json:"severity"`
	Category    domain.Category `json:"category"`
	Description string          `json:"description"`
}

// UpdateWorkOrderRequest is the lifecycle patch. Absent fields are
// untouched.
type UpdateWorkOrderRequest struct {
	Status              *domain.Status `json:"status"`
	AssignedTechnician  *string        `json:"assigned_technician"`
	ScheduledDate       *time.Time     `json:"scheduled_date"`
	ScheduledTimeWindow *string        `json:"scheduled_time_window"`
	QuoteAmount         *int64         `json:"quote_amount"`
	InvoiceNumber       *string        `json:"invoice_number"`
	DeclineReason       *string        `json:"decline_reason"`
}

// WorkOrderResponse full work order info.
type WorkOrderResponse struct {
	ID                  string          `json:"id"`
	Number              string          `json:"number"`
	OrgID               string          `json:"org_id"`
	BuildingID          string          `json:"building_id"`
	SpaceID             *string         `json:"space_id"`
	RequesterID         string          `json:"requester_id"`
	Status              domain.Status   `json:"status"`
	Severity            domain.Severity `json:"severity"`
	Category            domain.Category `json:"category"`
	Description         string          `json:"description"`
	AssignedTechnician  *string         `json:"assigned_technician"`
	ScheduledDate       *time.Time      `json:"scheduled_date"`
	ScheduledTimeWindow *string         `json:"scheduled_time_window"`
	QuoteAmount         *int64          `json:"quote_amount"`
	InvoiceNumber       *string         `json:"invoice_number"`
	CompletedAt         *time.Time      `json:"completed_at"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body       string `json:"body"`
	IsInternal bool   `json:"is_internal"`
}

// CommentResponse represents one discussion entry.
type CommentResponse struct {
	ID         string      `json:"id"`
	AuthorID   string      `json:"author_id"`
	AuthorRole domain.Role `json:"author_role"`
	Body       string      `json:"body"`
	IsInternal bool        `json:"is_internal"`
	CreatedAt  time.Time   `json:"created_at"`
}

// RegisterAttachmentRequest describes one already-uploaded object.
type RegisterAttachmentRequest struct {
	StoragePath string `json:"storage_path"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// RegisterAttachmentsBatchRequest registers several files at once.
type RegisterAttachmentsBatchRequest struct {
	Files []RegisterAttachmentRequest `json:"files"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID          string    `json:"id"`
	WorkOrderID string    `json:"work_order_id"`
	UploaderID  string    `json:"uploader_id"`
	StoragePath string    `json:"storage_path"`
	FileName    string    `json:"file_name"`
	MimeType    string    `json:"mime_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// AttachmentBatchItemResponse reports one file's outcome.
type AttachmentBatchItemResponse struct {
	FileName   string              `json:"file_name"`
	Attachment *AttachmentResponse `json:"attachment,omitempty"`
	Error      *ErrorBody          `json:"error,omitempty"`
}

// ErrorBody mirrors the error envelope for per-item reporting.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
