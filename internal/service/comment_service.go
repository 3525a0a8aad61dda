package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/events"
	"github.com/spec-kit/workorder-service/internal/repository"
	"github.com/spec-kit/workorder-service/pkg/util"
)

// CommentService gates creation and listing of work order comments.
// Internal comments exist for platform staff only: they may not be
// created by anyone else, and they are omitted from every other
// reader's result set.
type CommentService struct {
	orders     repository.WorkOrderRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(orders repository.WorkOrderRepository, comments repository.CommentRepository, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{orders: orders, comments: comments, dispatcher: dispatcher}
}

// Create persists a comment after the visibility gate. A non-platform
// actor requesting an internal comment is rejected and nothing is
// persisted.
func (s *CommentService) Create(ctx context.Context, actor Actor, workOrderID, body string, internal bool) (*domain.Comment, error) {
	if internal && !actor.Role.IsPlatformStaff() {
		return nil, util.NewForbidden("internal comments may only be created by platform staff")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, util.NewValidationError("comment body is required", nil)
	}

	order, err := s.orders.GetByID(ctx, workOrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("work order")
		}
		return nil, err
	}

	comment := &domain.Comment{
		WorkOrderID: order.ID,
		AuthorID:    actor.ID,
		AuthorRole:  actor.Role,
		Body:        body,
		Internal:    internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	// Internal comments never fan out: the recipient set on the other
	// side of the trust boundary must not learn they exist.
	if !internal && s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:          uuid.NewString(),
			Type:        events.EventCommentAdded,
			WorkOrderID: order.ID,
			Actor:       events.Actor{AccountID: actor.ID, Role: actor.Role},
			Timestamp:   time.Now(),
			Payload: events.CommentAddedPayload{
				Number:      order.Number,
				OrgID:       order.OrgID,
				RequesterID: order.RequesterID,
				CommentID:   comment.ID,
				BodyPreview: preview(comment.Body, 120),
			},
		})
	}
	return comment, nil
}

// List returns the comments the actor may see. Platform staff see
// everything with true flags. Everyone else gets internal rows removed
// and, as a second safeguard, the flag forced false on what remains.
func (s *CommentService) List(ctx context.Context, actor Actor, workOrderID string) ([]domain.Comment, error) {
	if _, err := s.orders.GetByID(ctx, workOrderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("work order")
		}
		return nil, err
	}

	comments, err := s.comments.ListByWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	if actor.Role.IsPlatformStaff() {
		return comments, nil
	}

	visible := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		if comment.Internal {
			continue
		}
		comment.Internal = false
		visible = append(visible, comment)
	}
	return visible, nil
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
