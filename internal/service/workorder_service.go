package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/events"
	"github.com/spec-kit/workorder-service/internal/repository"
	"github.com/spec-kit/workorder-service/internal/workflow"
	"github.com/spec-kit/workorder-service/pkg/util"
)

// Actor identifies the authenticated caller for service operations.
type Actor struct {
	ID   string
	Role domain.Role
}

// WorkOrderService coordinates work order lifecycle updates.
type WorkOrderService struct {
	orders       repository.WorkOrderRepository
	comments     repository.CommentRepository
	statusEvents repository.StatusEventRepository
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// WorkOrderDependencies bundles collaborators for the service.
type WorkOrderDependencies struct {
	OrderRepo       repository.WorkOrderRepository
	CommentRepo     repository.CommentRepository
	StatusEventRepo repository.StatusEventRepository
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// CreateInput describes work order creation payload.
type CreateInput struct {
	OrgID       string
	BuildingID  string
	SpaceID     *string
	Severity    domain.Severity
	Category    domain.Category
	Description string
}

// UpdateInput is the lifecycle patch. Nil fields are untouched. All
// fields other than Status and DeclineReason are restricted to
// platform staff.
type UpdateInput struct {
	Status              *domain.Status
	AssignedTechnician  *string
	ScheduledDate       *time.Time
	ScheduledTimeWindow *string
	QuoteAmount         *int64
	InvoiceNumber       *string
	DeclineReason       *string
}

func (in UpdateInput) hasRestrictedFields() bool {
	return in.AssignedTechnician != nil ||
		in.ScheduledDate != nil ||
		in.ScheduledTimeWindow != nil ||
		in.QuoteAmount != nil ||
		in.InvoiceNumber != nil
}

// NewWorkOrderService constructs the service.
func NewWorkOrderService(deps WorkOrderDependencies) *WorkOrderService {
	return &WorkOrderService{
		orders:       deps.OrderRepo,
		comments:     deps.CommentRepo,
		statusEvents: deps.StatusEventRepo,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
	}
}

// Create opens a new work order in the NEW status.
func (s *WorkOrderService) Create(ctx context.Context, actor Actor, input CreateInput) (*domain.WorkOrder, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, util.NewValidationError("description is required", nil)
	}
	if input.OrgID == "" || input.BuildingID == "" {
		return nil, util.NewValidationError("org_id and building_id are required", nil)
	}

	order := &domain.WorkOrder{
		OrgID:       input.OrgID,
		BuildingID:  input.BuildingID,
		SpaceID:     input.SpaceID,
		RequesterID: actor.ID,
		Status:      domain.StatusNew,
		Severity:    input.Severity,
		Category:    input.Category,
		Description: description,
	}
	if order.Severity == "" {
		order.Severity = domain.SeverityStandard
	}
	if order.Category == "" {
		order.Category = domain.CategoryOther
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventWorkOrderCreated,
		WorkOrderID: order.ID,
		Actor:       events.Actor{AccountID: actor.ID, Role: actor.Role},
		Payload: events.WorkOrderCreatedPayload{
			Number:      order.Number,
			OrgID:       order.OrgID,
			BuildingID:  order.BuildingID,
			RequesterID: order.RequesterID,
			Severity:    order.Severity,
			Category:    order.Category,
			Description: order.Description,
		},
	})
	return order, nil
}

// Get fetches a single work order. The row is assumed already
// tenancy-filtered upstream.
func (s *WorkOrderService) Get(ctx context.Context, id string) (*domain.WorkOrder, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("work order")
		}
		return nil, err
	}
	return order, nil
}

// List returns work orders matching the filter.
func (s *WorkOrderService) List(ctx context.Context, filter repository.WorkOrderFilter) ([]domain.WorkOrder, error) {
	return s.orders.ListWithFilter(ctx, filter)
}

// Update applies a lifecycle patch. Authorization checks run before
// any write; a rejected patch leaves the stored row untouched. The
// status re-check is part of the write predicate, so two racing
// updates cannot both succeed from the same starting status.
func (s *WorkOrderService) Update(ctx context.Context, actor Actor, id string, input UpdateInput) (*domain.WorkOrder, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("work order")
		}
		return nil, err
	}

	currentStatus := order.Status
	statusChanging := input.Status != nil && *input.Status != currentStatus
	if statusChanging {
		if !workflow.CanTransition(currentStatus, *input.Status, actor.Role) {
			return nil, util.NewInvalidTransition(currentStatus, *input.Status, actor.Role,
				workflow.AllowedTransitions(currentStatus, actor.Role))
		}
	}

	if input.hasRestrictedFields() && !workflow.CanEditRestrictedFields(actor.Role) {
		return nil, util.NewForbidden("restricted fields may only be changed by platform staff")
	}

	if !statusChanging && !input.hasRestrictedFields() {
		return nil, util.NewNoChanges()
	}

	if input.AssignedTechnician != nil {
		order.AssignedTechnician = input.AssignedTechnician
	}
	if input.ScheduledDate != nil {
		order.ScheduledDate = input.ScheduledDate
	}
	if input.ScheduledTimeWindow != nil {
		order.ScheduledTimeWindow = input.ScheduledTimeWindow
	}
	if input.QuoteAmount != nil {
		order.QuoteAmount = input.QuoteAmount
	}
	if input.InvoiceNumber != nil {
		order.InvoiceNumber = input.InvoiceNumber
	}
	if statusChanging {
		order.Status = *input.Status
		if *input.Status == domain.StatusCompleted && order.CompletedAt == nil {
			now := time.Now()
			order.CompletedAt = &now
		}
	}

	if err := s.orders.UpdateGuarded(ctx, order, currentStatus, actor.Role); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, util.NewNotFound("work order")
		case errors.Is(err, repository.ErrStaleStatus):
			return nil, util.NewConflict("work order was modified concurrently")
		default:
			return nil, err
		}
	}

	if statusChanging {
		s.recordTransition(ctx, actor, order, currentStatus, input)
	}
	return order, nil
}

func (s *WorkOrderService) recordTransition(ctx context.Context, actor Actor, order *domain.WorkOrder, oldStatus domain.Status, input UpdateInput) {
	var note *string
	declineReason := ""
	if input.DeclineReason != nil {
		declineReason = strings.TrimSpace(*input.DeclineReason)
	}

	if order.Status == domain.StatusCancelled && declineReason != "" {
		note = &declineReason
		comment := &domain.Comment{
			WorkOrderID: order.ID,
			AuthorID:    actor.ID,
			AuthorRole:  actor.Role,
			Body:        "Decline reason: " + declineReason,
			Internal:    false,
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			s.logger.Warn("failed to record decline reason comment",
				zap.String("work_order_id", order.ID), zap.Error(err))
		}
	}

	event := &domain.StatusChangeEvent{
		WorkOrderID: order.ID,
		OldStatus:   oldStatus,
		NewStatus:   order.Status,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Note:        note,
	}
	if err := s.statusEvents.Create(ctx, event); err != nil {
		s.logger.Warn("failed to append status change event",
			zap.String("work_order_id", order.ID), zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventWorkOrderStatusChanged,
		WorkOrderID: order.ID,
		Actor:       events.Actor{AccountID: actor.ID, Role: actor.Role},
		Payload: events.WorkOrderStatusChangedPayload{
			Number:      order.Number,
			OrgID:       order.OrgID,
			RequesterID: order.RequesterID,
			OldStatus:   oldStatus,
			NewStatus:   order.Status,
			Note:        declineReason,
		},
	})
}

func (s *WorkOrderService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
