package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/events"
	"github.com/spec-kit/workorder-service/internal/service"
	"github.com/spec-kit/workorder-service/pkg/util"
)

type workOrderFixture struct {
	svc          *service.WorkOrderService
	orders       *fakeWorkOrderRepo
	comments     *fakeCommentRepo
	statusEvents *fakeStatusEventRepo
	dispatcher   *capturingDispatcher
}

func newWorkOrderFixture() *workOrderFixture {
	orders := newFakeWorkOrderRepo()
	comments := &fakeCommentRepo{}
	statusEvents := &fakeStatusEventRepo{}
	dispatcher := &capturingDispatcher{}
	svc := service.NewWorkOrderService(service.WorkOrderDependencies{
		OrderRepo:       orders,
		CommentRepo:     comments,
		StatusEventRepo: statusEvents,
		Dispatcher:      dispatcher,
		Logger:          zap.NewNop(),
	})
	return &workOrderFixture{
		svc:          svc,
		orders:       orders,
		comments:     comments,
		statusEvents: statusEvents,
		dispatcher:   dispatcher,
	}
}

var (
	platformAdmin = service.Actor{ID: "acc-platform", Role: domain.RolePlatformAdmin}
	orgAdmin      = service.Actor{ID: "acc-org-admin", Role: domain.RoleOrgAdmin}
	orgMember     = service.Actor{ID: "acc-org-member", Role: domain.RoleOrgMember}
	endUser       = service.Actor{ID: "acc-resident", Role: domain.RoleEndUser}
)

func seedOrder(f *workOrderFixture, status domain.Status) domain.WorkOrder {
	return f.orders.seed(domain.WorkOrder{
		OrgID:       "org-1",
		BuildingID:  "bld-1",
		RequesterID: endUser.ID,
		Status:      status,
		Severity:    domain.SeverityStandard,
		Category:    domain.CategoryPlumbing,
		Description: "leaking pipe under the sink",
	})
}

func statusOf(s domain.Status) *domain.Status { return &s }

func strOf(s string) *string { return &s }

func TestCreateAppliesDefaultsAndPublishes(t *testing.T) {
	f := newWorkOrderFixture()

	order, err := f.svc.Create(context.Background(), endUser, service.CreateInput{
		OrgID:       "org-1",
		BuildingID:  "bld-1",
		Description: "  no hot water  ",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNew, order.Status)
	assert.Equal(t, domain.SeverityStandard, order.Severity)
	assert.Equal(t, domain.CategoryOther, order.Category)
	assert.Equal(t, "no hot water", order.Description)
	assert.Equal(t, endUser.ID, order.RequesterID)
	assert.NotEmpty(t, order.Number)

	published := f.dispatcher.ofType(events.EventWorkOrderCreated)
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.WorkOrderCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, order.Number, payload.Number)
	assert.Equal(t, endUser.ID, payload.RequesterID)
}

func TestCreateRejectsBlankDescription(t *testing.T) {
	f := newWorkOrderFixture()

	_, err := f.svc.Create(context.Background(), endUser, service.CreateInput{
		OrgID:       "org-1",
		BuildingID:  "bld-1",
		Description: "   ",
	})
	assert.True(t, util.IsCode(err, util.CodeValidation))
	assert.Empty(t, f.dispatcher.ofType(events.EventWorkOrderCreated))
}

func TestUpdateUnknownOrderIsNotFound(t *testing.T) {
	f := newWorkOrderFixture()

	_, err := f.svc.Update(context.Background(), platformAdmin, "missing", service.UpdateInput{
		Status: statusOf(domain.StatusSurveying),
	})
	assert.True(t, util.IsCode(err, util.CodeNotFound))
}

func TestOrgAdminCannotScheduleButPlatformAdminCan(t *testing.T) {
	f := newWorkOrderFixture()
	order := seedOrder(f, domain.StatusNew)

	_, err := f.svc.Update(context.Background(), orgAdmin, order.ID, service.UpdateInput{
		Status: statusOf(domain.StatusScheduled),
	})
	require.True(t, util.IsCode(err, util.CodeInvalidTransition))

	domainErr := util.ToDomainError(err)
	allowed, ok := domainErr.Details["allowed_targets"].([]domain.Status)
	require.True(t, ok)
	assert.Equal(t, []domain.Status{domain.StatusCancelled}, allowed)

	// The rejected call must not have written anything.
	assert.Equal(t, domain.StatusNew, f.orders.stored(order.ID).Status)
	assert.Empty(t, f.statusEvents.all())

	updated, err := f.svc.Update(context.Background(), platformAdmin, order.ID, service.UpdateInput{
		Status: statusOf(domain.StatusScheduled),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, updated.Status)
	assert.Equal(t, domain.StatusScheduled, f.orders.stored(order.ID).Status)

	transitions := f.statusEvents.all()
	require.Len(t, transitions, 1)
	assert.Equal(t, domain.StatusNew, transitions[0].OldStatus)
	assert.Equal(t, domain.StatusScheduled, transitions[0].NewStatus)
	assert.Equal(t, platformAdmin.ID, transitions[0].ActorID)
}

func TestQuoteDeclineRecordsReasonAsComment(t *testing.T) {
	f := newWorkOrderFixture()
	order := seedOrder(f, domain.StatusWaitingApproval)

	updated, err := f.svc.Update(context.Background(), orgMember, order.ID, service.UpdateInput{
		Status:        statusOf(domain.StatusCancelled),
		DeclineReason: strOf("  Too expensive  "),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)

	comments := f.comments.all()
	require.Len(t, comments, 1)
	assert.Equal(t, "Decline reason: Too expensive", comments[0].Body)
	assert.False(t, comments[0].Internal)
	assert.Equal(t, orgMember.ID, comments[0].AuthorID)

	transitions := f.statusEvents.all()
	require.Len(t, transitions, 1)
	require.NotNil(t, transitions[0].Note)
	assert.Equal(t, "Too expensive", *transitions[0].Note)

	published := f.dispatcher.ofType(events.EventWorkOrderStatusChanged)
	require.Len(t, published, 1)
	payload := published[0].Payload.(events.WorkOrderStatusChangedPayload)
	assert.Equal(t, "Too expensive", payload.Note)
	assert.Equal(t, domain.StatusCancelled, payload.NewStatus)
}

func TestDeclineReasonIgnoredOutsideCancellation(t *testing.T) {
	f := newWorkOrderFixture()
	order := seedOrder(f, domain.StatusWaitingApproval)

	_, err := f.svc.Update(context.Background(), orgMember, order.ID, service.UpdateInput{
		Status:        statusOf(domain.StatusApproved),
		DeclineReason: strOf("should not surface"),
	})
	require.NoError(t, err)

	assert.Empty(t, f.comments.all())
	transitions := f.statusEvents.all()
	require.Len(t, transitions, 1)
	assert.Nil(t, transitions[0].Note)
}

func TestRestrictedFieldsRejectedForOrgStaff(t *testing.T) {
	f := newWorkOrderFixture()
	order := seedOrder(f, domain.StatusSurveying)

	_, err := f.svc.Update(context.Background(), orgAdmin, order.ID, service.UpdateInput{
		AssignedTechnician: strOf("Jamie"),
		QuoteAmount:        func() *int64 { v := int64(125000); return &v }(),
	})
	require.True(t, util.IsCode(err, util.CodeForbidden))

	stored := f.orders.stored(order.ID)
	assert.Nil(t, stored.AssignedTechnician)
	assert.Nil(t, stored.QuoteAmount)
	assert.Empty(t, f.dispatcher.ofType(events.EventWorkOrderStatusChanged))
}

func TestRestrictedFieldsAcceptedForPlatformAdmin(t *testing.T) {
	f := newWorkOrderFixture()
	order := seedOrder(f, domain.StatusSurveying)

	updated, err := f.svc.Update(context.Background(), platformAdmin, order.ID, service.UpdateInput{
		AssignedTechnician: strOf("Jamie"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTechnician)
	assert.Equal(t, "Jamie", *updated.AssignedTechnician)

	stored := f.orders.stored(order.ID)
	require.NotNil(t, stored.AssignedTechnician)
	assert.Equal(t, "Jamie", *stored.AssignedTechnician)
	// No status change means no transition record and no event.
	assert.Empty(t, f.statusEvents.all())
	assert.Empty(t, f.dispatcher.ofType(events.EventWorkOrderStatusChanged))
}

func TestEmptyPatchIsNoChanges(t *testing.T) {
	f := newWorkOrderFixture()
	order := seedOrder(f, domain.StatusSurveying)

	_, err := f.svc.Update(context.Background(), platformAdmin, order.ID, service.UpdateInput{})
	assert.True(t, util.IsCode(err, util.CodeNoChanges))

	// Re-sending the current status is still no change.
	_, err = f.svc.Update(context.Background(), platformAdmin, order.ID, service.UpdateInput{
		Status: statusOf(domain.StatusSurveying),
	})
	assert.True(t, util.IsCode(err, util.CodeNoChanges))
}

func TestCompletionStampsCompletedAtOnce(t *testing.T) {
	f := newWorkOrderFixture()
	order := seedOrder(f, domain.StatusInProgress)

	updated, err := f.svc.Update(context.Background(), platformAdmin, order.ID, service.UpdateInput{
		Status: statusOf(domain.StatusCompleted),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	firstStamp := *updated.CompletedAt

	updated, err = f.svc.Update(context.Background(), platformAdmin, order.ID, service.UpdateInput{
		Status: statusOf(domain.StatusInvoiced),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, firstStamp, *updated.CompletedAt)
}

func TestTerminalOrderRejectsFurtherTransitions(t *testing.T) {
	f := newWorkOrderFixture()
	order := seedOrder(f, domain.StatusCancelled)

	_, err := f.svc.Update(context.Background(), platformAdmin, order.ID, service.UpdateInput{
		Status: statusOf(domain.StatusNew),
	})
	assert.True(t, util.IsCode(err, util.CodeInvalidTransition))
}

func TestConcurrentStatusUpdatesHaveExactlyOneWinner(t *testing.T) {
	f := newWorkOrderFixture()
	order := seedOrder(f, domain.StatusScheduled)

	// Both updates read SCHEDULED before either writes; the write
	// predicate then lets only one through.
	barrier := &sync.WaitGroup{}
	barrier.Add(2)
	f.orders.readBarrier = barrier

	targets := []domain.Status{domain.StatusInProgress, domain.StatusCancelled}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		i, target := i, target
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Update(context.Background(), platformAdmin, order.ID, service.UpdateInput{
				Status: statusOf(target),
			})
		}()
	}
	wg.Wait()
	f.orders.readBarrier = nil

	var winners, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case util.IsCode(err, util.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, conflicts)

	stored := f.orders.stored(order.ID)
	assert.Contains(t, targets, stored.Status)
	assert.Len(t, f.statusEvents.all(), 1)
}

func TestGetMapsMissingRowToNotFound(t *testing.T) {
	f := newWorkOrderFixture()

	_, err := f.svc.Get(context.Background(), "missing")
	assert.True(t, util.IsCode(err, util.CodeNotFound))

	order := seedOrder(f, domain.StatusNew)
	got, err := f.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.True(t, strings.HasPrefix(got.Number, "WO-"))
}
