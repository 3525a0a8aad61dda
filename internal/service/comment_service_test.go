package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/events"
	"github.com/spec-kit/workorder-service/internal/service"
	"github.com/spec-kit/workorder-service/pkg/util"
)

type commentFixture struct {
	svc        *service.CommentService
	orders     *fakeWorkOrderRepo
	comments   *fakeCommentRepo
	dispatcher *capturingDispatcher
	order      domain.WorkOrder
}

func newCommentFixture() *commentFixture {
	orders := newFakeWorkOrderRepo()
	comments := &fakeCommentRepo{}
	dispatcher := &capturingDispatcher{}
	order := orders.seed(domain.WorkOrder{
		OrgID:       "org-1",
		BuildingID:  "bld-1",
		RequesterID: endUser.ID,
		Status:      domain.StatusSurveying,
		Severity:    domain.SeverityStandard,
		Category:    domain.CategoryHVAC,
		Description: "broken radiator",
	})
	return &commentFixture{
		svc:        service.NewCommentService(orders, comments, dispatcher),
		orders:     orders,
		comments:   comments,
		dispatcher: dispatcher,
		order:      order,
	}
}

func TestInternalCommentForbiddenForOrgStaff(t *testing.T) {
	f := newCommentFixture()

	for _, actor := range []service.Actor{orgAdmin, orgMember, endUser} {
		_, err := f.svc.Create(context.Background(), actor, f.order.ID, "internal note", true)
		assert.True(t, util.IsCode(err, util.CodeForbidden), "role %s", actor.Role)
	}

	// The gate runs before any write.
	assert.Empty(t, f.comments.all())
	assert.Empty(t, f.dispatcher.ofType(events.EventCommentAdded))
}

func TestInternalCommentByPlatformStaffStaysOffTheBus(t *testing.T) {
	f := newCommentFixture()

	comment, err := f.svc.Create(context.Background(), platformAdmin, f.order.ID, "vendor quoted 450", true)
	require.NoError(t, err)
	assert.True(t, comment.Internal)

	assert.Len(t, f.comments.all(), 1)
	assert.Empty(t, f.dispatcher.ofType(events.EventCommentAdded))
}

func TestPublicCommentPublishesPreview(t *testing.T) {
	f := newCommentFixture()

	longBody := strings.Repeat("status update ", 20)
	comment, err := f.svc.Create(context.Background(), orgAdmin, f.order.ID, longBody, false)
	require.NoError(t, err)

	published := f.dispatcher.ofType(events.EventCommentAdded)
	require.Len(t, published, 1)
	payload := published[0].Payload.(events.CommentAddedPayload)
	assert.Equal(t, comment.ID, payload.CommentID)
	assert.Equal(t, f.order.Number, payload.Number)
	assert.LessOrEqual(t, len(payload.BodyPreview), 120)
	assert.True(t, strings.HasSuffix(payload.BodyPreview, "..."))
}

func TestCommentRequiresBodyAndExistingOrder(t *testing.T) {
	f := newCommentFixture()

	_, err := f.svc.Create(context.Background(), orgAdmin, f.order.ID, "   ", false)
	assert.True(t, util.IsCode(err, util.CodeValidation))

	_, err = f.svc.Create(context.Background(), orgAdmin, "missing", "hello", false)
	assert.True(t, util.IsCode(err, util.CodeNotFound))
}

func TestListHidesInternalCommentsFromOrgStaff(t *testing.T) {
	f := newCommentFixture()

	_, err := f.svc.Create(context.Background(), orgAdmin, f.order.ID, "when can you come?", false)
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), platformAdmin, f.order.ID, "tenant is difficult", true)
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), platformAdmin, f.order.ID, "scheduled for Tuesday", false)
	require.NoError(t, err)

	visible, err := f.svc.List(context.Background(), orgMember, f.order.ID)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	for _, comment := range visible {
		assert.False(t, comment.Internal)
		assert.NotEqual(t, "tenant is difficult", comment.Body)
	}

	all, err := f.svc.List(context.Background(), platformAdmin, f.order.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListUnknownOrderIsNotFound(t *testing.T) {
	f := newCommentFixture()

	_, err := f.svc.List(context.Background(), orgAdmin, "missing")
	assert.True(t, util.IsCode(err, util.CodeNotFound))
}
