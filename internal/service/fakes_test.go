package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/events"
	"github.com/spec-kit/workorder-service/internal/repository"
)

// fakeWorkOrderRepo is an in-memory WorkOrderRepository with the same
// compare-and-set semantics as the real one.
type fakeWorkOrderRepo struct {
	mu     sync.Mutex
	orders map[string]domain.WorkOrder
	seq    int

	// readBarrier, when set, holds every GetByID call until all expected
	// readers have arrived. Lets a test force two updates to read the
	// same stale status before either writes.
	readBarrier *sync.WaitGroup
}

func newFakeWorkOrderRepo() *fakeWorkOrderRepo {
	return &fakeWorkOrderRepo{orders: make(map[string]domain.WorkOrder)}
}

func (f *fakeWorkOrderRepo) seed(order domain.WorkOrder) domain.WorkOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if order.ID == "" {
		order.ID = fmt.Sprintf("wo-%d", f.seq)
	}
	if order.Number == "" {
		order.Number = fmt.Sprintf("WO-%06d", f.seq)
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	f.orders[order.ID] = order
	return order
}

func (f *fakeWorkOrderRepo) stored(id string) domain.WorkOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id]
}

func (f *fakeWorkOrderRepo) Create(_ context.Context, order *domain.WorkOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	order.ID = fmt.Sprintf("wo-%d", f.seq)
	order.Number = fmt.Sprintf("WO-%06d", f.seq)
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeWorkOrderRepo) GetByID(_ context.Context, id string) (*domain.WorkOrder, error) {
	f.mu.Lock()
	order, ok := f.orders[id]
	f.mu.Unlock()
	if f.readBarrier != nil {
		f.readBarrier.Done()
		f.readBarrier.Wait()
	}
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := order
	return &clone, nil
}

func (f *fakeWorkOrderRepo) ListWithFilter(_ context.Context, filter repository.WorkOrderFilter) ([]domain.WorkOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.WorkOrder
	for _, order := range f.orders {
		if filter.OrgID != nil && order.OrgID != *filter.OrgID {
			continue
		}
		result = append(result, order)
	}
	return result, nil
}

func (f *fakeWorkOrderRepo) UpdateGuarded(_ context.Context, order *domain.WorkOrder, expectedStatus domain.Status, _ domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[order.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Status != expectedStatus {
		return repository.ErrStaleStatus
	}
	order.UpdatedAt = time.Now()
	f.orders[order.ID] = *order
	return nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments []domain.Comment
	err      error
}

func (f *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.seq++
	comment.ID = fmt.Sprintf("c-%d", f.seq)
	comment.CreatedAt = time.Now()
	f.comments = append(f.comments, *comment)
	return nil
}

func (f *fakeCommentRepo) ListByWorkOrder(_ context.Context, workOrderID string) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Comment
	for _, comment := range f.comments {
		if comment.WorkOrderID == workOrderID {
			result = append(result, comment)
		}
	}
	return result, nil
}

func (f *fakeCommentRepo) all() []domain.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Comment{}, f.comments...)
}

type fakeStatusEventRepo struct {
	mu     sync.Mutex
	seq    int
	events []domain.StatusChangeEvent
}

func (f *fakeStatusEventRepo) Create(_ context.Context, event *domain.StatusChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	event.ID = fmt.Sprintf("se-%d", f.seq)
	event.CreatedAt = time.Now()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeStatusEventRepo) ListByWorkOrder(_ context.Context, workOrderID string) ([]domain.StatusChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.StatusChangeEvent
	for _, event := range f.events {
		if event.WorkOrderID == workOrderID {
			result = append(result, event)
		}
	}
	return result, nil
}

func (f *fakeStatusEventRepo) all() []domain.StatusChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.StatusChangeEvent{}, f.events...)
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	seq         int
	attachments map[string]domain.Attachment
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[string]domain.Attachment)}
}

func (f *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	attachment.ID = fmt.Sprintf("a-%d", f.seq)
	attachment.CreatedAt = time.Now()
	f.attachments[attachment.ID] = *attachment
	return nil
}

func (f *fakeAttachmentRepo) GetByID(_ context.Context, id string) (*domain.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attachment, ok := f.attachments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := attachment
	return &clone, nil
}

func (f *fakeAttachmentRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.attachments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.attachments, id)
	return nil
}

func (f *fakeAttachmentRepo) ListByWorkOrder(_ context.Context, workOrderID string) ([]domain.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Attachment
	for _, attachment := range f.attachments {
		if attachment.WorkOrderID == workOrderID {
			result = append(result, attachment)
		}
	}
	return result, nil
}

func (f *fakeAttachmentRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attachments)
}

// capturingDispatcher records published events synchronously.
type capturingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *capturingDispatcher) ofType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.published {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

// fakeBlobClient records deletes and can be told to fail them.
type fakeBlobClient struct {
	mu        sync.Mutex
	deleted   []string
	deleteErr error
}

func (f *fakeBlobClient) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
	return f.deleteErr
}

func (f *fakeBlobClient) SignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://blobs.test/" + path, nil
}
