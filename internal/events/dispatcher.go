package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// AsyncDispatcher runs handlers on a fixed pool of workers, detached
// from the publishing request: cancellation of the inbound request does
// not cancel handler execution, and a failing handler never affects the
// publisher. When the queue is full the event is dropped and logged;
// delivery is fire-and-forget, there is no retry.
type AsyncDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler

	queue  chan Event
	wg     sync.WaitGroup
	once   sync.Once
	logger *zap.Logger
}

// NewAsyncDispatcher creates a dispatcher with the given worker count
// and queue length.
func NewAsyncDispatcher(workers, queueLength int, logger *zap.Logger) *AsyncDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueLength <= 0 {
		queueLength = 64
	}
	d := &AsyncDispatcher{
		listeners: make(map[EventType][]EventHandler),
		queue:     make(chan Event, queueLength),
		logger:    logger,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Publish enqueues the event for asynchronous handling. It never
// blocks the caller and never returns a handler error.
func (d *AsyncDispatcher) Publish(_ context.Context, event Event) error {
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("event queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("work_order_id", event.WorkOrderID))
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *AsyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

func (d *AsyncDispatcher) worker() {
	defer d.wg.Done()
	for event := range d.queue {
		d.mu.RLock()
		handlers := append([]EventHandler{}, d.listeners[event.Type]...)
		d.mu.RUnlock()

		// Handlers get a fresh context: they outlive the request that
		// published the event.
		for _, handler := range handlers {
			if err := handler(context.Background(), event); err != nil {
				d.logger.Warn("event handler failed",
					zap.String("event_type", string(event.Type)),
					zap.String("work_order_id", event.WorkOrderID),
					zap.Error(err))
			}
		}
	}
}

// Close stops accepting events and waits for in-flight handlers.
func (d *AsyncDispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}
