package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish after Stop
var ErrBusStopped = errors.New("event bus stopped")

// InMemoryEventBus dispatches domain events to registered handlers.
// Handler failures are logged and counted; they never reach the publisher.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	queue    chan envelope
	workers  int
	stopped  atomic.Bool
	failures atomic.Int64
	wg       sync.WaitGroup
	stopOnce sync.Once
}

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// BusOption configures an InMemoryEventBus
type BusOption func(*InMemoryEventBus)

// WithAsyncDispatch hands events to a pool of workers through a buffered
// queue. Publish blocks only when the queue is full.
func WithAsyncDispatch(workers, buffer int) BusOption {
	return func(b *InMemoryEventBus) {
		if workers < 1 {
			workers = 1
		}
		b.workers = workers
		b.queue = make(chan envelope, buffer)
	}
}

// NewInMemoryEventBus creates a bus. Without options dispatch is synchronous.
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &InMemoryEventBus{registry: NewHandlerRegistry(), logger: logger}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers events to their handlers
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.stopped.Load() {
		return ErrBusStopped
	}
	for _, event := range events {
		if b.queue == nil {
			b.dispatch(ctx, event)
			continue
		}
		// detach from request cancellation, keep the logger and trace values
		env := envelope{ctx: context.WithoutCancel(ctx), event: event}
		select {
		case b.queue <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, or for handler.EventTypes()
// when none are given
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler from every event type
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start launches the async workers, if any
func (b *InMemoryEventBus) Start(_ context.Context) error {
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.work()
	}
	b.logger.Info("Event bus started", zap.Int("workers", b.workers))
	return nil
}

// Stop rejects new events and drains the queue until ctx is done
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() {
		b.stopped.Store(true)
		if b.queue != nil {
			close(b.queue)
		}
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("Event bus stopped", zap.Int64("handler_failures", b.failures.Load()))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Failures returns how many handler invocations failed or panicked
func (b *InMemoryEventBus) Failures() int64 {
	return b.failures.Load()
}

func (b *InMemoryEventBus) work() {
	defer b.wg.Done()
	for env := range b.queue {
		b.dispatch(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, event shared.DomainEvent) {
	for _, handler := range b.registry.Handlers(event.EventType()) {
		if err := b.invoke(ctx, handler, event); err != nil {
			b.failures.Add(1)
			b.logger.Error("Event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.Error(err),
			)
		}
	}
}

func (b *InMemoryEventBus) invoke(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("handler panicked")
			b.logger.Error("Event handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
