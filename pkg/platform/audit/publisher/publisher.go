// Package publisher fronts an audit store with optional asynchronous
// buffering and downstream sinks.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "atelier/pkg/domain"
	audit "atelier/pkg/platform/audit"
	"atelier/pkg/platform/audit/worker"
)

// ErrBufferFull is returned in async mode when the event cannot be queued.
var ErrBufferFull = errors.New("audit buffer full")

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("audit publisher closed")

type Publisher struct {
	store  audit.Store
	sinks  []audit.Sink
	logger *slog.Logger
	now    func() time.Time

	bufferSize int
	events     chan audit.Event
	worker     *worker.Worker
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
}

type Option func(*Publisher)

// WithAsyncBuffer queues events on a buffered channel drained by a background
// worker. Without it, Emit writes synchronously.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.bufferSize = size
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithSink forwards every persisted event to sink.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.bufferSize > 0 {
		p.events = make(chan audit.Event, p.bufferSize)
		p.worker = worker.NewWorker(p.store, p.events, p.logger, p.sinks...)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.worker.Run(context.Background())
		}()
	}
	return p
}

// Emit stamps and records an event. In async mode a full buffer drops the
// event with ErrBufferFull rather than blocking the caller.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.events == nil {
		if err := p.store.Append(ctx, event); err != nil {
			return err
		}
		for _, sink := range p.sinks {
			if err := sink.Append(ctx, event); err != nil && p.logger != nil {
				p.logger.WarnContext(ctx, "audit sink append failed", "action", event.Action, "error", err)
			}
		}
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event", "action", event.Action)
		}
		return ErrBufferFull
	}
}

func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close stops accepting async events and waits for the buffer to drain.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed || p.events == nil {
		p.closed = true
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()
	p.wg.Wait()
}
