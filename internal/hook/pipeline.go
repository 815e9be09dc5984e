package hook

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Subscriber reacts to a published context. It returns the context to hand to
// the next subscriber; returning the input unchanged is a pure observation.
type Subscriber func(ctx context.Context, hc Context) (Context, error)

type subscription struct {
	id string
	fn Subscriber
}

// Pipeline dispatches hook contexts to subscribers.
//
// Subscribers for a name run synchronously, in registration order, on the
// publisher's goroutine. Subscribe is safe to call concurrently with Publish;
// a publish sees the subscriber list as it was when the publish began.
type Pipeline struct {
	mu     sync.RWMutex
	subs   map[Name][]subscription
	logger *zap.Logger
	tracer trace.Tracer
}

// NewPipeline creates an empty Pipeline.
//
// Precondition: logger must be non-nil.
func NewPipeline(logger *zap.Logger) *Pipeline {
	return &Pipeline{
		subs:   make(map[Name][]subscription),
		logger: logger,
		tracer: otel.Tracer("github.com/cory-johannsen/resfight/internal/hook"),
	}
}

// Subscribe appends fn to the subscribers of name.
//
// Precondition: id must be non-empty; fn must be non-nil.
func (p *Pipeline) Subscribe(name Name, id string, fn Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[name] = append(p.subs[name], subscription{id: id, fn: fn})
}

// Subscribers returns the ids subscribed to name, in invocation order.
func (p *Pipeline) Subscribers(name Name) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.subs[name]))
	for _, s := range p.subs[name] {
		ids = append(ids, s.id)
	}
	return ids
}

// Publish runs every subscriber of hc.HookName() in order and returns the
// final context.
//
// A failing subscriber does not stop the chain: its error is recorded, the
// context it was given is passed on, and all errors are joined into the
// returned error. A subscriber returning a nil context is treated as having
// returned its input.
//
// Postcondition: The returned context is never nil.
func (p *Pipeline) Publish(ctx context.Context, hc Context) (Context, error) {
	name := hc.HookName()

	p.mu.RLock()
	subs := append([]subscription(nil), p.subs[name]...)
	p.mu.RUnlock()

	ctx, span := p.tracer.Start(ctx, "hook.publish",
		trace.WithAttributes(
			attribute.String("hook.name", string(name)),
			attribute.Int("hook.subscribers", len(subs)),
		),
	)
	defer span.End()

	var errs []error
	cur := hc
	for _, s := range subs {
		next, err := s.fn(ctx, cur)
		if err != nil {
			p.logger.Warn("hook subscriber failed",
				zap.String("hook", string(name)),
				zap.String("subscriber", s.id),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("subscriber %s: %w", s.id, err))
			continue
		}
		if next != nil {
			cur = next
		}
	}

	p.logger.Debug("hook published",
		zap.String("hook", string(name)),
		zap.Int("subscribers", len(subs)),
		zap.Int("errors", len(errs)),
	)

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "subscriber failed")
	}
	return cur, err
}

// Publish is the typed form of Pipeline.Publish.
//
// Postcondition: Returns an error if any subscriber failed or if the final
// context is not a T; in the latter case the original hc is returned.
func Publish[T Context](ctx context.Context, p *Pipeline, hc T) (T, error) {
	out, err := p.Publish(ctx, hc)
	typed, ok := out.(T)
	if !ok {
		return hc, errors.Join(err, fmt.Errorf("hook %s: subscriber returned %T, want %T", hc.HookName(), out, hc))
	}
	return typed, err
}
