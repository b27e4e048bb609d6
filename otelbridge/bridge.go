// Package otelbridge adapts OpenTelemetry spans to spanflow's tracer
// capability surface.
//
// OpenTelemetry deliberately has no ambient span state outside
// context.Context; the bridge supplies the ambient surface spanflow
// needs as a per-instance activation stack. It pairs with spans from any
// otel TracerProvider.
package otelbridge

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/spanflow/spanflow"
	"github.com/spanflow/spanflow/internal/scopestack"
)

// Tracer implements spanflow.Tracer over trace.Span handles.
// Safe for concurrent use by multiple goroutines.
type Tracer struct {
	stack scopestack.Stack
}

// New creates an empty bridge.
func New() *Tracer {
	return &Tracer{}
}

func (t *Tracer) ActiveSpan() spanflow.Span {
	top, ok := t.stack.Top()
	if !ok {
		return nil
	}
	return top
}

// Activate marks span current until the returned scope closes. Activating
// anything but a trace.Span panics. finishOnClose ends the span via End.
func (t *Tracer) Activate(span spanflow.Span, finishOnClose bool) spanflow.Scope {
	sp := span.(trace.Span)
	return &scope{
		stack:  &t.stack,
		entry:  t.stack.Push(sp),
		span:   sp,
		finish: finishOnClose,
	}
}

// Depth returns the number of scopes currently open.
func (t *Tracer) Depth() int {
	return t.stack.Depth()
}

type scope struct {
	stack  *scopestack.Stack
	entry  *scopestack.Entry
	span   trace.Span
	finish bool
}

func (s *scope) Close() {
	if !s.stack.Remove(s.entry) {
		return
	}
	if s.finish {
		s.span.End()
	}
}
