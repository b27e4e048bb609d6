// Package otbridge adapts OpenTracing spans to spanflow's tracer
// capability surface.
//
// opentracing-go has no ambient scope manager, so the bridge supplies
// one: each bridge instance keeps its own stack of activations, and the
// most recent one still open is the active span.
package otbridge

import (
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/spanflow/spanflow"
	"github.com/spanflow/spanflow/internal/scopestack"
)

// Tracer implements spanflow.Tracer over opentracing.Span handles.
// Safe for concurrent use by multiple goroutines.
type Tracer struct {
	stack scopestack.Stack
}

// New creates an empty bridge.
func New() *Tracer {
	return &Tracer{}
}

// ActiveSpan returns the most recently activated span still in scope.
func (t *Tracer) ActiveSpan() spanflow.Span {
	top, ok := t.stack.Top()
	if !ok {
		return nil
	}
	return top
}

// Activate marks span current until the returned scope closes. Activating
// anything but an opentracing.Span panics.
func (t *Tracer) Activate(span spanflow.Span, finishOnClose bool) spanflow.Scope {
	sp := span.(opentracing.Span)
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
	span   opentracing.Span
	finish bool
}

// Close releases the activation. Only the first Close has any effect.
func (s *scope) Close() {
	if !s.stack.Remove(s.entry) {
		return
	}
	if s.finish {
		s.span.Finish()
	}
}
