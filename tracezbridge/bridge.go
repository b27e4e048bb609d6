// Package tracezbridge adapts tracez active spans to spanflow's tracer
// capability surface.
package tracezbridge

import (
	"github.com/zoobzio/tracez"

	"github.com/spanflow/spanflow"
	"github.com/spanflow/spanflow/internal/scopestack"
)

// Tracer implements spanflow.Tracer over *tracez.ActiveSpan handles.
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
// anything but a *tracez.ActiveSpan panics. finishOnClose finishes the
// span when the scope closes; tracez tolerates a later duplicate Finish.
func (t *Tracer) Activate(span spanflow.Span, finishOnClose bool) spanflow.Scope {
	sp := span.(*tracez.ActiveSpan)
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
	span   *tracez.ActiveSpan
	finish bool
}

func (s *scope) Close() {
	if !s.stack.Remove(s.entry) {
		return
	}
	if s.finish {
		s.span.Finish()
	}
}
