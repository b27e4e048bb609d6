package streamtest

import (
	"sync"

	"github.com/spanflow/spanflow"
	"github.com/zoobzio/clockz"
)

type activation struct {
	rec Activation
}

// Tracer implements spanflow.Tracer in memory: an identity-addressed LIFO
// scope stack plus a log of every activation window, timestamped through
// an injectable clock.
// Safe for concurrent use by multiple goroutines.
type Tracer struct {
	clock clockz.Clock
	stack []*activation
	log   []*activation
	mu    sync.Mutex
}

// NewTracer creates a fixture tracer using the real clock.
func NewTracer() *Tracer {
	return &Tracer{
		clock: clockz.RealClock,
	}
}

// WithClock returns a new tracer with the specified clock.
// Enables clock injection for deterministic activation timestamps.
func (*Tracer) WithClock(clock clockz.Clock) *Tracer {
	return &Tracer{
		clock: clock,
	}
}

// ActiveSpan returns the most recently activated span still in scope.
func (t *Tracer) ActiveSpan() spanflow.Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1].rec.Span
}

// Activate pushes span onto the scope stack and records the activation.
func (t *Tracer) Activate(span spanflow.Span, finishOnClose bool) spanflow.Scope {
	a := &activation{
		rec: Activation{
			Span:          span,
			FinishOnClose: finishOnClose,
			ActivatedAt:   t.clock.Now(),
		},
	}

	t.mu.Lock()
	t.stack = append(t.stack, a)
	t.log = append(t.log, a)
	t.mu.Unlock()

	return &scope{tracer: t, a: a}
}

// Activations returns a copy of every activation recorded so far, in
// activation order.
func (t *Tracer) Activations() []Activation {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Activation, len(t.log))
	for i, a := range t.log {
		out[i] = a.rec
	}
	return out
}

// ActiveDepth returns the number of scopes currently open.
func (t *Tracer) ActiveDepth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stack)
}

// release pops a by identity. Repeated releases of the same activation
// are no-ops.
func (t *Tracer) release(a *activation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if a.rec.Released {
		return
	}
	a.rec.Released = true
	a.rec.ReleasedAt = t.clock.Now()

	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i] == a {
			copy(t.stack[i:], t.stack[i+1:])
			t.stack = t.stack[:len(t.stack)-1]
			return
		}
	}
}

type scope struct {
	tracer *Tracer
	a      *activation
}

func (s *scope) Close() {
	s.tracer.release(s.a)
}
