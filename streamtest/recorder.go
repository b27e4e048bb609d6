package streamtest

import (
	"sync"

	"github.com/spanflow/spanflow"
)

// Recorder is a subscriber that records every signal it receives, in
// order, with the payload it arrived with.
// Safe for concurrent use by multiple goroutines.
type Recorder[T any] struct {
	tracer  spanflow.Tracer
	sub     spanflow.Subscription
	events  []Event[T]
	ctx     spanflow.Context
	request int64
	mu      sync.Mutex
}

// NewRecorder creates a recorder exposing an empty propagation context,
// like any context-aware subscriber that received no explicit override.
func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{
		ctx: spanflow.Empty(),
	}
}

// ObserveActive makes the recorder snapshot tracer's active span into
// each recorded event at delivery time.
func (r *Recorder[T]) ObserveActive(tracer spanflow.Tracer) *Recorder[T] {
	r.tracer = tracer
	return r
}

// AutoRequest makes the recorder request n credits as soon as it is
// subscribed.
func (r *Recorder[T]) AutoRequest(n int64) *Recorder[T] {
	r.request = n
	return r
}

// WithContext overrides the propagation context the recorder exposes.
func (r *Recorder[T]) WithContext(ctx spanflow.Context) *Recorder[T] {
	r.ctx = ctx
	return r
}

// CurrentContext returns the recorder's exposed propagation context.
func (r *Recorder[T]) CurrentContext() spanflow.Context {
	return r.ctx
}

func (r *Recorder[T]) record(e Event[T]) {
	if r.tracer != nil {
		e.Active = r.tracer.ActiveSpan()
	}

	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder[T]) OnSubscribe(s spanflow.Subscription) {
	r.mu.Lock()
	r.sub = s
	r.mu.Unlock()

	r.record(Event[T]{Signal: SignalSubscribe})

	if r.request > 0 {
		s.Request(r.request)
	}
}

func (r *Recorder[T]) OnNext(value T) {
	r.record(Event[T]{Signal: SignalNext, Value: value})
}

func (r *Recorder[T]) OnError(err error) {
	r.record(Event[T]{Signal: SignalError, Err: err})
}

func (r *Recorder[T]) OnComplete() {
	r.record(Event[T]{Signal: SignalComplete})
}

// Subscription returns whatever subscription OnSubscribe delivered, which
// under a traced stage is the decorator itself.
func (r *Recorder[T]) Subscription() spanflow.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sub
}

// Events returns a copy of every recorded event in arrival order.
func (r *Recorder[T]) Events() []Event[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event[T], len(r.events))
	copy(out, r.events)
	return out
}

// Values returns the payloads of the recorded next signals, in order.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []T
	for _, e := range r.events {
		if e.Signal == SignalNext {
			out = append(out, e.Value)
		}
	}
	return out
}

// Signals returns the recorded signal kinds, in order.
func (r *Recorder[T]) Signals() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Signal, len(r.events))
	for i, e := range r.events {
		out[i] = e.Signal
	}
	return out
}
