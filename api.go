// Package spanflow propagates an already-active tracing span across the
// signal boundaries of a push-based stream pipeline.
//
// spanflow never starts, samples, or finishes spans. It borrows whatever
// span is in scope when a pipeline stage is assembled and re-activates it
// around each signal the stage delivers, so work performed inside operators
// is attributed to the correct span even though it runs off the call stack
// that created it.
//
// Core Components:.
//   - Context: immutable key-value map carried between stages.
//   - TracedSubscriber: decorator bracketing each signal with a scope.
//   - Operator: pipeline transform installing the decorator at every stage.
//   - Hooks: per-pipeline registry of stage transforms.
//
// Basic Usage:.
//
//	tracer := otbridge.New()
//	scope := tracer.Activate(span, false)
//	defer scope.Close()
//
//	traced := spanflow.Operator[Order](tracer)
//	traced(source).Subscribe(downstream)
//
// Tracing backends plug in through the Tracer capability surface; bridges
// for OpenTracing, OpenTelemetry, and tracez live in their own packages.
//
// Thread Safety:.
//
// A TracedSubscriber adds no serialization of its own. Signals may arrive
// on any goroutine, concurrently from independent directions, and the
// decorator forwards them exactly as received, relying on the host stream
// runtime's own signal discipline. The only shared state it touches is the
// tracer's ambient active span, which it pushes and pops in matched pairs
// around each forwarded call.
package spanflow

import "math"

// Key is a propagation context key.
type Key = string

// Unbounded is the request sentinel for unlimited demand.
const Unbounded int64 = math.MaxInt64

// Span is an opaque, tracer-owned handle to one unit of traced work.
// spanflow never inspects it; it only hands it back to the tracer for
// activation. A nil Span means "no span". Tracer implementations must
// return an untyped nil from ActiveSpan when nothing is active, never a
// typed nil wrapped in the interface.
type Span any

// Scope marks a span active for a bounded duration. Close releases the
// activation and must be called exactly once per activation, on every
// exit path.
type Scope interface {
	Close()
}

// Tracer is the capability surface spanflow needs from a tracing backend.
type Tracer interface {
	// ActiveSpan returns the span currently active in the tracer's
	// ambient state, or nil.
	ActiveSpan() Span

	// Activate marks span as the active one until the returned Scope is
	// closed. finishOnClose additionally ends the span's lifetime when
	// the scope closes; spanflow always passes false.
	Activate(span Span, finishOnClose bool) Scope
}

// Subscriber receives stream signals pushed by an upstream stage.
type Subscriber[T any] interface {
	OnSubscribe(Subscription)
	OnNext(T)
	OnError(error)
	OnComplete()
}

// Subscription controls demand and cancellation for one subscriber.
type Subscription interface {
	// Request grants the upstream n more emission credits. n must be
	// positive; Unbounded disables back-pressure.
	Request(n int64)

	// Cancel tells the upstream to stop emitting.
	Cancel()
}

// Publisher is a push-based source of elements.
type Publisher[T any] interface {
	Subscribe(Subscriber[T])
}

// SpanSubscription unifies the subscriber and subscription roles into one
// object and exposes the propagation context resolved for the stage, so a
// single decorator can stand in for both directions of a stage boundary.
type SpanSubscription[T any] interface {
	Subscriber[T]
	Subscription

	// CurrentContext returns the stage's outbound propagation context.
	CurrentContext() Context
}
