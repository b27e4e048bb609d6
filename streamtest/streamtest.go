// Package streamtest provides fixtures for exercising traced pipelines:
// a signal-recording subscriber, demand-honoring publishers, and an
// in-memory tracer that logs every activation window.
package streamtest

import (
	"time"

	"github.com/spanflow/spanflow"
)

// Signal identifies one stream event kind.
type Signal string

const (
	SignalSubscribe Signal = "subscribe"
	SignalNext      Signal = "next"
	SignalError     Signal = "error"
	SignalComplete  Signal = "complete"
)

// Event is one recorded signal delivery.
type Event[T any] struct {
	Value  T
	Err    error
	Active spanflow.Span // tracer's active span observed at delivery
	Signal Signal
}

// Activation is one recorded activation window of the fixture Tracer.
type Activation struct {
	ActivatedAt   time.Time
	ReleasedAt    time.Time
	Span          spanflow.Span
	FinishOnClose bool
	Released      bool
}
