package integration

import (
	"testing"

	"github.com/opentracing/opentracing-go/mocktracer"

	"github.com/spanflow/spanflow"
	"github.com/spanflow/spanflow/otbridge"
	"github.com/spanflow/spanflow/streamtest"
)

// A pipeline assembled under an open scope must attribute every delivery
// to that scope's span, across any number of operator boundaries, without
// finishing it.
func TestOpenTracingPipeline(t *testing.T) {
	mt := mocktracer.New()
	bridge := otbridge.New()

	span := mt.StartSpan("checkout")
	scope := bridge.Activate(span, false)

	pipe := streamtest.NewPipe[string]()
	lift := spanflow.Operator[string](bridge)
	traced := lift(lift(lift(pipe)))

	rec := streamtest.NewRecorder[string]().
		ObserveActive(bridge).
		AutoRequest(spanflow.Unbounded)
	traced.Subscribe(rec)
	scope.Close()

	pipe.Push("item-1")
	pipe.Push("item-2")
	pipe.Complete()

	values := rec.Values()
	if len(values) != 2 || values[0] != "item-1" || values[1] != "item-2" {
		t.Errorf("Expected payloads unchanged, got %v", values)
	}
	for _, e := range rec.Events() {
		if e.Signal == streamtest.SignalNext && e.Active != span {
			t.Errorf("Expected checkout span active during %v, got %v", e.Value, e.Active)
		}
	}

	// The operator only borrows the span; finishing stays with the caller.
	if len(mt.FinishedSpans()) != 0 {
		t.Fatalf("Expected no finished spans, got %d", len(mt.FinishedSpans()))
	}
	if depth := bridge.Depth(); depth != 0 {
		t.Errorf("Expected all scopes released, depth %d", depth)
	}

	span.Finish()
	if len(mt.FinishedSpans()) != 1 {
		t.Errorf("Expected explicit finish to work, got %d", len(mt.FinishedSpans()))
	}
}

// An explicit span in one stage's context must shadow the ambient one for
// that stage and everything downstream of it.
func TestExplicitContextPrecedenceAcrossStages(t *testing.T) {
	tracer := streamtest.NewTracer()
	ambient := &struct{ name string }{"ambient"}
	explicit := &struct{ name string }{"explicit"}

	seed := tracer.Activate(ambient, false)

	pipe := streamtest.NewPipe[int]()
	rec := streamtest.NewRecorder[int]().
		WithContext(spanflow.WithSpan(spanflow.Empty(), explicit)).
		ObserveActive(tracer).
		AutoRequest(spanflow.Unbounded)

	lift := spanflow.Operator[int](tracer)
	lift(lift(pipe)).Subscribe(rec)
	seed.Close()

	pipe.Push(1)

	events := rec.Events()
	last := events[len(events)-1]
	if last.Active != explicit {
		t.Errorf("Expected explicit span to win across stages, got %v", last.Active)
	}
	// Everything past the seed came from the decorators and must have
	// activated the explicit span, never the ambient one.
	activations := tracer.Activations()
	if len(activations) < 2 {
		t.Fatalf("Expected decorator activations beyond the seed, got %d", len(activations))
	}
	if activations[0].Span != ambient {
		t.Fatalf("Expected the seed activation first, got %v", activations[0].Span)
	}
	for i, a := range activations[1:] {
		if a.Span != explicit {
			t.Errorf("Activation %d used %v, want the explicit span", i+1, a.Span)
		}
	}
}

// With hooks registered once per pipeline, every stage a later transform
// adds is traced too.
func TestHooksCoverWholePipeline(t *testing.T) {
	tracer := streamtest.NewTracer()
	span := &struct{ name string }{"job"}
	seed := tracer.Activate(span, false)

	var hooks spanflow.Hooks[int]
	hooks.OnEachStage(spanflow.Operator[int](tracer))

	rec := streamtest.NewRecorder[int]().
		ObserveActive(tracer).
		AutoRequest(spanflow.Unbounded)
	hooks.Apply(streamtest.FromSlice(1, 2, 3)).Subscribe(rec)
	seed.Close()

	values := rec.Values()
	if len(values) != 3 {
		t.Fatalf("Expected 3 values, got %v", values)
	}
	next := 0
	for _, e := range rec.Events() {
		if e.Signal != streamtest.SignalNext {
			continue
		}
		next++
		if e.Active != span {
			t.Errorf("Expected job span active during %v, got %v", e.Value, e.Active)
		}
	}
	if next != 3 {
		t.Errorf("Expected 3 next events, got %d", next)
	}
}
