package spanflow_test

import (
	"testing"

	"github.com/spanflow/spanflow"
	"github.com/spanflow/spanflow/streamtest"
)

type plainSubscriber struct {
	values []int
	done   bool
}

func (p *plainSubscriber) OnSubscribe(s spanflow.Subscription) { s.Request(spanflow.Unbounded) }
func (p *plainSubscriber) OnNext(v int)                        { p.values = append(p.values, v) }
func (p *plainSubscriber) OnError(error)                       {}
func (p *plainSubscriber) OnComplete()                         { p.done = true }

func TestOperatorSubstitutesDecorator(t *testing.T) {
	tracer := streamtest.NewTracer()

	pipe := streamtest.NewPipe[string]()
	traced := spanflow.Operator[string](tracer)(pipe)

	rec := streamtest.NewRecorder[string]()
	traced.Subscribe(rec)

	// The subscription handed downstream is the decorator itself, so
	// request and cancel flow back through it.
	if _, ok := rec.Subscription().(*spanflow.TracedSubscriber[string]); !ok {
		t.Errorf("Expected traced decorator as subscription, got %T", rec.Subscription())
	}
}

func TestSubscriberContext(t *testing.T) {
	if ctx := spanflow.SubscriberContext[int](&plainSubscriber{}); ctx != nil {
		t.Errorf("Expected nil context for plain subscriber, got %v", ctx)
	}

	rec := streamtest.NewRecorder[int]()
	ctx := spanflow.SubscriberContext[int](rec)
	if ctx == nil {
		t.Fatal("Expected context from context-aware subscriber")
	}
	if ctx.Len() != 0 {
		t.Errorf("Expected empty context, got %d entries", ctx.Len())
	}
}

func TestOperatorPlainSubscriberPassthrough(t *testing.T) {
	tracer := streamtest.NewTracer()
	seed := tracer.Activate(&testSpan{"ambient"}, false)
	defer seed.Close()

	pipe := streamtest.NewPipe[int]()
	traced := spanflow.Operator[int](tracer)(pipe)

	sub := &plainSubscriber{}
	traced.Subscribe(sub)

	pipe.Push(7)
	pipe.Complete()

	// A subscriber exposing no context resolves no span at all.
	if got := len(tracer.Activations()); got != 1 {
		t.Errorf("Expected only the seed activation, got %d", got)
	}
	if len(sub.values) != 1 || sub.values[0] != 7 || !sub.done {
		t.Errorf("Expected undisturbed delivery, got %v done=%v", sub.values, sub.done)
	}
}

func TestHooksApplyInRegistrationOrder(t *testing.T) {
	var hooks spanflow.Hooks[int]
	var order []string

	hooks.OnEachStage(func(p spanflow.Publisher[int]) spanflow.Publisher[int] {
		order = append(order, "first")
		return p
	})
	hooks.OnEachStage(func(p spanflow.Publisher[int]) spanflow.Publisher[int] {
		order = append(order, "second")
		return p
	})

	pipe := streamtest.NewPipe[int]()
	if got := hooks.Apply(pipe); got != spanflow.Publisher[int](pipe) {
		t.Errorf("Expected identity transforms to return the source, got %T", got)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("Expected registration order, got %v", order)
	}
}

func TestHooksRemove(t *testing.T) {
	var hooks spanflow.Hooks[int]
	calls := 0

	id := hooks.OnEachStage(func(p spanflow.Publisher[int]) spanflow.Publisher[int] {
		calls++
		return p
	})
	keep := hooks.OnEachStage(func(p spanflow.Publisher[int]) spanflow.Publisher[int] {
		calls += 10
		return p
	})

	hooks.Remove(id)
	hooks.Apply(streamtest.NewPipe[int]())

	if calls != 10 {
		t.Errorf("Expected only the remaining hook to run, calls=%d", calls)
	}

	hooks.Remove(keep)
	hooks.Apply(streamtest.NewPipe[int]())
	if calls != 10 {
		t.Errorf("Expected no hooks after removal, calls=%d", calls)
	}
}

func TestHooksNilTransformIgnored(t *testing.T) {
	var hooks spanflow.Hooks[int]

	if id := hooks.OnEachStage(nil); id != 0 {
		t.Errorf("Expected id 0 for nil transform, got %d", id)
	}

	pipe := streamtest.NewPipe[int]()
	if got := hooks.Apply(pipe); got != spanflow.Publisher[int](pipe) {
		t.Errorf("Expected source back from empty hooks, got %T", got)
	}
}

func TestHooksWithOperatorEndToEnd(t *testing.T) {
	tracer := streamtest.NewTracer()
	span := &testSpan{"s1"}
	seed := tracer.Activate(span, false)

	var hooks spanflow.Hooks[string]
	hooks.OnEachStage(spanflow.Operator[string](tracer))

	pipe := streamtest.NewPipe[string]()
	rec := streamtest.NewRecorder[string]().
		ObserveActive(tracer).
		AutoRequest(spanflow.Unbounded)
	hooks.Apply(pipe).Subscribe(rec)
	seed.Close()

	pipe.Push("x")

	events := rec.Events()
	last := events[len(events)-1]
	if last.Signal != streamtest.SignalNext || last.Value != "x" {
		t.Fatalf("Expected next(x), got %+v", last)
	}
	if last.Active != span {
		t.Errorf("Expected span active during delivery, got %v", last.Active)
	}
}
