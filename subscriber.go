package spanflow

// Option configures a TracedSubscriber.
type Option func(*config)

type config struct {
	activateTerminal bool
}

// WithTerminalActivation makes OnError and OnComplete scope-wrapped like
// every other signal.
//
// By default terminal signals pass through bare: when an error or
// completion tears the stream down, the span's originating scope is
// assumed to have already closed on the goroutine that raised it, and
// re-activating at that point may surface a finished or foreign span.
// Opt in only when the backing tracer keeps spans activatable after the
// producing side has unwound.
func WithTerminalActivation() Option {
	return func(c *config) {
		c.activateTerminal = true
	}
}

// TracedSubscriber decorates a downstream subscriber and its upstream
// subscription, activating the stage's resolved span as a short-lived
// scope around each signal that crosses it. It never creates or finishes
// spans and never alters signal order, payloads, or errors.
//
// One instance serves exactly one subscriber for the lifetime of its
// stage. The resolved span and outbound context are fixed at
// construction; the upstream subscription is bound once via OnSubscribe.
type TracedSubscriber[T any] struct {
	subscriber   Subscriber[T]
	tracer       Tracer
	span         Span
	ctx          Context
	subscription Subscription
	cfg          config
}

// NewTracedSubscriber builds the decorator for one stage.
//
// The resolved span is the one inbound ctx carries under ActiveSpanKey,
// defaulting to the tracer's currently active span when the key is
// absent. A nil ctx resolves no span at all. The outbound context is the
// inbound one with ActiveSpanKey populated once a span is known, so every
// stage downstream of the first resolution sees the key present.
//
// tracer must be non-nil; sub is not owned and its lifetime stays with
// the stream runtime.
func NewTracedSubscriber[T any](sub Subscriber[T], ctx Context, tracer Tracer, opts ...Option) *TracedSubscriber[T] {
	t := &TracedSubscriber[T]{
		subscriber: sub,
		tracer:     tracer,
	}
	for _, opt := range opts {
		opt(&t.cfg)
	}

	if ctx != nil {
		t.span = ctx.Get(ActiveSpanKey, tracer.ActiveSpan())
	}

	switch {
	case ctx != nil && t.span != nil:
		t.ctx = ctx.Put(ActiveSpanKey, t.span)
	case ctx != nil:
		t.ctx = ctx
	default:
		t.ctx = Empty()
	}

	return t
}

// OnSubscribe binds the upstream subscription and delivers itself, not
// the raw subscription, downstream so that later Request and Cancel
// calls are traced too.
func (t *TracedSubscriber[T]) OnSubscribe(s Subscription) {
	t.subscription = s
	t.scoped(func() {
		t.subscriber.OnSubscribe(t)
	})
}

// Request forwards n credits to the upstream subscription. Calling it
// before OnSubscribe violates the stream contract and is not
// re-validated here.
func (t *TracedSubscriber[T]) Request(n int64) {
	t.scoped(func() {
		t.subscription.Request(n)
	})
}

// OnNext forwards value downstream unchanged.
func (t *TracedSubscriber[T]) OnNext(value T) {
	t.scoped(func() {
		t.subscriber.OnNext(value)
	})
}

// Cancel forwards cancellation upstream.
func (t *TracedSubscriber[T]) Cancel() {
	t.scoped(func() {
		t.subscription.Cancel()
	})
}

// OnError forwards err downstream. Bare passthrough unless
// WithTerminalActivation was set.
func (t *TracedSubscriber[T]) OnError(err error) {
	if t.cfg.activateTerminal {
		t.scoped(func() {
			t.subscriber.OnError(err)
		})
		return
	}
	t.subscriber.OnError(err)
}

// OnComplete forwards completion downstream. Bare passthrough unless
// WithTerminalActivation was set.
func (t *TracedSubscriber[T]) OnComplete() {
	if t.cfg.activateTerminal {
		t.scoped(func() {
			t.subscriber.OnComplete()
		})
		return
	}
	t.subscriber.OnComplete()
}

// CurrentContext returns the stage's outbound propagation context.
func (t *TracedSubscriber[T]) CurrentContext() Context {
	return t.ctx
}

// scoped runs fn with the resolved span activated, releasing the scope on
// every exit path including a panic from fn. With no resolved span, fn
// runs bare.
func (t *TracedSubscriber[T]) scoped(fn func()) {
	if t.span == nil {
		fn()
		return
	}
	scope := t.tracer.Activate(t.span, false)
	defer scope.Close()
	fn()
}
