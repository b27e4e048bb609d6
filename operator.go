package spanflow

import (
	"sync"
	"sync/atomic"
)

// Transform rewrites one pipeline stage into an equivalent stage.
type Transform[T any] func(Publisher[T]) Publisher[T]

// Operator returns a pipeline transform that lifts span propagation onto
// every subscriber the wrapped stage receives. It never creates spans; it
// only forwards whichever span was already resolved by the subscriber's
// own context or the tracer's ambient state at assembly time.
//
// The transform can be applied per stage or registered with Hooks to
// cover a whole pipeline.
func Operator[T any](tracer Tracer, opts ...Option) Transform[T] {
	return func(source Publisher[T]) Publisher[T] {
		return &liftPublisher[T]{
			source: source,
			tracer: tracer,
			opts:   opts,
		}
	}
}

type liftPublisher[T any] struct {
	source Publisher[T]
	tracer Tracer
	opts   []Option
}

// Subscribe substitutes the traced decorator for sub before handing it to
// the source stage. The decorator wraps sub's own exposed context, not
// one the installer invents.
func (p *liftPublisher[T]) Subscribe(sub Subscriber[T]) {
	p.source.Subscribe(NewTracedSubscriber(sub, SubscriberContext(sub), p.tracer, p.opts...))
}

// SubscriberContext returns the propagation context sub exposes, or nil
// for subscribers that carry none.
func SubscriberContext[T any](sub Subscriber[T]) Context {
	if c, ok := sub.(interface{ CurrentContext() Context }); ok {
		return c.CurrentContext()
	}
	return nil
}

// Hooks applies registered transforms to every stage of a pipeline.
// Safe for concurrent use by multiple goroutines.
type Hooks[T any] struct {
	transforms []hookEntry[T]
	mu         sync.RWMutex
	nextID     atomic.Uint64
}

type hookEntry[T any] struct {
	transform Transform[T]
	id        uint64
}

// OnEachStage registers tr to be applied to every stage passed through
// Apply and returns an id usable with Remove. A nil transform is ignored.
func (h *Hooks[T]) OnEachStage(tr Transform[T]) uint64 {
	if tr == nil {
		return 0
	}

	id := h.nextID.Add(1)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.transforms = append(h.transforms, hookEntry[T]{
		id:        id,
		transform: tr,
	})

	return id
}

// Remove unregisters a transform by id.
func (h *Hooks[T]) Remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Preserve order
	for i, e := range h.transforms {
		if e.id == id {
			copy(h.transforms[i:], h.transforms[i+1:])
			h.transforms = h.transforms[:len(h.transforms)-1]
			return
		}
	}
}

// Apply runs p through every registered transform in registration order
// and returns the result.
func (h *Hooks[T]) Apply(p Publisher[T]) Publisher[T] {
	h.mu.RLock()
	transforms := make([]hookEntry[T], len(h.transforms))
	copy(transforms, h.transforms)
	h.mu.RUnlock()

	for _, e := range transforms {
		p = e.transform(p)
	}
	return p
}
