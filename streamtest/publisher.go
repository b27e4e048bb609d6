package streamtest

import (
	"sync"

	"github.com/eapache/queue"
	"github.com/spanflow/spanflow"
)

// Pipe is a manually driven publisher for a single subscriber. Pushed
// values are delivered while request credits are available and buffered
// in FIFO order otherwise; errors jump the buffer, completion waits for
// it to drain.
type Pipe[T any] struct {
	pending  *queue.Queue
	sub      spanflow.Subscriber[T]
	err      error
	demand   int64
	complete bool
	done     bool
	emitting bool
	mu       sync.Mutex
}

// NewPipe creates an empty pipe.
func NewPipe[T any]() *Pipe[T] {
	return &Pipe[T]{
		pending: queue.New(),
	}
}

// Subscribe attaches the pipe's single subscriber.
func (p *Pipe[T]) Subscribe(sub spanflow.Subscriber[T]) {
	p.mu.Lock()
	p.sub = sub
	p.mu.Unlock()

	sub.OnSubscribe(&pipeSubscription[T]{pipe: p})
}

// Push offers value to the subscriber, buffering it when no credit is
// outstanding. Values pushed after a terminal signal are dropped.
func (p *Pipe[T]) Push(value T) {
	p.mu.Lock()
	if p.done || p.complete || p.sub == nil {
		p.mu.Unlock()
		return
	}
	p.pending.Add(value)
	p.mu.Unlock()

	p.drain()
}

// Complete terminates the stream once every buffered value has been
// delivered.
func (p *Pipe[T]) Complete() {
	p.mu.Lock()
	if p.done || p.sub == nil {
		p.mu.Unlock()
		return
	}
	p.complete = true
	p.mu.Unlock()

	p.drain()
}

// Fail terminates the stream immediately, discarding buffered values.
func (p *Pipe[T]) Fail(err error) {
	p.mu.Lock()
	if p.done || p.sub == nil {
		p.mu.Unlock()
		return
	}
	p.done = true
	p.err = err
	sub := p.sub
	for p.pending.Length() > 0 {
		p.pending.Remove()
	}
	p.mu.Unlock()

	sub.OnError(err)
}

// Demand returns the outstanding request credit.
func (p *Pipe[T]) Demand() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.demand
}

// drain delivers buffered values while credit lasts, then the pending
// completion if the buffer emptied. The emitting flag keeps reentrant
// Request calls from interleaving deliveries.
func (p *Pipe[T]) drain() {
	p.mu.Lock()
	if p.emitting {
		p.mu.Unlock()
		return
	}
	p.emitting = true

	for {
		if p.done {
			break
		}
		if p.pending.Length() > 0 && p.demand > 0 {
			value := p.pending.Remove().(T)
			p.demand--
			sub := p.sub
			p.mu.Unlock()
			sub.OnNext(value)
			p.mu.Lock()
			continue
		}
		if p.complete && p.pending.Length() == 0 {
			p.done = true
			sub := p.sub
			p.mu.Unlock()
			sub.OnComplete()
			p.mu.Lock()
		}
		break
	}

	p.emitting = false
	p.mu.Unlock()
}

type pipeSubscription[T any] struct {
	pipe *Pipe[T]
}

func (s *pipeSubscription[T]) Request(n int64) {
	p := s.pipe

	p.mu.Lock()
	if n > spanflow.Unbounded-p.demand {
		p.demand = spanflow.Unbounded
	} else {
		p.demand += n
	}
	p.mu.Unlock()

	p.drain()
}

func (s *pipeSubscription[T]) Cancel() {
	p := s.pipe

	p.mu.Lock()
	p.done = true
	for p.pending.Length() > 0 {
		p.pending.Remove()
	}
	p.mu.Unlock()
}

// FromSlice returns a publisher that emits values in order as demand
// arrives, then completes.
func FromSlice[T any](values ...T) spanflow.Publisher[T] {
	return &sliceSource[T]{values: values}
}

type sliceSource[T any] struct {
	values []T
}

func (s *sliceSource[T]) Subscribe(sub spanflow.Subscriber[T]) {
	sub.OnSubscribe(&sliceSubscription[T]{values: s.values, sub: sub})
}

type sliceSubscription[T any] struct {
	sub      spanflow.Subscriber[T]
	values   []T
	idx      int
	demand   int64
	done     bool
	emitting bool
	mu       sync.Mutex
}

func (s *sliceSubscription[T]) Request(n int64) {
	s.mu.Lock()
	if n > spanflow.Unbounded-s.demand {
		s.demand = spanflow.Unbounded
	} else {
		s.demand += n
	}
	if s.emitting || s.done {
		s.mu.Unlock()
		return
	}
	s.emitting = true

	for s.demand > 0 && s.idx < len(s.values) && !s.done {
		value := s.values[s.idx]
		s.idx++
		s.demand--
		s.mu.Unlock()
		s.sub.OnNext(value)
		s.mu.Lock()
	}
	if s.idx == len(s.values) && !s.done {
		s.done = true
		s.mu.Unlock()
		s.sub.OnComplete()
		s.mu.Lock()
	}

	s.emitting = false
	s.mu.Unlock()
}

func (s *sliceSubscription[T]) Cancel() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
}
