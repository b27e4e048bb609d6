// Package scopestack provides the ambient active-span state the tracing
// bridges share: an identity-addressed LIFO stack.
//
// Go tracing APIs carry no thread-local scope manager, so each bridge
// keeps one explicit stack per tracer instance. Entries are removed by
// identity rather than position, so scopes closed out of order by
// concurrent goroutines cannot corrupt the stack.
package scopestack

import "sync"

// Entry is one activation on the stack.
type Entry struct {
	span any
}

// Span returns the activated span.
func (e *Entry) Span() any {
	return e.span
}

// Stack is a LIFO of active spans.
// Safe for concurrent use by multiple goroutines.
type Stack struct {
	entries []*Entry
	mu      sync.Mutex
}

// Push activates span and returns its entry handle.
func (s *Stack) Push(span any) *Entry {
	e := &Entry{span: span}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	return e
}

// Remove releases e and reports whether it was still on the stack.
// A second Remove of the same entry returns false, which callers use as
// their release-exactly-once guard.
func (s *Stack) Remove(e *Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i] == e {
			copy(s.entries[i:], s.entries[i+1:])
			s.entries = s.entries[:len(s.entries)-1]
			return true
		}
	}
	return false
}

// Top returns the most recently pushed span still active.
func (s *Stack) Top() (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return nil, false
	}
	return s.entries[len(s.entries)-1].span, true
}

// Depth returns the number of active entries.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
