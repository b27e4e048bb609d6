package spanflow

// ActiveSpanKey is the well-known context key under which the resolved
// span travels between stages.
const ActiveSpanKey Key = "spanflow.active-span"

// Context is an immutable, ordered key-value map carried alongside a
// subscription. Every mutation returns a new Context; downstream stages
// may branch independently without affecting their ancestors.
//
// A nil Context means "no inbound context". Empty returns the non-nil
// empty map.
type Context interface {
	// Get returns the value stored under key, or def when absent.
	Get(key Key, def any) any

	// Has reports whether key is present.
	Has(key Key) bool

	// Put returns a new Context with key set to value. Overwriting an
	// existing key keeps its original position; new keys append.
	Put(key Key, value any) Context

	// Len returns the number of entries.
	Len() int

	// Range calls fn for each entry in order until fn returns false.
	Range(fn func(key Key, value any) bool)
}

type ctxEntry struct {
	key   Key
	value any
}

type propContext struct {
	entries []ctxEntry
}

// Empty returns an empty propagation context.
func Empty() Context {
	return propContext{}
}

func (c propContext) Get(key Key, def any) any {
	for _, e := range c.entries {
		if e.key == key {
			return e.value
		}
	}
	return def
}

func (c propContext) Has(key Key) bool {
	for _, e := range c.entries {
		if e.key == key {
			return true
		}
	}
	return false
}

func (c propContext) Put(key Key, value any) Context {
	next := make([]ctxEntry, len(c.entries), len(c.entries)+1)
	copy(next, c.entries)
	for i, e := range next {
		if e.key == key {
			next[i].value = value
			return propContext{entries: next}
		}
	}
	return propContext{entries: append(next, ctxEntry{key: key, value: value})}
}

func (c propContext) Len() int {
	return len(c.entries)
}

func (c propContext) Range(fn func(key Key, value any) bool) {
	for _, e := range c.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// WithSpan returns ctx with span stored under ActiveSpanKey. A nil ctx is
// treated as empty.
func WithSpan(ctx Context, span Span) Context {
	if ctx == nil {
		ctx = Empty()
	}
	return ctx.Put(ActiveSpanKey, span)
}

// SpanFrom returns the span carried by ctx, or nil if ctx is nil or
// carries none.
func SpanFrom(ctx Context) Span {
	if ctx == nil {
		return nil
	}
	return ctx.Get(ActiveSpanKey, nil)
}
