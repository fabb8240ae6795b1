// Package observe defines the change-event channel contract used by
// observable slots, plus a synchronous in-process fan-out implementation.
// The core emits events through the Signal interface and stays agnostic of
// delivery semantics; queued or cross-process channels are implemented by
// consumers through a SignalFactory.
package observe

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Change describes a cached-value transition on one slot.
type Change struct {
	// ID is a unique event identifier, stamped on emit when empty.
	ID string
	// Name is the rendered slot name the change belongs to.
	Name string
	// Key is the sub-slot key for multiplexed slots, nil otherwise.
	Key any
	// New is the value just stored.
	New any
	// Old is the previously cached value. HasOld reports whether any value
	// had been cached before; when false, Old is meaningless.
	Old    any
	HasOld bool
	// At is the emission timestamp, stamped on emit when zero.
	At time.Time
}

// Signal delivers change events for one slot. Implementations decide delivery
// semantics; Hub delivers synchronously on the emitting goroutine.
type Signal interface {
	Emit(change Change)
}

// SignalFunc adapts a plain function to Signal.
type SignalFunc func(Change)

// Emit dispatches to the underlying function.
func (f SignalFunc) Emit(change Change) {
	if f != nil {
		f(change)
	}
}

// SignalFactory builds the signal for a slot the first time it is observed.
type SignalFactory func(name string) Signal

// Hub is the default Signal: a synchronous fan-out to subscribed observers.
// Subscribing and emitting are safe for concurrent use.
type Hub struct {
	name string

	mu   sync.RWMutex
	next int
	subs map[int]func(Change)
}

// NewHub constructs a hub for the named slot.
func NewHub(name string) *Hub {
	return &Hub{name: name, subs: make(map[int]func(Change))}
}

// Name returns the slot name the hub was built for.
func (h *Hub) Name() string {
	return h.name
}

// Subscribe registers an observer and returns its cancel function. Observers
// run synchronously, in unspecified order, on the goroutine that emits.
func (h *Hub) Subscribe(fn func(Change)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Emit stamps the change with an ID and timestamp when missing, then fans it
// out to every subscriber.
func (h *Hub) Emit(change Change) {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.At.IsZero() {
		change.At = time.Now()
	}
	if change.Name == "" {
		change.Name = h.name
	}

	h.mu.RLock()
	observers := make([]func(Change), 0, len(h.subs))
	for _, fn := range h.subs {
		observers = append(observers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range observers {
		fn(change)
	}
}

// Table lazily creates one signal per slot name using the configured factory.
// A nil factory falls back to NewHub.
type Table struct {
	mu      sync.Mutex
	factory SignalFactory
	signals map[string]Signal
}

// NewTable constructs a signal table backed by factory.
func NewTable(factory SignalFactory) *Table {
	return &Table{factory: factory, signals: make(map[string]Signal)}
}

// SetFactory replaces the factory used for signals not yet created. Signals
// already handed out keep their original implementation.
func (t *Table) SetFactory(factory SignalFactory) {
	t.mu.Lock()
	t.factory = factory
	t.mu.Unlock()
}

// Signal returns the channel for name, creating it on first use.
func (t *Table) Signal(name string) Signal {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.signals == nil {
		t.signals = make(map[string]Signal)
	}
	if sig, ok := t.signals[name]; ok {
		return sig
	}
	factory := t.factory
	if factory == nil {
		factory = func(name string) Signal { return NewHub(name) }
	}
	sig := factory(name)
	t.signals[name] = sig
	return sig
}

// Hub returns the hub for name when the table's factory produces hubs, which
// is the default. It creates the signal on first use.
func (t *Table) Hub(name string) (*Hub, bool) {
	hub, ok := t.Signal(name).(*Hub)
	return hub, ok
}
