package slots

import (
	"fmt"
	"sort"
	"sync"
)

// DictGetFunc reads one keyed value of a dictionary slot. The key it receives
// is the internal key after domain translation.
type DictGetFunc[T any] func(owner Owner, key any) (T, error)

// DictSetFunc writes one keyed value of a dictionary slot.
type DictSetFunc[T any] func(owner Owner, key any, value T) error

// KeyDomain declares the keys a dictionary slot accepts and how external keys
// map to the internal keys used for storage and the underlying accessors. A
// nil domain accepts every key unchanged.
type KeyDomain interface {
	// Contains reports whether key is an acceptable external key.
	Contains(key any) bool
	// Translate maps an external key to its internal key. It is only called
	// for keys Contains accepted.
	Translate(key any) any
	// Keys lists the external keys, or nil when the domain is unbounded.
	Keys() []any
	// Describe renders the domain for key errors.
	Describe() string
}

// KeySet is the KeyDomain of an explicit key list with no translation.
type KeySet []any

// Keys implements KeyDomain.
func (s KeySet) Keys() []any { return append([]any(nil), s...) }

// Contains implements KeyDomain.
func (s KeySet) Contains(key any) bool {
	for _, k := range s {
		if k == key {
			return true
		}
	}
	return false
}

// Translate implements KeyDomain; a key set does not translate.
func (s KeySet) Translate(key any) any { return key }

// Describe implements KeyDomain.
func (s KeySet) Describe() string { return fmt.Sprintf("%v", []any(s)) }

// KeyMap is the KeyDomain of an external-to-internal key translation. Only
// the external keys are acceptable; an internal key used directly is out of
// domain.
type KeyMap map[any]any

// Keys implements KeyDomain; order is deterministic by rendered key.
func (m KeyMap) Keys() []any {
	keys := make([]any, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	return keys
}

// Contains implements KeyDomain.
func (m KeyMap) Contains(key any) bool {
	_, ok := m[key]
	return ok
}

// Translate implements KeyDomain.
func (m KeyMap) Translate(key any) any { return m[key] }

// Describe implements KeyDomain.
func (m KeyMap) Describe() string { return fmt.Sprintf("%v", m.Keys()) }

// DictSlot multiplexes one interception chain template over a family of keys.
// Each key gets its own sub-slot, created lazily from the template, so caching,
// statistics, and change events are tracked per key while the composition is
// declared once. Sub-slot storage is keyed by the internal key: two external
// keys translating to the same internal key share state.
type DictSlot[T any] struct {
	name   string
	domain KeyDomain
	fget   DictGetFunc[T]
	fset   DictSetFunc[T]
	opts   []SlotOption[T]

	mu    sync.Mutex
	subs  map[any]*Slot[T]
	proto Owner
	bound bool
}

// DictOption configures NewDict.
type DictOption[T any] func(*dictConfig[T]) error

type dictConfig[T any] struct {
	fget DictGetFunc[T]
	fset DictSetFunc[T]
	opts []SlotOption[T]
}

// WithItemGetter sets the keyed underlying getter.
func WithItemGetter[T any](fget DictGetFunc[T]) DictOption[T] {
	return func(cfg *dictConfig[T]) error {
		cfg.fget = fget
		return nil
	}
}

// WithItemSetter sets the keyed underlying setter.
func WithItemSetter[T any](fset DictSetFunc[T]) DictOption[T] {
	return func(cfg *dictConfig[T]) error {
		cfg.fset = fset
		return nil
	}
}

// WithItemOptions declares the chain template every sub-slot is composed
// from. The options are re-applied per key, so each sub-slot gets fresh
// layers and configuration.
func WithItemOptions[T any](opts ...SlotOption[T]) DictOption[T] {
	return func(cfg *dictConfig[T]) error {
		cfg.opts = append(cfg.opts, opts...)
		return nil
	}
}

// NewDict constructs a dictionary slot named name over domain.
func NewDict[T any](name string, domain KeyDomain, opts ...DictOption[T]) (*DictSlot[T], error) {
	cfg := dictConfig[T]{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	d := &DictSlot[T]{
		name:   name,
		domain: domain,
		fget:   cfg.fget,
		fset:   cfg.fset,
		opts:   cfg.opts,
		subs:   make(map[any]*Slot[T]),
	}
	// Compose a throwaway sub-slot so template mistakes surface here, not on
	// the first keyed access.
	if _, err := d.compose(subName(name, nil)); err != nil {
		return nil, err
	}
	return d, nil
}

// MustNewDict is NewDict that panics on error.
func MustNewDict[T any](name string, domain KeyDomain, opts ...DictOption[T]) *DictSlot[T] {
	d, err := NewDict[T](name, domain, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *DictSlot[T]) compose(name AttrName) (*Slot[T], error) {
	key := name.Key
	subOpts := make([]SlotOption[T], 0, len(d.opts)+2)
	subOpts = append(subOpts, d.opts...)
	if d.fget != nil {
		fget := d.fget
		subOpts = append(subOpts, WithGetter(func(owner Owner) (T, error) {
			return fget(owner, key)
		}))
	}
	if d.fset != nil {
		fset := d.fset
		subOpts = append(subOpts, WithSetter[T](func(owner Owner, value T) error {
			return fset(owner, key, value)
		}))
	}
	return newSlot[T](name, subOpts)
}

// Bind audits the owner type against the sub-slot template. Sub-slots created
// later inherit the binding.
func (d *DictSlot[T]) Bind(proto Owner) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	probe, err := d.compose(subName(d.name, nil))
	if err != nil {
		return err
	}
	if err := probe.Bind(proto); err != nil {
		return err
	}
	for _, sub := range d.subs {
		if err := sub.Bind(proto); err != nil {
			return err
		}
	}
	d.proto = proto
	d.bound = true
	return nil
}

// MustBind is Bind that panics on error.
func (d *DictSlot[T]) MustBind(proto Owner) *DictSlot[T] {
	if err := d.Bind(proto); err != nil {
		panic(err)
	}
	return d
}

// Name returns the dictionary slot's name.
func (d *DictSlot[T]) Name() string {
	return d.name
}

// Sub returns the sub-slot for key, creating it from the template on first
// use. An out-of-domain key is a KeyError.
func (d *DictSlot[T]) Sub(key any) (*Slot[T], error) {
	internal := key
	if d.domain != nil {
		if !d.domain.Contains(key) {
			return nil, &KeyError{Name: Name(d.name), Key: key, Domain: d.describeDomain()}
		}
		internal = d.domain.Translate(key)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if sub, ok := d.subs[internal]; ok {
		return sub, nil
	}
	sub, err := d.compose(subName(d.name, internal))
	if err != nil {
		return nil, err
	}
	if d.bound {
		if err := sub.Bind(d.proto); err != nil {
			return nil, err
		}
	}
	d.subs[internal] = sub
	return sub, nil
}

func (d *DictSlot[T]) describeDomain() string {
	if d.domain == nil {
		return "<any>"
	}
	return d.domain.Describe()
}

// GetItem reads the value for key through the sub-slot's chain.
func (d *DictSlot[T]) GetItem(owner Owner, key any) (T, error) {
	sub, err := d.Sub(key)
	if err != nil {
		var zero T
		return zero, err
	}
	return sub.Get(owner)
}

// SetItem writes the value for key through the sub-slot's chain.
func (d *DictSlot[T]) SetItem(owner Owner, key any, value T) error {
	sub, err := d.Sub(key)
	if err != nil {
		return err
	}
	return sub.Set(owner, value)
}

// Get reads every key in the domain and returns the values keyed externally.
// It requires a bounded domain.
func (d *DictSlot[T]) Get(owner Owner) (map[any]T, error) {
	keys, err := d.boundedKeys()
	if err != nil {
		return nil, err
	}
	values := make(map[any]T, len(keys))
	for _, key := range keys {
		value, err := d.GetItem(owner, key)
		if err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, nil
}

// Set writes every entry of values through its sub-slot.
func (d *DictSlot[T]) Set(owner Owner, values map[any]T) error {
	for key, value := range values {
		if err := d.SetItem(owner, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Delete is not supported: a dictionary slot is permanent.
func (d *DictSlot[T]) Delete(owner Owner) error {
	return &AccessError{Name: Name(d.name), Op: "delete"}
}

// Recall returns the cached values of every sub-slot created so far, keyed
// internally. Keys with nothing cached are absent.
func (d *DictSlot[T]) Recall(owner Owner) map[any]T {
	d.mu.Lock()
	subs := make(map[any]*Slot[T], len(d.subs))
	for key, sub := range d.subs {
		subs[key] = sub
	}
	d.mu.Unlock()

	values := make(map[any]T)
	for key, sub := range subs {
		if value, ok := sub.Recall(owner); ok {
			values[key] = value
		}
	}
	return values
}

// Invalidate erases the cached value of every sub-slot created so far.
func (d *DictSlot[T]) Invalidate(owner Owner) {
	d.mu.Lock()
	subs := make([]*Slot[T], 0, len(d.subs))
	for _, sub := range d.subs {
		subs = append(subs, sub)
	}
	d.mu.Unlock()

	for _, sub := range subs {
		sub.Invalidate(owner)
	}
}

func (d *DictSlot[T]) boundedKeys() ([]any, error) {
	if d.domain == nil {
		return nil, declErrf(d.name, "reading a whole dictionary slot requires a bounded key domain")
	}
	keys := d.domain.Keys()
	if keys == nil {
		return nil, declErrf(d.name, "reading a whole dictionary slot requires a bounded key domain")
	}
	return keys, nil
}
