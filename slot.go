package slots

import (
	"github.com/goliatone/go-slots/pkg/stats"
)

// GetFunc reads the underlying value of a slot for one owner instance.
type GetFunc[T any] func(owner Owner) (T, error)

// SetFunc writes the underlying value of a slot for one owner instance.
type SetFunc[T any] func(owner Owner, value T) error

// DeleteFunc removes the underlying value of a slot for one owner instance.
type DeleteFunc func(owner Owner) error

// accessor is the three-operation contract every interception layer
// implements. Each layer delegates to the next after or before doing its own
// work; the chain is linear and its order is declared by the caller.
type accessor[T any] interface {
	get(owner Owner) (T, error)
	set(owner Owner, value T) error
	del(owner Owner) error
}

// layer is one unit in the cooperation chain. wrap installs the layer around
// next and returns the new chain head; requires lists the capabilities the
// owning type must provide.
type layer[T any] interface {
	wrap(s *Slot[T], next accessor[T]) accessor[T]
	requires() []Capability
}

// nsBinding declares a storage namespace a custom layer family owns.
type nsBinding struct {
	ns     string
	family *Family
	init   SpaceInit
}

// namespaced is implemented by layers that own storage namespaces beyond the
// built-in ones; Bind registers them.
type namespaced interface {
	namespaces() []nsBinding
}

// configurable is implemented by layers that declare configuration slots.
type configurable interface {
	configStores() []*configStore
}

// cacheDependent marks layers that extend the cache; composing one without an
// explicit cache layer pulls a bare cache in as the innermost layer.
type cacheDependent interface {
	needsCache()
}

// finisher runs after the chain is composed, for layers that wire themselves
// to other layers.
type finisher[T any] interface {
	afterCompose(s *Slot[T]) error
}

// Slot is a named attribute governed by an interceptor chain. Construct one
// with New, bind it to the owning type with Bind, and route every access
// through Get, Set, and Delete. A slot is shared by every instance of its
// owning type; all instance-specific state lives in the owner's storage.
type Slot[T any] struct {
	name     AttrName
	chain    accessor[T]
	layers   []layer[T]
	registry *Registry
	configs  map[string]*configStore

	cache  *cacheLayer[T]
	statsL *statsLayer[T]
}

// SlotOption sets an underlying accessor or composes a layer on New. Layer
// options wrap in the order given: the first listed layer runs outermost.
type SlotOption[T any] func(*slotConfig[T]) error

type slotConfig[T any] struct {
	fget     GetFunc[T]
	fset     SetFunc[T]
	fdel     DeleteFunc
	layers   []layer[T]
	registry *Registry
}

// WithGetter sets the underlying getter.
func WithGetter[T any](fget GetFunc[T]) SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		cfg.fget = fget
		return nil
	}
}

// WithSetter sets the underlying setter.
func WithSetter[T any](fset SetFunc[T]) SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		cfg.fset = fset
		return nil
	}
}

// WithDeleter sets the underlying deleter. A slot without one is permanent.
func WithDeleter[T any](fdel DeleteFunc) SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		cfg.fdel = fdel
		return nil
	}
}

// WithRegistry binds the slot's storage namespaces to a registry other than
// the process-wide default.
func WithRegistry[T any](registry *Registry) SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		cfg.registry = registry
		return nil
	}
}

// New constructs a slot named name from the supplied options. Configuration
// mistakes (unknown keys, missing required values, duplicate keys across
// layers) are reported here, not on first access.
func New[T any](name string, opts ...SlotOption[T]) (*Slot[T], error) {
	return newSlot[T](Name(name), opts)
}

// MustNew is New that panics on error, for package-level slot declarations.
func MustNew[T any](name string, opts ...SlotOption[T]) *Slot[T] {
	s, err := New[T](name, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func newSlot[T any](name AttrName, opts []SlotOption[T]) (*Slot[T], error) {
	cfg := slotConfig[T]{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	s := &Slot[T]{
		name:     name,
		registry: cfg.registry,
		configs:  make(map[string]*configStore),
	}
	if s.registry == nil {
		s.registry = DefaultRegistry
	}

	layers := cfg.layers
	hasCache := false
	wantsCache := false
	for _, l := range layers {
		if _, ok := l.(*cacheLayer[T]); ok {
			hasCache = true
		}
		if _, ok := l.(cacheDependent); ok {
			wantsCache = true
		}
	}
	if wantsCache && !hasCache {
		layers = append(layers, &cacheLayer[T]{})
	}

	chain := accessor[T](&baseAccessor[T]{
		slot: s,
		fget: cfg.fget,
		fset: cfg.fset,
		fdel: cfg.fdel,
	})
	for i := len(layers) - 1; i >= 0; i-- {
		chain = layers[i].wrap(s, chain)
	}
	s.chain = chain
	s.layers = layers

	for _, l := range layers {
		c, ok := l.(configurable)
		if !ok {
			continue
		}
		for _, store := range c.configStores() {
			store.bind(s.name, nsIConfig)
			for _, key := range store.schema.Names() {
				if _, dup := s.configs[key]; dup {
					return nil, declErrf(name.String(), "configuration key %q declared by more than one layer", key)
				}
				s.configs[key] = store
			}
		}
	}

	for _, l := range layers {
		if f, ok := l.(finisher[T]); ok {
			if err := f.afterCompose(s); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// Bind audits the owner type's capabilities against every composed layer and
// registers any custom storage namespaces. Call it once per owning type; a
// typed nil pointer works as the prototype. Binding fails immediately on a
// missing capability, before any instance exists.
func (s *Slot[T]) Bind(proto Owner) error {
	for _, l := range s.layers {
		if err := auditCapabilities(s.name, proto, l.requires()); err != nil {
			return err
		}
		if n, ok := l.(namespaced); ok {
			for _, b := range n.namespaces() {
				if err := s.registry.Register(b.ns, b.family, b.init); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// MustBind is Bind that panics on error.
func (s *Slot[T]) MustBind(proto Owner) *Slot[T] {
	if err := s.Bind(proto); err != nil {
		panic(err)
	}
	return s
}

// Name returns the slot's attribute name.
func (s *Slot[T]) Name() AttrName {
	return s.name
}

// Get reads the slot through the interception chain.
func (s *Slot[T]) Get(owner Owner) (T, error) {
	return s.chain.get(owner)
}

// Set writes the slot through the interception chain.
func (s *Slot[T]) Set(owner Owner, value T) error {
	return s.chain.set(owner, value)
}

// Delete removes the slot's value through the interception chain.
func (s *Slot[T]) Delete(owner Owner) error {
	return s.chain.del(owner)
}

// ForceSet invalidates the cached value, then performs an unconditional set,
// bypassing the prevent-unnecessary-set comparison.
func (s *Slot[T]) ForceSet(owner Owner, value T) error {
	if s.cache != nil {
		s.cache.invalidate(owner)
	}
	return s.Set(owner, value)
}

// Recall returns the last value cached for owner. ok is false when nothing
// has been stored since construction or the last invalidation, or when no
// cache layer is composed.
func (s *Slot[T]) Recall(owner Owner) (value T, ok bool) {
	if s.cache == nil {
		return value, false
	}
	return s.cache.recall(owner)
}

// Invalidate erases the cached value for owner.
func (s *Slot[T]) Invalidate(owner Owner) {
	if s.cache != nil {
		s.cache.invalidate(owner)
	}
}

// Stats returns the timing statistics accumulated for owner under key
// ("get", "set", "failed_get", "failed_set"). Without a stats layer it
// returns zero statistics.
func (s *Slot[T]) Stats(owner Owner, key string) stats.Stats {
	if s.statsL == nil {
		return stats.Stats{}
	}
	return s.statsL.running(owner).Stats(key)
}

// ConfigGet resolves the configuration value for key. A nil owner reads the
// shared class-level value; a non-nil owner resolves its override first.
func (s *Slot[T]) ConfigGet(owner Owner, key string) (any, error) {
	store, ok := s.configs[key]
	if !ok {
		return nil, declErrf(s.name.String(), "got an unexpected configuration key %q", key)
	}
	return store.get(owner, key), nil
}

// ConfigSet validates and writes the configuration value for key. A nil
// owner updates the shared value; a non-nil owner stores an override visible
// only through that instance.
func (s *Slot[T]) ConfigSet(owner Owner, key string, value any) error {
	store, ok := s.configs[key]
	if !ok {
		return declErrf(s.name.String(), "got an unexpected configuration key %q", key)
	}
	return store.set(owner, key, value)
}

// OnConfigSet registers fn to run after every successful configuration write
// on this slot, shared or per-instance, with the owner the write addressed.
func (s *Slot[T]) OnConfigSet(fn func(owner Owner, key string, value any)) {
	seen := make(map[*configStore]bool)
	for _, store := range s.configs {
		if seen[store] {
			continue
		}
		seen[store] = true
		prev := store.onSet
		store.onSet = func(owner Owner, key string, value any) {
			if prev != nil {
				prev(owner, key, value)
			}
			fn(owner, key, value)
		}
	}
}

// ConfigEach yields every resolved (key, value) configuration pair for owner.
func (s *Slot[T]) ConfigEach(owner Owner, fn func(key string, value any)) {
	for _, l := range s.layers {
		if c, ok := l.(configurable); ok {
			for _, store := range c.configStores() {
				store.each(owner, fn)
			}
		}
	}
}

// baseAccessor terminates the chain at the underlying getter, setter, and
// deleter. Missing accessors surface as access-mode errors.
type baseAccessor[T any] struct {
	slot *Slot[T]
	fget GetFunc[T]
	fset SetFunc[T]
	fdel DeleteFunc
}

func (b *baseAccessor[T]) get(owner Owner) (T, error) {
	if b.fget == nil {
		var zero T
		return zero, &AccessError{Name: b.slot.name, Op: "get"}
	}
	return b.fget(owner)
}

func (b *baseAccessor[T]) set(owner Owner, value T) error {
	if b.fset == nil {
		return &AccessError{Name: b.slot.name, Op: "set"}
	}
	return b.fset(owner, value)
}

func (b *baseAccessor[T]) del(owner Owner) error {
	if b.fdel == nil {
		return &AccessError{Name: b.slot.name, Op: "delete"}
	}
	return b.fdel(owner)
}
