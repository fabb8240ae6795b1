package slots

import "reflect"

// CacheMode selects which accesses refresh the cached value.
type CacheMode int

const (
	// CacheNone keeps the cache passive; only layers built on top of it
	// (prevent-unnecessary-set, read-once, observable) store into it.
	CacheNone CacheMode = iota
	// CacheOnGet refreshes the cache after every underlying read. The getter
	// still runs on each access; short-circuiting reads is the read-once
	// layer's job.
	CacheOnGet
	// CacheOnSet records every written value.
	CacheOnSet
	// CacheOnGetSet combines CacheOnGet and CacheOnSet.
	CacheOnGetSet
)

func (m CacheMode) cachesGet() bool { return m == CacheOnGet || m == CacheOnGetSet }
func (m CacheMode) cachesSet() bool { return m == CacheOnSet || m == CacheOnGetSet }

// WithCache composes a caching layer. The cached value lives in the owner's
// storage under the cache namespace, so two instances never share an entry.
func WithCache[T any](mode CacheMode) SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		cfg.layers = append(cfg.layers, &cacheLayer[T]{mode: mode})
		return nil
	}
}

// cacheLayer keeps the last known value per owner and exposes recall, store,
// and invalidate to the layers stacked on top of it. Storing fires the
// registered hooks with the previous value, which is how observable slots
// learn about transitions.
type cacheLayer[T any] struct {
	mode    CacheMode
	slot    *Slot[T]
	next    accessor[T]
	onStore []func(owner Owner, value T, old T, hadOld bool)
}

func (c *cacheLayer[T]) wrap(s *Slot[T], next accessor[T]) accessor[T] {
	c.slot = s
	c.next = next
	s.cache = c
	return c
}

func (c *cacheLayer[T]) requires() []Capability {
	return []Capability{CapStorage}
}

func (c *cacheLayer[T]) get(owner Owner) (T, error) {
	value, err := c.next.get(owner)
	if err != nil {
		var zero T
		return zero, err
	}
	if c.mode.cachesGet() {
		c.store(owner, value)
	}
	return value, nil
}

func (c *cacheLayer[T]) set(owner Owner, value T) error {
	if err := c.next.set(owner, value); err != nil {
		return err
	}
	if c.mode.cachesSet() {
		c.store(owner, value)
	}
	return nil
}

func (c *cacheLayer[T]) del(owner Owner) error {
	if err := c.next.del(owner); err != nil {
		return err
	}
	c.invalidate(owner)
	return nil
}

func (c *cacheLayer[T]) recall(owner Owner) (value T, ok bool) {
	h, has := owner.(HasStorage)
	if !has {
		return value, false
	}
	raw, ok := h.Storage().Get(nsCache, c.slot.name)
	if !ok {
		return value, false
	}
	return raw.(T), true
}

func (c *cacheLayer[T]) store(owner Owner, value T) {
	h, has := owner.(HasStorage)
	if !has {
		return
	}
	st := h.Storage()
	old, hadOld := c.recall(owner)
	st.Set(nsCache, c.slot.name, value)
	for _, hook := range c.onStore {
		hook(owner, value, old, hadOld)
	}
}

func (c *cacheLayer[T]) invalidate(owner Owner) {
	if h, has := owner.(HasStorage); has {
		h.Storage().Delete(nsCache, c.slot.name)
	}
}

// WithPreventUnnecessarySet composes a layer that skips the underlying set
// when the incoming value equals the one cached for the owner. ForceSet
// bypasses the comparison.
func WithPreventUnnecessarySet[T any]() SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		cfg.layers = append(cfg.layers, &preventLayer[T]{})
		return nil
	}
}

type preventLayer[T any] struct {
	slot *Slot[T]
	next accessor[T]
}

func (p *preventLayer[T]) wrap(s *Slot[T], next accessor[T]) accessor[T] {
	p.slot = s
	p.next = next
	return p
}

func (p *preventLayer[T]) requires() []Capability {
	return []Capability{CapStorage}
}

func (p *preventLayer[T]) needsCache() {}

func (p *preventLayer[T]) afterCompose(s *Slot[T]) error {
	if s.cache == nil {
		return declErrf(s.name.String(), "prevent-unnecessary-set requires a cache layer")
	}
	return nil
}

func (p *preventLayer[T]) get(owner Owner) (T, error) {
	return p.next.get(owner)
}

func (p *preventLayer[T]) set(owner Owner, value T) error {
	if cached, ok := p.slot.cache.recall(owner); ok && reflect.DeepEqual(cached, value) {
		ownerLogger(owner).Log(InfoLevel, "no need to set %s, unchanged value %v", p.slot.name, value)
		return nil
	}
	if err := p.next.set(owner, value); err != nil {
		return err
	}
	p.slot.cache.store(owner, value)
	return nil
}

func (p *preventLayer[T]) del(owner Owner) error {
	return p.next.del(owner)
}

// WithReadOnce composes a layer that reads the underlying value once per
// owner and serves the cached value afterwards. The behavior toggles through
// the read_once configuration key, which is per-instance configurable.
func WithReadOnce[T any](values ...ConfigValues) SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		store, err := newConfigStore("read-once", readOnceSchema, mergeConfigValues(values))
		if err != nil {
			return err
		}
		cfg.layers = append(cfg.layers, &readOnceLayer[T]{config: store})
		return nil
	}
}

var readOnceSchema = NewSchema(ConfigSlot{
	Name:        "read_once",
	ValidValues: []any{true, false},
	Default:     true,
	Doc:         "serve the cached value after the first underlying read",
	PerInstance: true,
})

type readOnceLayer[T any] struct {
	slot   *Slot[T]
	next   accessor[T]
	config *configStore
}

func (r *readOnceLayer[T]) wrap(s *Slot[T], next accessor[T]) accessor[T] {
	r.slot = s
	r.next = next
	return r
}

func (r *readOnceLayer[T]) requires() []Capability {
	return []Capability{CapStorage}
}

func (r *readOnceLayer[T]) needsCache() {}

func (r *readOnceLayer[T]) configStores() []*configStore {
	return []*configStore{r.config}
}

func (r *readOnceLayer[T]) afterCompose(s *Slot[T]) error {
	if s.cache == nil {
		return declErrf(s.name.String(), "read-once requires a cache layer")
	}
	return nil
}

func (r *readOnceLayer[T]) enabled(owner Owner) bool {
	enabled, _ := r.config.get(owner, "read_once").(bool)
	return enabled
}

func (r *readOnceLayer[T]) get(owner Owner) (T, error) {
	if r.enabled(owner) {
		if value, ok := r.slot.cache.recall(owner); ok {
			return value, nil
		}
	}
	value, err := r.next.get(owner)
	if err != nil {
		var zero T
		return zero, err
	}
	// The cache is refreshed on every underlying read; the flag only
	// controls whether the next read is served from it.
	r.slot.cache.store(owner, value)
	return value, nil
}

func (r *readOnceLayer[T]) set(owner Owner, value T) error {
	return r.next.set(owner, value)
}

func (r *readOnceLayer[T]) del(owner Owner) error {
	return r.next.del(owner)
}
