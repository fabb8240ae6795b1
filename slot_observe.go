package slots

import (
	"reflect"

	"github.com/goliatone/go-slots/pkg/observe"
)

// WithObservable composes change notification: every cached-value transition
// for an owner is emitted on the owner's signal for this slot. A transition
// that stores the value already cached produces no event; the first stored
// value always does.
func WithObservable[T any]() SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		cfg.layers = append(cfg.layers, &observableLayer[T]{})
		return nil
	}
}

// observableLayer records every successful write in the cache and hooks the
// cache layer's store path, so transitions are observed no matter which layer
// stored the value. Emission and deduplication happen in the store hook; a
// store of the value already cached is silent.
type observableLayer[T any] struct {
	slot *Slot[T]
	next accessor[T]
}

func (o *observableLayer[T]) wrap(s *Slot[T], next accessor[T]) accessor[T] {
	o.slot = s
	o.next = next
	return o
}

func (o *observableLayer[T]) get(owner Owner) (T, error) {
	return o.next.get(owner)
}

func (o *observableLayer[T]) set(owner Owner, value T) error {
	if err := o.next.set(owner, value); err != nil {
		return err
	}
	o.slot.cache.store(owner, value)
	return nil
}

func (o *observableLayer[T]) del(owner Owner) error {
	return o.next.del(owner)
}

func (o *observableLayer[T]) requires() []Capability {
	return []Capability{CapStorage, CapSignals}
}

func (o *observableLayer[T]) needsCache() {}

func (o *observableLayer[T]) afterCompose(s *Slot[T]) error {
	if s.cache == nil {
		return declErrf(s.name.String(), "observable requires a cache layer")
	}
	s.cache.onStore = append(s.cache.onStore, o.stored)
	return nil
}

func (o *observableLayer[T]) stored(owner Owner, value T, old T, hadOld bool) {
	if hadOld && reflect.DeepEqual(old, value) {
		return
	}
	h, ok := owner.(HasSignals)
	if !ok {
		return
	}
	change := observe.Change{
		Name:   o.slot.name.String(),
		Key:    o.slot.name.Key,
		New:    value,
		HasOld: hadOld,
	}
	if hadOld {
		change.Old = old
	}
	h.Signals().Signal(o.slot.name.Name).Emit(change)
}
