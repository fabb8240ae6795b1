package slots

// Transform rewrites a value on its way through the chain. Returning an error
// aborts the access with that error.
type Transform[T any] func(owner Owner, value T) (T, error)

// WithTransform composes value transformation: preSet rewrites values before
// they reach the underlying setter, postGet rewrites values read from the
// underlying getter. Both are held as per-instance configuration under the
// pre_set and post_get keys, so one instance can swap its transforms without
// touching the others. Either may be nil.
func WithTransform[T any](preSet, postGet Transform[T]) SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		schema := NewSchema(
			ConfigSlot{
				Name:        "pre_set",
				Default:     nil,
				Doc:         "rewrites values before the underlying set",
				PerInstance: true,
			},
			ConfigSlot{
				Name:        "post_get",
				Default:     nil,
				Doc:         "rewrites values after the underlying get",
				PerInstance: true,
			},
		)
		values := ConfigValues{}
		if preSet != nil {
			values["pre_set"] = preSet
		}
		if postGet != nil {
			values["post_get"] = postGet
		}
		store, err := newConfigStore("transform", schema, values)
		if err != nil {
			return err
		}
		cfg.layers = append(cfg.layers, &transformLayer[T]{config: store})
		return nil
	}
}

type transformLayer[T any] struct {
	slot   *Slot[T]
	next   accessor[T]
	config *configStore
}

func (t *transformLayer[T]) wrap(s *Slot[T], next accessor[T]) accessor[T] {
	t.slot = s
	t.next = next
	return t
}

func (t *transformLayer[T]) requires() []Capability {
	return []Capability{CapStorage}
}

func (t *transformLayer[T]) configStores() []*configStore {
	return []*configStore{t.config}
}

func (t *transformLayer[T]) transform(owner Owner, key string) Transform[T] {
	fn, _ := t.config.get(owner, key).(Transform[T])
	return fn
}

func (t *transformLayer[T]) get(owner Owner) (T, error) {
	value, err := t.next.get(owner)
	if err != nil {
		return value, err
	}
	fn := t.transform(owner, "post_get")
	if fn == nil {
		return value, nil
	}
	out, err := fn(owner, value)
	if err != nil {
		ownerLogger(owner).Log(ErrorLevel, "while transforming %v read from %s: %v", value, t.slot.name, err)
		var zero T
		return zero, err
	}
	return out, nil
}

func (t *transformLayer[T]) set(owner Owner, value T) error {
	fn := t.transform(owner, "pre_set")
	if fn != nil {
		out, err := fn(owner, value)
		if err != nil {
			ownerLogger(owner).Log(ErrorLevel, "while transforming %v for %s: %v", value, t.slot.name, err)
			return err
		}
		value = out
	}
	return t.next.set(owner, value)
}

func (t *transformLayer[T]) del(owner Owner) error {
	return t.next.del(owner)
}
