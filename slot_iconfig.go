package slots

// WithConfig attaches a caller-declared configuration schema to the slot
// without intercepting accesses. Shared values resolve through a nil owner;
// declarations marked PerInstance accept per-owner overrides kept in the
// owner's storage. Getter and setter closures read the resolved values
// through Slot.ConfigGet.
func WithConfig[T any](schema *Schema, values ...ConfigValues) SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		store, err := newConfigStore("config", schema, mergeConfigValues(values))
		if err != nil {
			return err
		}
		cfg.layers = append(cfg.layers, &configLayer[T]{config: store})
		return nil
	}
}

type configLayer[T any] struct {
	config *configStore
}

func (c *configLayer[T]) wrap(s *Slot[T], next accessor[T]) accessor[T] {
	return next
}

func (c *configLayer[T]) requires() []Capability {
	for _, name := range c.config.schema.Names() {
		if decl, ok := c.config.schema.Slot(name); ok && decl.PerInstance {
			return []Capability{CapStorage}
		}
	}
	return nil
}

func (c *configLayer[T]) configStores() []*configStore {
	return []*configStore{c.config}
}
