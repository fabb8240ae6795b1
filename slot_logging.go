package slots

import "fmt"

// WithLogging composes access logging through the owner's logger: reads are
// announced at info level, everything else at debug level, failures at error
// level. The log_values configuration key (per-instance configurable)
// controls how values appear in the records: true logs them as-is, a
// func(any) any formats them, and anything else logs the value's type only.
func WithLogging[T any](values ...ConfigValues) SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		store, err := newConfigStore("logging", loggingSchema, mergeConfigValues(values))
		if err != nil {
			return err
		}
		cfg.layers = append(cfg.layers, &loggingLayer[T]{config: store})
		return nil
	}
}

var loggingSchema = NewSchema(ConfigSlot{
	Name:        "log_values",
	Default:     true,
	Doc:         "value logging policy: true, a formatter func, or anything else for type-only",
	PerInstance: true,
})

type loggingLayer[T any] struct {
	slot   *Slot[T]
	next   accessor[T]
	config *configStore
}

func (l *loggingLayer[T]) wrap(s *Slot[T], next accessor[T]) accessor[T] {
	l.slot = s
	l.next = next
	return l
}

func (l *loggingLayer[T]) requires() []Capability {
	return []Capability{CapLogger}
}

func (l *loggingLayer[T]) configStores() []*configStore {
	return []*configStore{l.config}
}

// loggable applies the owner's log_values policy to value.
func (l *loggingLayer[T]) loggable(owner Owner, value any) any {
	switch policy := l.config.get(owner, "log_values").(type) {
	case bool:
		if policy {
			return value
		}
	case func(any) any:
		return policy(value)
	}
	return fmt.Sprintf("%T", value)
}

func (l *loggingLayer[T]) get(owner Owner) (T, error) {
	logger := ownerLogger(owner)
	logger.Log(InfoLevel, "getting %s", l.slot.name)
	value, err := l.next.get(owner)
	if err != nil {
		logger.Log(ErrorLevel, "while getting %s: %v", l.slot.name, err)
		return value, err
	}
	logger.Log(DebugLevel, "got %v for %s", l.loggable(owner, value), l.slot.name)
	return value, nil
}

func (l *loggingLayer[T]) set(owner Owner, value T) error {
	logger := ownerLogger(owner)
	logger.Log(DebugLevel, "setting %s to %v", l.slot.name, l.loggable(owner, value))
	if err := l.next.set(owner, value); err != nil {
		logger.Log(ErrorLevel, "while setting %s to %v: %v", l.slot.name, l.loggable(owner, value), err)
		return err
	}
	logger.Log(DebugLevel, "%s was set to %v", l.slot.name, l.loggable(owner, value))
	return nil
}

func (l *loggingLayer[T]) del(owner Owner) error {
	logger := ownerLogger(owner)
	logger.Log(DebugLevel, "deleting %s", l.slot.name)
	if err := l.next.del(owner); err != nil {
		logger.Log(ErrorLevel, "while deleting %s: %v", l.slot.name, err)
		return err
	}
	logger.Log(DebugLevel, "%s was deleted", l.slot.name)
	return nil
}
