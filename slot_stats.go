package slots

import "github.com/goliatone/go-slots/pkg/stats"

// WithStats composes timing statistics: the duration of every access is
// accumulated per owner under "get" and "set", failed accesses under
// "failed_get" and "failed_set". Query the summaries through Slot.Stats.
func WithStats[T any]() SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		cfg.layers = append(cfg.layers, &statsLayer[T]{})
		return nil
	}
}

type statsLayer[T any] struct {
	slot *Slot[T]
	next accessor[T]
}

func (l *statsLayer[T]) wrap(s *Slot[T], next accessor[T]) accessor[T] {
	l.slot = s
	l.next = next
	s.statsL = l
	return l
}

func (l *statsLayer[T]) requires() []Capability {
	return []Capability{CapStorage}
}

// running resolves the per-owner accumulator, creating it on first access.
// Owners without storage get a throwaway accumulator so the access itself
// still works.
func (l *statsLayer[T]) running(owner Owner) *stats.Running {
	h, ok := owner.(HasStorage)
	if !ok {
		return stats.NewRunning()
	}
	return h.Storage().GetOrCreate(nsStats, l.slot.name, func() any {
		return stats.NewRunning()
	}).(*stats.Running)
}

func (l *statsLayer[T]) get(owner Owner) (T, error) {
	var value T
	err := l.running(owner).Time("get", func() error {
		var err error
		value, err = l.next.get(owner)
		return err
	})
	return value, err
}

func (l *statsLayer[T]) set(owner Owner, value T) error {
	return l.running(owner).Time("set", func() error {
		return l.next.set(owner, value)
	})
}

func (l *statsLayer[T]) del(owner Owner) error {
	return l.running(owner).Time("delete", func() error {
		return l.next.del(owner)
	})
}
