package slots

// WithLocking composes mutual exclusion: every access holds the owner's
// reentrant lock for its full duration, including the layers beneath. The
// lock is shared by every locked slot of the instance, so a getter that reads
// a sibling slot re-enters without deadlocking.
func WithLocking[T any]() SlotOption[T] {
	return func(cfg *slotConfig[T]) error {
		cfg.layers = append(cfg.layers, &lockingLayer[T]{})
		return nil
	}
}

type lockingLayer[T any] struct {
	next accessor[T]
}

func (l *lockingLayer[T]) wrap(s *Slot[T], next accessor[T]) accessor[T] {
	l.next = next
	return l
}

func (l *lockingLayer[T]) requires() []Capability {
	return []Capability{CapLock}
}

func ownerLock(owner Owner) *ReentrantLock {
	if h, ok := owner.(HasLock); ok {
		return h.Lock()
	}
	return nil
}

func (l *lockingLayer[T]) get(owner Owner) (T, error) {
	if lock := ownerLock(owner); lock != nil {
		lock.Lock()
		defer lock.Unlock()
	}
	return l.next.get(owner)
}

func (l *lockingLayer[T]) set(owner Owner, value T) error {
	if lock := ownerLock(owner); lock != nil {
		lock.Lock()
		defer lock.Unlock()
	}
	return l.next.set(owner, value)
}

func (l *lockingLayer[T]) del(owner Owner) error {
	if lock := ownerLock(owner); lock != nil {
		lock.Lock()
		defer lock.Unlock()
	}
	return l.next.del(owner)
}
