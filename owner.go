package slots

import (
	"sync"

	"github.com/goliatone/go-slots/pkg/observe"
)

// Owner is the object a slot operates on. A nil Owner addresses the shared,
// class-level side of per-instance configuration.
type Owner any

// HasStorage is provided by owners whose slots persist per-instance state
// (caching, statistics, per-instance configuration).
type HasStorage interface {
	Storage() *Storage
}

// HasLock is provided by owners composing the locking layer.
type HasLock interface {
	Lock() *ReentrantLock
}

// HasLogger is provided by owners composing the logging layer.
type HasLogger interface {
	Logger() Logger
}

// HasSignals is provided by owners composing observable slots.
type HasSignals interface {
	Signals() *observe.Table
}

// HasExecutor is provided by owners dispatching method calls in the
// background.
type HasExecutor interface {
	Executor() *Executor
}

// Capability names a behavioral requirement a layer places on the owning
// type. Binding a slot audits every layer's capabilities against the owner
// prototype and fails immediately on a mismatch.
type Capability struct {
	Name  string
	check func(Owner) bool
}

var (
	// CapStorage requires the owner to expose per-instance storage.
	CapStorage = Capability{"storage", func(o Owner) bool { _, ok := o.(HasStorage); return ok }}
	// CapLock requires the owner to expose a reentrant lock.
	CapLock = Capability{"lock", func(o Owner) bool { _, ok := o.(HasLock); return ok }}
	// CapLogger requires the owner to expose a logging sink.
	CapLogger = Capability{"logger", func(o Owner) bool { _, ok := o.(HasLogger); return ok }}
	// CapSignals requires the owner to expose per-slot change channels.
	CapSignals = Capability{"signals", func(o Owner) bool { _, ok := o.(HasSignals); return ok }}
	// CapExecutor requires the owner to expose a background executor.
	CapExecutor = Capability{"executor", func(o Owner) bool { _, ok := o.(HasExecutor); return ok }}
)

func auditCapabilities(slot AttrName, owner Owner, caps []Capability) error {
	for _, cap := range caps {
		if !cap.check(owner) {
			return declErrf(slot.String(), "owner type %T does not provide the required %s capability",
				owner, cap.Name)
		}
	}
	return nil
}

// Base provides every capability the built-in layers require. Embed it in a
// type that owns slots; storage, lock, executor, and signal table are created
// lazily on first use and are exclusive to the embedding instance. The logger
// defaults to NopLogger until SetLogger is called.
type Base struct {
	mu      sync.Mutex
	storage *Storage
	lock    *ReentrantLock
	logger  Logger
	signals *observe.Table
	exec    *Executor
	factory observe.SignalFactory
}

// Storage implements HasStorage.
func (b *Base) Storage() *Storage {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.storage == nil {
		b.storage = NewStorage()
	}
	return b.storage
}

// Lock implements HasLock.
func (b *Base) Lock() *ReentrantLock {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lock == nil {
		b.lock = &ReentrantLock{}
	}
	return b.lock
}

// Logger implements HasLogger.
func (b *Base) Logger() Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.logger == nil {
		return NopLogger
	}
	return b.logger
}

// SetLogger attaches the logging sink slot layers report through.
func (b *Base) SetLogger(logger Logger) {
	b.mu.Lock()
	b.logger = logger
	b.mu.Unlock()
}

// Signals implements HasSignals.
func (b *Base) Signals() *observe.Table {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.signals == nil {
		b.signals = observe.NewTable(b.factory)
	}
	return b.signals
}

// SetSignalFactory installs the factory used to build per-slot change
// channels. It must be called before the first signal is created; signals
// already handed out keep their implementation.
func (b *Base) SetSignalFactory(factory observe.SignalFactory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.factory = factory
	if b.signals != nil {
		b.signals.SetFactory(factory)
	}
}

// Executor implements HasExecutor.
func (b *Base) Executor() *Executor {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.exec == nil {
		b.exec = &Executor{}
	}
	return b.exec
}

// Pending reports background calls submitted for this instance that have not
// finished yet.
func (b *Base) Pending() int {
	return b.Executor().Pending()
}
