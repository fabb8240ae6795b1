package slots

import "github.com/goliatone/go-slots/pkg/stats"

// CallFunc is the underlying operation a method wraps.
type CallFunc[R any] func(owner Owner, args ...any) (R, error)

// caller is the single-operation counterpart of accessor for method chains.
type caller[R any] interface {
	call(owner Owner, args []any) (R, error)
}

// methodLayer is one unit in a method's interception chain.
type methodLayer[R any] interface {
	wrap(m *Method[R], next caller[R]) caller[R]
	requires() []Capability
}

// Method is a named operation governed by an interceptor chain, the call-side
// counterpart of Slot. Construct one with NewMethod, bind it with Bind, and
// invoke it with Call or Async.
type Method[R any] struct {
	name     AttrName
	chain    caller[R]
	layers   []methodLayer[R]
	registry *Registry
	configs  map[string]*configStore

	statsL *methodStatsLayer[R]
}

// MethodOption composes a layer on NewMethod. Layer options wrap in the order
// given: the first listed layer runs outermost.
type MethodOption[R any] func(*methodConfig[R]) error

type methodConfig[R any] struct {
	layers   []methodLayer[R]
	registry *Registry
}

// WithMethodRegistry binds the method's storage namespaces to a registry
// other than the process-wide default.
func WithMethodRegistry[R any](registry *Registry) MethodOption[R] {
	return func(cfg *methodConfig[R]) error {
		cfg.registry = registry
		return nil
	}
}

// NewMethod constructs a method named name wrapping fn.
func NewMethod[R any](name string, fn CallFunc[R], opts ...MethodOption[R]) (*Method[R], error) {
	if fn == nil {
		return nil, declErrf(name, "a method requires an underlying function")
	}
	cfg := methodConfig[R]{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	m := &Method[R]{
		name:     Name(name),
		layers:   cfg.layers,
		registry: cfg.registry,
		configs:  make(map[string]*configStore),
	}
	if m.registry == nil {
		m.registry = DefaultRegistry
	}

	chain := caller[R](baseCaller[R]{fn: fn})
	for i := len(cfg.layers) - 1; i >= 0; i-- {
		chain = cfg.layers[i].wrap(m, chain)
	}
	m.chain = chain

	for _, l := range cfg.layers {
		c, ok := l.(configurable)
		if !ok {
			continue
		}
		for _, store := range c.configStores() {
			store.bind(m.name, nsIConfigM)
			for _, key := range store.schema.Names() {
				if _, dup := m.configs[key]; dup {
					return nil, declErrf(name, "configuration key %q declared by more than one layer", key)
				}
				m.configs[key] = store
			}
		}
	}
	return m, nil
}

// MustNewMethod is NewMethod that panics on error.
func MustNewMethod[R any](name string, fn CallFunc[R], opts ...MethodOption[R]) *Method[R] {
	m, err := NewMethod(name, fn, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Bind audits the owner type's capabilities against every composed layer.
func (m *Method[R]) Bind(proto Owner) error {
	for _, l := range m.layers {
		if err := auditCapabilities(m.name, proto, l.requires()); err != nil {
			return err
		}
		if n, ok := l.(namespaced); ok {
			for _, b := range n.namespaces() {
				if err := m.registry.Register(b.ns, b.family, b.init); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// MustBind is Bind that panics on error.
func (m *Method[R]) MustBind(proto Owner) *Method[R] {
	if err := m.Bind(proto); err != nil {
		panic(err)
	}
	return m
}

// Name returns the method's name.
func (m *Method[R]) Name() AttrName {
	return m.name
}

// Call invokes the method through the interception chain.
func (m *Method[R]) Call(owner Owner, args ...any) (R, error) {
	return m.chain.call(owner, args)
}

// Async submits the call to the owner's executor and returns a future for
// its result. Calls submitted to one owner run on a single background worker
// in submission order; the calling goroutine never blocks.
func (m *Method[R]) Async(owner Owner, args ...any) (*Future[R], error) {
	h, ok := owner.(HasExecutor)
	if !ok {
		return nil, declErrf(m.name.String(), "owner type %T does not provide the required executor capability", owner)
	}
	future := newFuture[R]()
	h.Executor().Submit(func() {
		future.complete(m.Call(owner, args...))
	})
	return future, nil
}

// Stats returns the timing statistics accumulated for owner under key
// ("call", "failed_call"). Without a stats layer it returns zero statistics.
func (m *Method[R]) Stats(owner Owner, key string) stats.Stats {
	if m.statsL == nil {
		return stats.Stats{}
	}
	return m.statsL.running(owner).Stats(key)
}

// ConfigGet resolves the configuration value for key; see Slot.ConfigGet.
func (m *Method[R]) ConfigGet(owner Owner, key string) (any, error) {
	store, ok := m.configs[key]
	if !ok {
		return nil, declErrf(m.name.String(), "got an unexpected configuration key %q", key)
	}
	return store.get(owner, key), nil
}

// ConfigSet validates and writes the configuration value for key; see
// Slot.ConfigSet.
func (m *Method[R]) ConfigSet(owner Owner, key string, value any) error {
	store, ok := m.configs[key]
	if !ok {
		return declErrf(m.name.String(), "got an unexpected configuration key %q", key)
	}
	return store.set(owner, key, value)
}

type baseCaller[R any] struct {
	fn CallFunc[R]
}

func (b baseCaller[R]) call(owner Owner, args []any) (R, error) {
	return b.fn(owner, args...)
}

// WithMethodLogging composes call logging through the owner's logger:
// invocation and return at info level, failures at error level.
func WithMethodLogging[R any]() MethodOption[R] {
	return func(cfg *methodConfig[R]) error {
		cfg.layers = append(cfg.layers, &methodLoggingLayer[R]{})
		return nil
	}
}

type methodLoggingLayer[R any] struct {
	method *Method[R]
	next   caller[R]
}

func (l *methodLoggingLayer[R]) wrap(m *Method[R], next caller[R]) caller[R] {
	l.method = m
	l.next = next
	return l
}

func (l *methodLoggingLayer[R]) requires() []Capability {
	return []Capability{CapLogger}
}

func (l *methodLoggingLayer[R]) call(owner Owner, args []any) (R, error) {
	logger := ownerLogger(owner)
	logger.Log(InfoLevel, "calling %s with %v", l.method.name, args)
	ret, err := l.next.call(owner, args)
	if err != nil {
		logger.Log(ErrorLevel, "while calling %s with %v: %v", l.method.name, args, err)
		return ret, err
	}
	logger.Log(InfoLevel, "%s returned %v", l.method.name, ret)
	return ret, nil
}

// WithMethodLocking composes mutual exclusion around the call, sharing the
// owner's reentrant lock with locked slots so a method body may access them.
func WithMethodLocking[R any]() MethodOption[R] {
	return func(cfg *methodConfig[R]) error {
		cfg.layers = append(cfg.layers, &methodLockingLayer[R]{})
		return nil
	}
}

type methodLockingLayer[R any] struct {
	next caller[R]
}

func (l *methodLockingLayer[R]) wrap(m *Method[R], next caller[R]) caller[R] {
	l.next = next
	return l
}

func (l *methodLockingLayer[R]) requires() []Capability {
	return []Capability{CapLock}
}

func (l *methodLockingLayer[R]) call(owner Owner, args []any) (R, error) {
	if lock := ownerLock(owner); lock != nil {
		lock.Lock()
		defer lock.Unlock()
	}
	return l.next.call(owner, args)
}

// WithMethodStats composes call timing statistics, accumulated per owner
// under "call" and "failed_call" in the method statistics namespace.
func WithMethodStats[R any]() MethodOption[R] {
	return func(cfg *methodConfig[R]) error {
		cfg.layers = append(cfg.layers, &methodStatsLayer[R]{})
		return nil
	}
}

type methodStatsLayer[R any] struct {
	method *Method[R]
	next   caller[R]
}

func (l *methodStatsLayer[R]) wrap(m *Method[R], next caller[R]) caller[R] {
	l.method = m
	l.next = next
	m.statsL = l
	return l
}

func (l *methodStatsLayer[R]) requires() []Capability {
	return []Capability{CapStorage}
}

func (l *methodStatsLayer[R]) running(owner Owner) *stats.Running {
	h, ok := owner.(HasStorage)
	if !ok {
		return stats.NewRunning()
	}
	return h.Storage().GetOrCreate(nsStatsM, l.method.name, func() any {
		return stats.NewRunning()
	}).(*stats.Running)
}

func (l *methodStatsLayer[R]) call(owner Owner, args []any) (R, error) {
	var ret R
	err := l.running(owner).Time("call", func() error {
		var err error
		ret, err = l.next.call(owner, args)
		return err
	})
	return ret, err
}

// ArgTransform rewrites the argument list before the underlying function
// runs.
type ArgTransform func(owner Owner, args []any) ([]any, error)

// WithMethodTransform composes argument and return-value transformation,
// held as per-instance configuration under the pre_call and post_call keys.
// Either transform may be nil.
func WithMethodTransform[R any](preCall ArgTransform, postCall Transform[R]) MethodOption[R] {
	return func(cfg *methodConfig[R]) error {
		schema := NewSchema(
			ConfigSlot{
				Name:        "pre_call",
				Default:     nil,
				Doc:         "rewrites the argument list before the call",
				PerInstance: true,
			},
			ConfigSlot{
				Name:        "post_call",
				Default:     nil,
				Doc:         "rewrites the returned value after the call",
				PerInstance: true,
			},
		)
		values := ConfigValues{}
		if preCall != nil {
			values["pre_call"] = preCall
		}
		if postCall != nil {
			values["post_call"] = postCall
		}
		store, err := newConfigStore("method-transform", schema, values)
		if err != nil {
			return err
		}
		cfg.layers = append(cfg.layers, &methodTransformLayer[R]{config: store})
		return nil
	}
}

type methodTransformLayer[R any] struct {
	method *Method[R]
	next   caller[R]
	config *configStore
}

func (l *methodTransformLayer[R]) wrap(m *Method[R], next caller[R]) caller[R] {
	l.method = m
	l.next = next
	return l
}

func (l *methodTransformLayer[R]) requires() []Capability {
	return []Capability{CapStorage}
}

func (l *methodTransformLayer[R]) configStores() []*configStore {
	return []*configStore{l.config}
}

func (l *methodTransformLayer[R]) call(owner Owner, args []any) (R, error) {
	if fn, _ := l.config.get(owner, "pre_call").(ArgTransform); fn != nil {
		out, err := fn(owner, args)
		if err != nil {
			ownerLogger(owner).Log(ErrorLevel, "while transforming arguments %v for %s: %v", args, l.method.name, err)
			var zero R
			return zero, err
		}
		args = out
	}
	ret, err := l.next.call(owner, args)
	if err != nil {
		return ret, err
	}
	if fn, _ := l.config.get(owner, "post_call").(Transform[R]); fn != nil {
		out, err := fn(owner, ret)
		if err != nil {
			ownerLogger(owner).Log(ErrorLevel, "while transforming %v returned by %s: %v", ret, l.method.name, err)
			var zero R
			return zero, err
		}
		ret = out
	}
	return ret, nil
}
