package slots

import (
	"sync"
)

// Family identifies a layer family for namespace ownership. Families related
// through the Parent chain may share a namespace; unrelated families may not.
type Family struct {
	Name   string
	Parent *Family
}

// NewFamily declares a layer family. Pass a parent to extend an existing
// family and share its namespace.
func NewFamily(name string, parent *Family) *Family {
	return &Family{Name: name, Parent: parent}
}

func (f *Family) relatedTo(other *Family) bool {
	for p := f; p != nil; p = p.Parent {
		if p == other {
			return true
		}
	}
	for p := other; p != nil; p = p.Parent {
		if p == f {
			return true
		}
	}
	return false
}

// SpaceInit produces the empty per-instance structure for a namespace.
type SpaceInit func() map[AttrName]any

func emptySpace() map[AttrName]any {
	return make(map[AttrName]any)
}

// Registry maps storage namespaces to the family that owns them. The first
// registrant binds the namespace and its initializer; a later registrant must
// be related to the owner through its Parent chain or registration fails.
// Registration happens at definition time, so collisions between unrelated
// families surface before any instance stores a value.
type Registry struct {
	mu     sync.Mutex
	owners map[string]*Family
	inits  map[string]SpaceInit
}

// NewRegistry constructs an empty namespace registry.
func NewRegistry() *Registry {
	return &Registry{
		owners: make(map[string]*Family),
		inits:  make(map[string]SpaceInit),
	}
}

// DefaultRegistry holds the process-wide namespace bindings used by the
// built-in layers. Custom layers register here unless a slot is given its own
// registry.
var DefaultRegistry = NewRegistry()

// Register binds namespace to family. The first registration must supply the
// initializer; later registrations by the same or a related family are no-ops.
func (r *Registry) Register(namespace string, family *Family, init SpaceInit) error {
	if namespace == "" {
		return declErrf("", "family %s must specify a storage namespace", familyName(family))
	}
	if family == nil {
		return declErrf("", "namespace %s must be registered by a family", namespace)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.owners[namespace]; ok {
		if !family.relatedTo(owner) {
			return declErrf("", "family %s storage namespace (%s) collides with family %s",
				family.Name, namespace, owner.Name)
		}
		return nil
	}

	if init == nil {
		return declErrf("", "family %s must specify a storage initializer for namespace %s",
			family.Name, namespace)
	}
	r.owners[namespace] = family
	r.inits[namespace] = init
	return nil
}

// Owner returns the family bound to namespace, if any.
func (r *Registry) Owner(namespace string) (*Family, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[namespace]
	return owner, ok
}

func (r *Registry) initializer(namespace string) SpaceInit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inits[namespace]
}

func familyName(f *Family) string {
	if f == nil {
		return "<nil>"
	}
	return f.Name
}

// Storage is the private per-instance key-value area, subdivided into
// namespaces owned by layer families and keyed by attribute name. Instances
// own their storage exclusively; layers only compute the keys.
type Storage struct {
	mu       sync.Mutex
	registry *Registry
	spaces   map[string]map[AttrName]any
}

// NewStorage constructs a storage area resolving namespace initializers from
// the default registry.
func NewStorage() *Storage {
	return NewStorageWith(DefaultRegistry)
}

// NewStorageWith constructs a storage area bound to registry.
func NewStorageWith(registry *Registry) *Storage {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &Storage{registry: registry}
}

func (s *Storage) ensure(namespace string) map[AttrName]any {
	if s.spaces == nil {
		s.spaces = make(map[string]map[AttrName]any)
	}
	space, ok := s.spaces[namespace]
	if !ok {
		if init := s.registry.initializer(namespace); init != nil {
			space = init()
		}
		if space == nil {
			space = emptySpace()
		}
		s.spaces[namespace] = space
	}
	return space
}

// Get reads the value stored for name under namespace.
func (s *Storage) Get(namespace string, name AttrName) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.ensure(namespace)[name]
	return value, ok
}

// GetOrCreate reads the value for name under namespace, creating it with init
// on first access. Creation is atomic with respect to other storage calls.
func (s *Storage) GetOrCreate(namespace string, name AttrName, init func() any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	space := s.ensure(namespace)
	if value, ok := space[name]; ok {
		return value
	}
	value := init()
	space[name] = value
	return value
}

// Set stores value for name under namespace.
func (s *Storage) Set(namespace string, name AttrName, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(namespace)[name] = value
}

// Delete erases the value for name under namespace. Deleting a key that was
// never stored is a no-op.
func (s *Storage) Delete(namespace string, name AttrName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ensure(namespace), name)
}

// Built-in namespaces and the families that own them.
const (
	nsStats    = "stats"
	nsCache    = "cache"
	nsIConfig  = "iconfig"
	nsStatsM   = "statsm"
	nsIConfigM = "iconfigm"
)

var (
	statsFamily         = NewFamily("stats", nil)
	cacheFamily         = NewFamily("cache", nil)
	iconfigFamily       = NewFamily("iconfig", nil)
	statsMethodFamily   = NewFamily("statsm", nil)
	iconfigMethodFamily = NewFamily("iconfigm", nil)
)

func init() {
	builtin := []struct {
		ns     string
		family *Family
	}{
		{nsStats, statsFamily},
		{nsCache, cacheFamily},
		{nsIConfig, iconfigFamily},
		{nsStatsM, statsMethodFamily},
		{nsIConfigM, iconfigMethodFamily},
	}
	for _, b := range builtin {
		if err := DefaultRegistry.Register(b.ns, b.family, emptySpace); err != nil {
			panic(err)
		}
	}
}
