package entity

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// RootName is the name of the root class of every tree.
const RootName = "Entity"

// DefaultAdapterName is the adapter name of the root class.
const DefaultAdapterName = "default"

// Tree is a single-rooted generalization tree of entity classes. Class names
// are unique within a tree. Specify calls on any class of the tree are
// serialized by the tree lock.
type Tree struct {
	mu       sync.RWMutex
	root     *Class
	byName   map[string]*Class
	adapters map[string]Adapter
	logger   *zap.Logger
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

// WithLogger sets the logger used for tree mutations.
func WithLogger(l *zap.Logger) TreeOption {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTree creates a tree holding only the root class.
func NewTree(opts ...TreeOption) *Tree {
	t := &Tree{
		byName:   map[string]*Class{},
		adapters: map[string]Adapter{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.root = newRootClass(t)
	t.byName[RootName] = t.root
	return t
}

var (
	defaultMu   sync.Mutex
	defaultTree = NewTree()
)

// Default returns the process-wide tree.
func Default() *Tree {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultTree
}

// ResetDefault replaces the process-wide tree with an empty one.
// This is primarily used for testing purposes.
func ResetDefault(opts ...TreeOption) *Tree {
	t := NewTree(opts...)
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultTree = t
	return t
}

// Root returns the root class of the default tree.
func Root() *Class { return Default().Root() }

// Specify specializes the root class of the default tree.
func Specify(args ...any) (*Class, error) { return Default().Root().Specify(args...) }

// Root returns the root class.
func (t *Tree) Root() *Class { return t.root }

// Logger returns the tree logger.
func (t *Tree) Logger() *zap.Logger { return t.logger }

// Lookup returns the class called name.
func (t *Tree) Lookup(name string) (*Class, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byName[name]
	return c, ok
}

// Names returns the sorted names of every class in the tree.
func (t *Tree) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.byName))
	for n := range t.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of classes including the root.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byName)
}

// RegisterAdapter makes a under name available to instances of classes whose
// adapter name is name. Registering a name twice replaces the adapter.
func (t *Tree) RegisterAdapter(name string, a Adapter) error {
	if name == "" {
		return assertf("adapter name is required")
	}
	if a == nil {
		return assertf("adapter %q is nil", name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.adapters[name] = a
	t.logger.Debug("adapter registered", zap.String("adapter", name))
	return nil
}

// Adapter returns the adapter registered under name.
func (t *Tree) Adapter(name string) (Adapter, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.adapters[name]
	if !ok {
		return nil, errors.WithStack(&AdapterError{Adapter: name, Operation: "lookup", Cause: errAdapterNotFound})
	}
	return a, nil
}

var errAdapterNotFound = errors.New("adapter not registered")

// Walk calls fn for c and every class below it, parents before children,
// siblings in name order. It stops at the first error.
func (t *Tree) Walk(fn func(c *Class, depth int) error) error {
	return t.root.walk(0, fn)
}
