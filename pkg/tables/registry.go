package tables

import (
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotRegistered is returned when no binding exists for a type or table.
var ErrNotRegistered = errors.New("entity not registered")

// Registry holds the bindings of registered entities. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byType  map[reflect.Type]*Binding
	byTable map[string]*Binding
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byType:  make(map[reflect.Type]*Binding),
		byTable: make(map[string]*Binding),
	}
}

// Add stores b. Adding a second binding for the same Go type replaces the first,
// while binding two different types to one table is an error.
func (r *Registry) Add(b *Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := b.Schema.QualifiedName()
	if prev, ok := r.byTable[table]; ok && prev.Entity.Type != b.Entity.Type {
		return errors.Errorf("table %s is already bound to %s", table, prev.Entity.Type)
	}

	if prev, ok := r.byType[b.Entity.Type]; ok {
		delete(r.byTable, prev.Schema.QualifiedName())
	}

	r.byType[b.Entity.Type] = b
	r.byTable[table] = b
	return nil
}

// Lookup returns the binding for t. Pointer types resolve to their element.
func (r *Registry) Lookup(t reflect.Type) (*Binding, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if b, ok := r.byType[t]; ok {
		return b, nil
	}

	return nil, errors.Wrapf(ErrNotRegistered, "type %s", t)
}

// ByTable returns the binding for a "db.table" name.
func (r *Registry) ByTable(name string) (*Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if b, ok := r.byTable[name]; ok {
		return b, nil
	}

	return nil, errors.Wrapf(ErrNotRegistered, "table %s", name)
}

// All returns every binding sorted by qualified table name.
func (r *Registry) All() []*Binding {
	r.mu.RLock()
	out := make([]*Binding, 0, len(r.byTable))
	for _, b := range r.byTable {
		out = append(out, b)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Schema.QualifiedName() < out[j].Schema.QualifiedName()
	})

	return out
}

// Len returns the number of registered bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byType)
}
