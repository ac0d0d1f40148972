package fields

import (
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"
)

// Registry caches one table per struct type. Registered tables win;
// other types get a reflective table built once and kept for the life of
// the registry. It is safe for concurrent use.
type Registry struct {
	tables sync.Map // reflect.Type -> *Table
	builds singleflight.Group
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default is the process-wide registry generated code registers into.
var Default = NewRegistry()

// Register stores t for its type, replacing any earlier table.
func (r *Registry) Register(t *Table) {
	r.tables.Store(t.Type(), t)
}

// Lookup returns the table cached for rt, if any.
func (r *Registry) Lookup(rt reflect.Type) (*Table, bool) {
	v, ok := r.tables.Load(rt)
	if !ok {
		return nil, false
	}

	return v.(*Table), true
}

// For returns the table of struct type rt, building it reflectively on first use.
func (r *Registry) For(rt reflect.Type) (*Table, error) {
	if t, ok := r.Lookup(rt); ok {
		return t, nil
	}

	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, errors.Newf("fields: %v is not a struct type", rt)
	}

	v, err, _ := r.builds.Do(rt.PkgPath()+"|"+rt.String(), func() (any, error) {
		t, err := Reflect(rt)
		if err != nil {
			return nil, err
		}

		actual, _ := r.tables.LoadOrStore(rt, t)

		return actual, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "building table for %s", rt)
	}

	t := v.(*Table)
	if t.Type() != rt {
		// two distinct types shared a flight key
		return Reflect(rt)
	}

	return t, nil
}

// Register stores t in the Default registry.
func Register(t *Table) {
	Default.Register(t)
}

// For returns the Default registry's table for T.
func For[T any]() (*Table, error) {
	return Default.For(reflect.TypeFor[T]())
}

// MustFor is like For but panics on error. Generated code uses it to embed
// tables of types declared in other packages.
func MustFor[T any]() *Table {
	t, err := For[T]()
	if err != nil {
		panic(err)
	}

	return t
}
