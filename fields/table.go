package fields

import (
	"reflect"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ErrInstanceType is returned by getters and setters handed an instance that
// is not a pointer to the table's type.
var ErrInstanceType = errors.New("fields: instance does not match table type")

// Getter reads a field of obj. ok is false when the field has no storage
// (it sits behind a nil embedded pointer).
type Getter func(obj any) (value any, ok bool, err error)

// Setter writes a field of obj, allocating embedded pointers on the way.
type Setter func(obj any, value any) error

// Field is a Descriptor with its access functions.
type Field struct {
	Descriptor

	get Getter
	set Setter
}

// Get reads the field from obj.
func (f Field) Get(obj any) (any, bool, error) {
	return f.get(obj)
}

// Set writes value into the field of obj.
func (f Field) Set(obj any, value any) error {
	return f.set(obj, value)
}

// Accessor describes one field of T for Own. Declaring defaults to T and
// Path to the empty path; generated code sets both for fields it inlines
// from embedded structs of the same package.
type Accessor[T any] struct {
	Field     string
	Exported  bool
	Declaring TypeID
	Path      []string
	Get       func(x *T) (any, bool)
	Set       func(x *T, v any) error
}

// Own turns typed accessors into fields of T.
func Own[T any](accessors ...Accessor[T]) []Field {
	self := TypeIDOf(reflect.TypeFor[T]())

	return lo.Map(accessors, func(a Accessor[T], _ int) Field {
		declaring := a.Declaring
		if declaring == (TypeID{}) {
			declaring = self
		}

		get, set := a.Get, a.Set

		return Field{
			Descriptor: Descriptor{
				Name:      a.Field,
				Field:     a.Field,
				Exported:  a.Exported,
				Declaring: declaring,
				Path:      slices.Clone(a.Path),
			},
			get: func(obj any) (any, bool, error) {
				x, ok := obj.(*T)
				if !ok || x == nil {
					return nil, false, errors.Wrapf(ErrInstanceType, "want *%s, got %T", self.Name, obj)
				}

				v, present := get(x)

				return v, present, nil
			},
			set: func(obj any, v any) error {
				x, ok := obj.(*T)
				if !ok || x == nil {
					return errors.Wrapf(ErrInstanceType, "want *%s, got %T", self.Name, obj)
				}

				return set(x, v)
			},
		}
	})
}

// Embed lifts the table of an embedded struct E into T. path names the
// embedded fields leading to E, dot separated ("Base", or "Middle.Base" when
// E is embedded in an embedded struct). via returns the embedded value inside
// x: with alloc false it returns nil when an embedded pointer on the way is
// nil, with alloc true it allocates.
func Embed[T, E any](path string, inner *Table, via func(x *T, alloc bool) *E) []Field {
	self := TypeIDOf(reflect.TypeFor[T]())
	if want := reflect.TypeFor[E](); inner.Type() != want {
		panic(errors.Newf("fields: embedding %s table for %s field %s", inner.Type(), want, path))
	}

	prefix := strings.Split(path, ".")

	return lo.Map(inner.fields, func(src Field, _ int) Field {
		d := src.Descriptor
		d.Name = d.Field
		d.Shadowed = false
		d.Path = append(slices.Clone(prefix), d.Path...)

		return Field{
			Descriptor: d,
			get: func(obj any) (any, bool, error) {
				x, ok := obj.(*T)
				if !ok || x == nil {
					return nil, false, errors.Wrapf(ErrInstanceType, "want *%s, got %T", self.Name, obj)
				}

				e := via(x, false)
				if e == nil {
					return nil, false, nil
				}

				return src.get(e)
			},
			set: func(obj any, v any) error {
				x, ok := obj.(*T)
				if !ok || x == nil {
					return errors.Wrapf(ErrInstanceType, "want *%s, got %T", self.Name, obj)
				}

				return src.set(via(x, true), v)
			},
		}
	})
}

// Table is the ordered, immutable field list of one struct type.
type Table struct {
	rtype  reflect.Type
	id     TypeID
	fields []Field
	index  map[string]int
}

// Define builds the table of struct type T from groups of fields, kept in
// the order given.
func Define[T any](groups ...[]Field) (*Table, error) {
	return newTable(reflect.TypeFor[T](), lo.Flatten(groups))
}

// MustDefine is like Define but panics on error. It is meant for generated
// init functions.
func MustDefine[T any](groups ...[]Field) *Table {
	t, err := Define[T](groups...)
	if err != nil {
		panic(err)
	}

	return t
}

func newTable(rt reflect.Type, fs []Field) (*Table, error) {
	if rt.Kind() != reflect.Struct {
		return nil, errors.Newf("fields: %s is not a struct type", rt)
	}

	ds := make([]Descriptor, len(fs))
	for i, f := range fs {
		ds[i] = f.Descriptor
	}

	ds, err := Resolve(TypeIDOf(rt), ds)
	if err != nil {
		return nil, err
	}

	t := &Table{
		rtype:  rt,
		id:     TypeIDOf(rt),
		fields: make([]Field, len(fs)),
		index:  make(map[string]int, len(fs)),
	}

	for i, f := range fs {
		f.Descriptor = ds[i]
		t.fields[i] = f
		t.index[f.Name] = i
	}

	return t, nil
}

// Resolve assigns payload keys, shadowing and visibility to the descriptors
// of root's fields given in enumeration order. It returns a resolved copy.
func Resolve(root TypeID, ds []Descriptor) ([]Descriptor, error) {
	out := make([]Descriptor, len(ds))
	qualified := make(map[string]struct{}, len(ds))
	byIdent := make(map[string][]int)

	for i, d := range ds {
		q := d.Qualified()
		if _, dup := qualified[q]; dup {
			return nil, errors.Newf("fields: %s declares %s twice", root, q)
		}

		qualified[q] = struct{}{}

		d.Path = slices.Clone(d.Path)
		d.Visibility = visibilityOf(d.Exported, d.Declaring, root)
		out[i] = d
		byIdent[d.Field] = append(byIdent[d.Field], i)
	}

	for ident, idxs := range byIdent {
		winner := resolve(out, idxs)
		for _, i := range idxs {
			if i == winner {
				out[i].Name = ident
				out[i].Shadowed = false

				continue
			}

			out[i].Name = out[i].Qualified()
			out[i].Shadowed = true
		}
	}

	return out, nil
}

// resolve returns the index of the field a selector of that name reaches:
// the single shallowest occurrence, or -1 when the shallowest depth is ambiguous.
func resolve(ds []Descriptor, idxs []int) int {
	winner, depth, count := -1, -1, 0

	for _, i := range idxs {
		d := ds[i].Depth()

		switch {
		case depth == -1 || d < depth:
			winner, depth, count = i, d, 1
		case d == depth:
			count++
		}
	}

	if count != 1 {
		return -1
	}

	return winner
}

// Type returns the struct type described by the table.
func (t *Table) Type() reflect.Type {
	return t.rtype
}

// ID returns the TypeID of the described type.
func (t *Table) ID() TypeID {
	return t.id
}

// Len returns the number of persistable fields.
func (t *Table) Len() int {
	return len(t.fields)
}

// Fields returns the fields in enumeration order.
func (t *Table) Fields() []Field {
	return slices.Clone(t.fields)
}

// Descriptors returns the field descriptors in enumeration order.
func (t *Table) Descriptors() []Descriptor {
	return lo.Map(t.fields, func(f Field, _ int) Descriptor {
		d := f.Descriptor
		d.Path = slices.Clone(d.Path)

		return d
	})
}

// Names returns the payload keys in enumeration order.
func (t *Table) Names() []string {
	return lo.Map(t.fields, func(f Field, _ int) string { return f.Name })
}

// Lookup returns the field with the given payload key.
func (t *Table) Lookup(name string) (Field, bool) {
	i, ok := t.index[name]
	if !ok {
		return Field{}, false
	}

	return t.fields[i], true
}
