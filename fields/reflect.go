package fields

import (
	"reflect"
	"slices"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// step is one embedded field on the way from the root struct to a declaring struct.
type step struct {
	index int
	ptr   bool
}

// Reflect builds the table of struct type rt at runtime. It follows the same
// enumeration, ordering and naming rules as generated tables and reaches
// unexported fields through their addresses.
func Reflect(rt reflect.Type) (*Table, error) {
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, errors.Newf("fields: %v is not a struct type", rt)
	}

	var fs []Field

	collect(rt, rt, nil, nil, map[reflect.Type]bool{rt: true}, &fs)

	return newTable(rt, fs)
}

func collect(root, st reflect.Type, path []string, steps []step, active map[reflect.Type]bool, out *[]Field) {
	declaring := TypeIDOf(st)

	for i := range st.NumField() {
		sf := st.Field(i)
		if isTypeLevel(sf.Name, sf.Tag) {
			continue
		}

		if et, ptr, ok := embeddedStruct(sf); ok && !active[et] {
			active[et] = true
			collect(root, et, append(slices.Clone(path), sf.Name), append(slices.Clone(steps), step{index: i, ptr: ptr}), active, out)
			delete(active, et)

			continue
		}

		*out = append(*out, reflectField(root, declaring, sf, path, steps))
	}
}

// embeddedStruct reports whether sf embeds a struct, directly or by pointer.
func embeddedStruct(sf reflect.StructField) (reflect.Type, bool, bool) {
	if !sf.Anonymous {
		return nil, false, false
	}

	t, ptr := sf.Type, false
	if t.Kind() == reflect.Pointer {
		t, ptr = t.Elem(), true
	}

	return t, ptr, t.Kind() == reflect.Struct
}

func reflectField(root reflect.Type, declaring TypeID, sf reflect.StructField, path []string, steps []step) Field {
	index := sf.Index[len(sf.Index)-1]

	return Field{
		Descriptor: Descriptor{
			Name:      sf.Name,
			Field:     sf.Name,
			Exported:  sf.IsExported(),
			Declaring: declaring,
			Path:      slices.Clone(path),
		},
		get: func(obj any) (any, bool, error) {
			rv, err := instance(root, obj)
			if err != nil {
				return nil, false, err
			}

			parent, ok := walk(rv, steps, false)
			if !ok {
				return nil, false, nil
			}

			return expose(parent.Field(index)).Interface(), true, nil
		},
		set: func(obj any, v any) error {
			rv, err := instance(root, obj)
			if err != nil {
				return err
			}

			parent, _ := walk(rv, steps, true)

			return assignValue(expose(parent.Field(index)), v)
		},
	}
}

// instance returns the struct value obj points to.
func instance(root reflect.Type, obj any) (reflect.Value, error) {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Type().Elem() != root {
		return reflect.Value{}, errors.Wrapf(ErrInstanceType, "want *%s, got %T", root.Name(), obj)
	}

	return rv.Elem(), nil
}

// walk follows steps from v. With alloc false it stops at the first nil
// embedded pointer; with alloc true it allocates it.
func walk(v reflect.Value, steps []step, alloc bool) (reflect.Value, bool) {
	for _, s := range steps {
		f := expose(v.Field(s.index))
		if s.ptr {
			if f.IsNil() {
				if !alloc {
					return reflect.Value{}, false
				}

				f.Set(reflect.New(f.Type().Elem()))
			}

			f = f.Elem()
		}

		v = f
	}

	return v, true
}

// expose returns a settable view of an addressable field, unexported or not.
func expose(f reflect.Value) reflect.Value {
	if f.CanSet() {
		return f
	}

	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}
