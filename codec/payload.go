package codec

import (
	"reflect"

	"github.com/samber/lo"
)

// Kind tells the payload generations apart.
type Kind int

//go:generate go tool stringer -type=Kind -linecomment -output=kind_string.go

const (
	KindLegacy  Kind = iota + 1 // legacy
	KindCurrent                 // current
)

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case KindLegacy.String():
		return KindLegacy, true
	case KindCurrent.String():
		return KindCurrent, true
	default:
		return 0, false
	}
}

// Payload is either a Legacy or a Current payload.
type Payload interface {
	Kind() Kind
	payload()
}

// Legacy lists the names of the fields the legacy layer persists, in
// enumeration order.
type Legacy []string

// Kind implements Payload.
func (Legacy) Kind() Kind { return KindLegacy }

func (Legacy) payload() {}

// Current maps field names to values.
type Current map[string]any

// Kind implements Payload.
func (Current) Kind() Kind { return KindCurrent }

func (Current) payload() {}

// Entry is one field value read from an instance.
type Entry struct {
	Key   string
	Value any
}

// ValueMap is the ordered list of values read from an instance. Fields
// without storage are absent.
type ValueMap []Entry

// Keys returns the keys in order.
func (m ValueMap) Keys() []string {
	return lo.Map(m, func(e Entry, _ int) string { return e.Key })
}

// Get returns the value stored under key.
func (m ValueMap) Get(key string) (any, bool) {
	e, ok := lo.Find(m, func(e Entry) bool { return e.Key == key })

	return e.Value, ok
}

// ParseCurrent converts v into a Current payload. It accepts a Current, a
// map[string]any or any other map keyed by strings.
func ParseCurrent(v any) (Current, error) {
	switch m := v.(type) {
	case Current:
		if m == nil {
			return nil, malformed("nil mapping")
		}

		return m, nil
	case map[string]any:
		if m == nil {
			return nil, malformed("nil mapping")
		}

		return Current(m), nil
	case nil:
		return nil, malformed("no payload")
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, malformed("%T is not a mapping of names to values", v)
	}

	if rv.IsNil() {
		return nil, malformed("nil mapping")
	}

	out := make(Current, rv.Len())
	for it := rv.MapRange(); it.Next(); {
		out[it.Key().String()] = it.Value().Interface()
	}

	return out, nil
}

// detach returns v with its top-level map or slice copied, so an instance
// and a payload never share backing storage. Elements are not copied.
func detach(v any) any {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}

		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		for it := rv.MapRange(); it.Next(); {
			out.SetMapIndex(it.Key(), it.Value())
		}

		return out.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}

		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)

		return out.Interface()
	default:
		return v
	}
}
