package fields

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Decoder is a value whose decoding is deferred until the destination type is
// known. Wire formats hand raw values to setters as Decoders.
type Decoder interface {
	Decode(dst any) error
}

// Assign stores v into *dst. v may be a value of type F, nil (stores the zero
// value), a Decoder, or a number, string or bool that converts to F without
// loss.
func Assign[F any](dst *F, v any) error {
	switch x := v.(type) {
	case Decoder:
		return x.Decode(dst)
	case F:
		*dst = x
		return nil
	case nil:
		var zero F
		*dst = zero

		return nil
	}

	return assignValue(reflect.ValueOf(dst).Elem(), v)
}

// assignValue is Assign for a settable reflect.Value.
func assignValue(dst reflect.Value, v any) error {
	switch x := v.(type) {
	case nil:
		dst.SetZero()
		return nil
	case Decoder:
		return x.Decode(dst.Addr().Interface())
	}

	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}

	if convertible(src, dst.Type()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}

	return errors.Newf("cannot assign %s to %s", src.Type(), dst.Type())
}

// convertible reports whether src converts to dt and back unchanged, within
// the number, string and bool kinds.
func convertible(src reflect.Value, dt reflect.Type) bool {
	sk, dk := src.Kind(), dt.Kind()

	switch {
	case isNumber(sk) && isNumber(dk):
		if !src.CanConvert(dt) || !inRange(src, dt) {
			return false
		}

		return src.Convert(dt).Convert(src.Type()).Equal(src)
	case sk == reflect.String && dk == reflect.String:
		return true
	case sk == reflect.Bool && dk == reflect.Bool:
		return true
	default:
		return false
	}
}

// inRange catches the sign changes a round trip through dt cannot see.
func inRange(src reflect.Value, dt reflect.Type) bool {
	switch {
	case isUnsigned(dt.Kind()) && src.CanInt():
		return src.Int() >= 0
	case isUnsigned(dt.Kind()) && src.CanFloat():
		return src.Float() >= 0
	case src.CanUint() && dt.Kind() >= reflect.Int && dt.Kind() <= reflect.Int64:
		return src.Uint() <= uint64(1)<<(dt.Bits()-1)-1
	default:
		return true
	}
}

func isUnsigned(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
