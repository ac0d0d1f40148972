package wire

import (
	"github.com/cockroachdb/errors"

	"serialcompat/codec"
)

// Encoder stores instances through a Format.
type Encoder struct {
	format Format
	codec  *codec.Codec
}

// NewEncoder returns an Encoder. A nil codec means codec.Default().
func NewEncoder(format Format, c *codec.Codec) *Encoder {
	if c == nil {
		c = codec.Default()
	}

	return &Encoder{format: format, codec: c}
}

// Format returns the encoder's format.
func (e *Encoder) Format() Format {
	return e.format
}

// EncodeCurrent stores obj as a current payload.
func (e *Encoder) EncodeCurrent(obj any) ([]byte, error) {
	t, err := e.codec.Table(obj)
	if err != nil {
		return nil, err
	}

	payload, err := e.codec.Snapshot(obj)
	if err != nil {
		return nil, err
	}

	data, err := e.format.Encode(&Envelope{
		Generation: codec.KindCurrent.String(),
		Type:       t.ID().String(),
		Fields:     payload,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "wire: encoding %s envelope", e.format.Name())
	}

	return data, nil
}

// EncodeLegacy stores obj the way the legacy layer does: it asks the codec
// which fields to persist and reads their values itself. Fields without
// storage are left out of both lists.
func (e *Encoder) EncodeLegacy(obj any) ([]byte, error) {
	t, err := e.codec.Table(obj)
	if err != nil {
		return nil, err
	}

	names, err := e.codec.LegacyFields(obj)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		Generation: codec.KindLegacy.String(),
		Type:       t.ID().String(),
	}

	for _, name := range names {
		f, ok := t.Lookup(name)
		if !ok {
			continue
		}

		v, present, err := f.Get(obj)
		if err != nil {
			return nil, codec.NewFieldAccessError("read", f.Descriptor, err)
		}

		if !present {
			continue
		}

		env.Names = append(env.Names, name)
		env.Values = append(env.Values, v)
	}

	data, err := e.format.Encode(env)
	if err != nil {
		return nil, errors.Wrapf(err, "wire: encoding %s envelope", e.format.Name())
	}

	return data, nil
}

// Decode restores obj from data written by EncodeCurrent or EncodeLegacy.
// obj is normally freshly constructed; fields the envelope does not mention
// keep their values.
func (e *Encoder) Decode(data []byte, obj any) error {
	t, err := e.codec.Table(obj)
	if err != nil {
		return err
	}

	env, err := e.format.Decode(data)
	if err != nil {
		return err
	}

	if env.Type != "" && env.Type != t.ID().String() {
		return errors.Wrapf(ErrTypeMismatch, "envelope holds %s, instance is %s", env.Type, t.ID())
	}

	kind, ok := codec.ParseKind(env.Generation)
	if !ok {
		return errors.Wrapf(ErrUnknownGeneration, "%q", env.Generation)
	}

	switch kind {
	case codec.KindCurrent:
		m := env.Fields
		if m == nil {
			// empty mappings are omitted on encode
			m = map[string]any{}
		}

		payload, err := codec.ParseCurrent(m)
		if err != nil {
			return err
		}

		return e.codec.Restore(obj, payload)
	default:
		names, err := e.placeLegacy(obj, env)
		if err != nil {
			return err
		}

		return e.codec.Restore(obj, names)
	}
}

// placeLegacy writes the legacy envelope's values into obj by position.
func (e *Encoder) placeLegacy(obj any, env *Envelope) (codec.Legacy, error) {
	if len(env.Names) != len(env.Values) {
		return nil, &codec.MalformedPayloadError{Reason: "legacy names and values differ in length"}
	}

	t, err := e.codec.Table(obj)
	if err != nil {
		return nil, err
	}

	for i, name := range env.Names {
		f, ok := t.Lookup(name)
		if !ok {
			continue
		}

		if err := f.Set(obj, env.Values[i]); err != nil {
			return nil, codec.NewFieldAccessError("write", f.Descriptor, err)
		}
	}

	return codec.Legacy(env.Names), nil
}
