package wire_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serialcompat/codec"
	"serialcompat/examples/demo"
	"serialcompat/examples/shadow"
	"serialcompat/examples/shadow/base"
	"serialcompat/wire"
)

func formats() []wire.Format {
	return []wire.Format{wire.NewJSON(), wire.NewYAML()}
}

func TestEncoder_DemoRoundTrip(t *testing.T) {
	for _, f := range formats() {
		t.Run(f.Name(), func(t *testing.T) {
			enc := wire.NewEncoder(f, nil)
			src := demo.New(123, "freemius", map[string]bool{"beta": true})

			current, err := enc.EncodeCurrent(src)
			require.NoError(t, err)

			legacy, err := enc.EncodeLegacy(src)
			require.NoError(t, err)

			fromCurrent := &demo.Demo{}
			require.NoError(t, enc.Decode(current, fromCurrent))

			fromLegacy := &demo.Demo{}
			require.NoError(t, enc.Decode(legacy, fromLegacy))

			assert.Equal(t, 123, fromCurrent.ID)
			assert.Equal(t, "freemius", fromCurrent.Name())
			assert.Equal(t, map[string]bool{"beta": true}, fromCurrent.Flags())
			assert.Equal(t, "FREEMIUS", fromCurrent.Computed())

			assert.Empty(t, cmp.Diff(fromCurrent, fromLegacy, cmp.AllowUnexported(demo.Demo{})))

			// a second round trip changes nothing
			again, err := enc.EncodeCurrent(fromCurrent)
			require.NoError(t, err)

			twice := &demo.Demo{}
			require.NoError(t, enc.Decode(again, twice))
			assert.Empty(t, cmp.Diff(fromCurrent, twice, cmp.AllowUnexported(demo.Demo{})))
		})
	}
}

func TestEncoder_ShadowRoundTrip(t *testing.T) {
	opts := cmp.Options{
		cmp.AllowUnexported(shadow.Derived{}, shadow.Middle{}, base.Base{}),
		cmpopts.IgnoreFields(shadow.Derived{}, "restores"),
	}

	for _, f := range formats() {
		t.Run(f.Name(), func(t *testing.T) {
			enc := wire.NewEncoder(f, codec.New())
			src := shadow.New(base.New("b-1", 1, "red"), 2, "hello", 3, "derived")

			for _, encode := range []func(any) ([]byte, error){enc.EncodeCurrent, enc.EncodeLegacy} {
				data, err := encode(src)
				require.NoError(t, err)

				dst := &shadow.Derived{}
				require.NoError(t, enc.Decode(data, dst))
				assert.Empty(t, cmp.Diff(src, dst, opts))
				assert.Equal(t, 1, dst.Restores())
			}
		})
	}
}

func TestEncoder_NilEmbeddedPointerLeftOut(t *testing.T) {
	enc := wire.NewEncoder(wire.NewJSON(), nil)
	src := shadow.New(base.New("b-1", 1), 2, "hello", 3, "derived")
	src.Middle = nil

	data, err := enc.EncodeLegacy(src)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "note")

	dst := &shadow.Derived{}
	require.NoError(t, enc.Decode(data, dst))
	assert.Nil(t, dst.Middle)
}

func TestEncoder_JSONNullValues(t *testing.T) {
	enc := wire.NewEncoder(wire.NewJSON(), nil)

	for name, encode := range map[string]func(any) ([]byte, error){
		"current": enc.EncodeCurrent,
		"legacy":  enc.EncodeLegacy,
	} {
		t.Run(name, func(t *testing.T) {
			data, err := encode(demo.New(1, "a", nil))
			require.NoError(t, err)
			assert.Contains(t, string(data), "null")

			dst := demo.New(0, "", map[string]bool{"stale": true})
			require.NoError(t, enc.Decode(data, dst))
			assert.Equal(t, 1, dst.ID)
			assert.Equal(t, "A", dst.Computed())
			assert.Nil(t, dst.Flags())

			data, err = encode(shadow.New(base.New("b-1", 1), 2, "hello", 3, "derived"))
			require.NoError(t, err)

			derived := shadow.New(base.New("stale", 0, "red"), 0, "", 0, "")
			require.NoError(t, enc.Decode(data, derived))
			assert.Equal(t, "b-1", derived.ID)
			assert.Nil(t, derived.Tags())
		})
	}
}

func TestEncoder_StrayKeysAndNull(t *testing.T) {
	enc := wire.NewEncoder(wire.NewJSON(), nil)

	data := []byte(`{"generation":"current","type":"serialcompat/examples/demo.Demo","fields":{
		"ID":123,"name":"freemius","flags":{"beta":true},"computed":null,"error":"Should not see this"}}`)

	dst := &demo.Demo{}
	require.NoError(t, enc.Decode(data, dst))

	assert.Equal(t, 123, dst.ID)
	assert.Equal(t, map[string]bool{"beta": true}, dst.Flags())
	assert.Equal(t, "FREEMIUS", dst.Computed())
}

func TestEncoder_PartialYAML(t *testing.T) {
	enc := wire.NewEncoder(wire.NewYAML(), nil)

	dst := demo.New(0, "", map[string]bool{"keep": true})
	require.NoError(t, enc.Decode([]byte("generation: current\nfields:\n  name: yaml\n"), dst))

	assert.Equal(t, "yaml", dst.Name())
	assert.Equal(t, map[string]bool{"keep": true}, dst.Flags())
	assert.Equal(t, "YAML", dst.Computed())

	require.NoError(t, enc.Decode([]byte("generation: current\n"), dst))
}

func TestEncoder_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format wire.Format
		data   string
		check  func(t *testing.T, err error)
	}{
		{
			name: "json fields not a mapping", format: wire.NewJSON(),
			data:  `{"generation":"current","fields":[1,2]}`,
			check: isMalformed,
		},
		{
			name: "json garbage", format: wire.NewJSON(),
			data:  `not json`,
			check: isMalformed,
		},
		{
			name: "yaml fields not a mapping", format: wire.NewYAML(),
			data:  "generation: current\nfields: [1, 2]\n",
			check: isMalformed,
		},
		{
			name: "legacy lists differ", format: wire.NewJSON(),
			data:  `{"generation":"legacy","names":["ID","name"],"values":[1]}`,
			check: isMalformed,
		},
		{
			name: "unknown generation", format: wire.NewJSON(),
			data: `{"generation":"v3","fields":{}}`,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, wire.ErrUnknownGeneration)
			},
		},
		{
			name: "type mismatch", format: wire.NewYAML(),
			data: "generation: current\ntype: other.Thing\n",
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, wire.ErrTypeMismatch)
			},
		},
		{
			name: "value of the wrong type", format: wire.NewJSON(),
			data: `{"generation":"legacy","names":["ID"],"values":["abc"]}`,
			check: func(t *testing.T, err error) {
				var access *codec.FieldAccessError
				require.ErrorAs(t, err, &access)
				assert.Equal(t, "ID", access.Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wire.NewEncoder(tt.format, nil).Decode([]byte(tt.data), &demo.Demo{})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func isMalformed(t *testing.T, err error) {
	t.Helper()

	var malformed *codec.MalformedPayloadError
	require.ErrorAs(t, err, &malformed)
}

func TestEncoder_InvalidInstance(t *testing.T) {
	enc := wire.NewEncoder(wire.NewJSON(), nil)

	_, err := enc.EncodeCurrent(demo.Demo{})
	require.ErrorIs(t, err, codec.ErrInvalidInstance)

	_, err = enc.EncodeLegacy(nil)
	require.ErrorIs(t, err, codec.ErrInvalidInstance)

	err = enc.Decode([]byte(`{}`), 42)
	require.ErrorIs(t, err, codec.ErrInvalidInstance)
}
