package fields

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level string

type jsonDecoder []byte

func (d jsonDecoder) Decode(dst any) error {
	return json.Unmarshal(d, dst)
}

func TestAssign(t *testing.T) {
	t.Parallel()

	t.Run("exact type", func(t *testing.T) {
		t.Parallel()

		var dst []string
		require.NoError(t, Assign(&dst, []string{"a"}))
		assert.Equal(t, []string{"a"}, dst)
	})

	t.Run("nil stores zero", func(t *testing.T) {
		t.Parallel()

		dst := map[string]bool{"beta": true}
		require.NoError(t, Assign(&dst, nil))
		assert.Nil(t, dst)
	})

	t.Run("lossless number conversion", func(t *testing.T) {
		t.Parallel()

		var dst int8
		require.NoError(t, Assign(&dst, 42))
		assert.Equal(t, int8(42), dst)

		var f int
		require.NoError(t, Assign(&f, 3.0))
		assert.Equal(t, 3, f)
	})

	t.Run("lossy number conversion fails", func(t *testing.T) {
		t.Parallel()

		var dst int8
		require.Error(t, Assign(&dst, 300))

		var f int
		require.Error(t, Assign(&f, 3.5))

		var u uint
		require.Error(t, Assign(&u, -1))
		require.Error(t, Assign(&u, -2.0))
		assert.Zero(t, u)

		var u64 uint64
		require.Error(t, Assign(&u64, int64(-5)))
		assert.Zero(t, u64)

		var i int
		require.Error(t, Assign(&i, uint64(math.MaxUint64)))
		assert.Zero(t, i)

		var i8 int8
		require.Error(t, Assign(&i8, uint8(200)))
		require.NoError(t, Assign(&i8, uint8(127)))
		assert.Equal(t, int8(127), i8)
	})

	t.Run("named string", func(t *testing.T) {
		t.Parallel()

		var dst level
		require.NoError(t, Assign(&dst, "debug"))
		assert.Equal(t, level("debug"), dst)
	})

	t.Run("incompatible kinds", func(t *testing.T) {
		t.Parallel()

		var dst string
		err := Assign(&dst, 12)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot assign int to string")
	})

	t.Run("interface field keeps value", func(t *testing.T) {
		t.Parallel()

		var dst any
		require.NoError(t, Assign(&dst, 7))
		assert.Equal(t, 7, dst)
	})

	t.Run("decoder", func(t *testing.T) {
		t.Parallel()

		var dst map[string]bool
		require.NoError(t, Assign(&dst, jsonDecoder(`{"beta":true}`)))
		assert.Equal(t, map[string]bool{"beta": true}, dst)
	})
}

func TestAssignValue_Reflect(t *testing.T) {
	var dst struct{ n uint16 }

	f := expose(reflect.ValueOf(&dst).Elem().Field(0))
	require.NoError(t, assignValue(f, 65535))
	assert.Equal(t, uint16(65535), dst.n)

	require.NoError(t, assignValue(f, nil))
	assert.Zero(t, dst.n)

	require.NoError(t, assignValue(f, jsonDecoder(`12`)))
	assert.Equal(t, uint16(12), dst.n)

	require.Error(t, assignValue(f, -1))
}
