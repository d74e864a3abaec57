package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"true", Boolean(true), true},
		{"false", Boolean(false), false},
		{"nonzero number", Number(3), true},
		{"zero number", Number(0), false},
		{"nonempty string", String("x"), true},
		{"empty string", String(""), false},
		{"null", Null{}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Truthy(c.v))
		})
	}
}

func TestEqualCrossTag(t *testing.T) {
	assert.True(t, Equal(Number(1), Boolean(true)))
	assert.True(t, Equal(Boolean(false), Number(0)))
	assert.False(t, Equal(Number(1), String("1")))
	assert.False(t, Equal(Null{}, Boolean(false)))
	assert.True(t, Equal(Null{}, Null{}))
}

func TestAdd(t *testing.T) {
	t.Run("number+number", func(t *testing.T) {
		r, err := Add(Number(1), Number(2))
		require.NoError(t, err)
		assert.Equal(t, Number(3), r)
	})
	t.Run("string concat", func(t *testing.T) {
		r, err := Add(String("a"), Number(1))
		require.NoError(t, err)
		assert.Equal(t, String("a1"), r)
	})
	t.Run("boolean coerces", func(t *testing.T) {
		r, err := Add(Boolean(true), Number(1))
		require.NoError(t, err)
		assert.Equal(t, Number(2), r)
	})
}

func TestDivModByZero(t *testing.T) {
	_, err := Div(Number(1), Number(0))
	require.Error(t, err)

	_, err = Mod(Number(1), Number(0))
	require.Error(t, err)
}

func TestCompareOrdering(t *testing.T) {
	c, err := Compare(Number(1), Number(2))
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	_, err = Compare(Number(1), String("x"))
	require.Error(t, err)
}

func TestNegateRequiresNumber(t *testing.T) {
	_, err := Negate(String("x"))
	require.Error(t, err)

	r, err := Negate(Number(5))
	require.NoError(t, err)
	assert.Equal(t, Number(-5), r)
}
