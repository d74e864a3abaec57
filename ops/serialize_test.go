package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icn-covm/governance-vm/value"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	program := []Op{
		Push{Value: value.Number(1)},
		Push{Value: value.String("hi")},
		Add{},
		If{
			Condition: []Op{Push{Value: value.Boolean(true)}},
			Then:      []Op{Push{Value: value.Number(100)}},
			Else:      []Op{Push{Value: value.Number(200)}},
		},
		Match{
			Value: nil,
			Cases: []MatchCase{
				{Key: value.Number(1), Ops: []Op{Emit{Text: "one"}}},
			},
			Default: []Op{Emit{Text: "default"}},
		},
		Def{Name: "f", Params: []string{"a", "b"}, Body: []Op{Load{Name: "a"}}},
		Call{Name: "f", Args: []Op{Push{Value: value.Number(1)}}},
	}

	data, err := Marshal(program)
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, decoded, len(program))

	assert.Equal(t, program[0], decoded[0])
	assert.Equal(t, program[1], decoded[1])
	assert.Equal(t, program[2], decoded[2])

	ifOp, ok := decoded[3].(If)
	require.True(t, ok)
	assert.Equal(t, program[3].(If).Then, ifOp.Then)

	matchOp, ok := decoded[4].(Match)
	require.True(t, ok)
	require.Len(t, matchOp.Cases, 1)
	assert.Equal(t, value.Number(1), matchOp.Cases[0].Key)
}

func TestUnmarshalUnknownType(t *testing.T) {
	_, err := Unmarshal([]byte(`[{"type": "not_a_real_op"}]`))
	require.Error(t, err)
}
