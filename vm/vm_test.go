package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icn-covm/governance-vm/identity"
	"github.com/icn-covm/governance-vm/ops"
	"github.com/icn-covm/governance-vm/storage"
	"github.com/icn-covm/governance-vm/value"
)

func TestArithmeticAddsTwoNumbers(t *testing.T) {
	machine := New(nil, nil, "governance")
	program := []ops.Op{
		ops.Push{Value: value.Number(1)},
		ops.Push{Value: value.Number(2)},
		ops.Add{},
	}
	require.NoError(t, machine.Execute(program))

	top := machine.Stack()
	require.Len(t, top, 1)
	assert.Equal(t, value.Number(3), top[0])
}

func TestConditionalBranchTakesThenOnTruthyCondition(t *testing.T) {
	machine := New(nil, nil, "governance")
	program := []ops.Op{
		ops.Push{Value: value.Number(10)},
		ops.Push{Value: value.Number(5)},
		ops.Gt{},
		ops.If{
			Then: []ops.Op{ops.Push{Value: value.Number(100)}},
			Else: []ops.Op{ops.Push{Value: value.Number(200)}},
		},
	}
	require.NoError(t, machine.Execute(program))

	top := machine.Stack()
	require.Len(t, top, 1)
	assert.Equal(t, value.Number(100), top[0])
}

func TestQuorumThresholdOpcode(t *testing.T) {
	machine := New(nil, nil, "governance")
	program := []ops.Op{
		ops.Push{Value: value.Number(100)}, // votes_possible
		ops.Push{Value: value.Number(60)},  // votes_cast
		ops.QuorumThreshold{Ratio: 0.5},
	}
	require.NoError(t, machine.Execute(program))

	top := machine.Stack()
	require.Len(t, top, 1)
	assert.Equal(t, value.Number(0), top[0], "quorum met encodes as 0")
}

func TestVoteThresholdOpcode(t *testing.T) {
	machine := New(nil, nil, "governance")
	program := []ops.Op{
		ops.Push{Value: value.Number(3)},
		ops.VoteThreshold{Min: 5},
	}
	require.NoError(t, machine.Execute(program))

	top := machine.Stack()
	require.Len(t, top, 1)
	assert.Equal(t, value.Number(1), top[0])
}

func TestTransactionRollbackViaOpcodes(t *testing.T) {
	auth := identity.NewAuthContext("alice")
	auth.Grant(identity.GlobalNamespace, identity.RoleAdmin)
	store := storage.New(nil, nil, nil)
	machine := New(store, auth, "governance")

	program := []ops.Op{
		ops.Push{Value: value.Number(1)},
		ops.StoreP{Key: "counter"},
		ops.BeginTx{},
		ops.Push{Value: value.Number(2)},
		ops.StoreP{Key: "counter"},
		ops.RollbackTx{},
		ops.LoadP{Key: "counter"},
	}
	require.NoError(t, machine.Execute(program))

	top := machine.Stack()
	require.Len(t, top, 1)
	assert.Equal(t, value.Number(1), top[0])
}

func TestRBACDeniesWriteForReader(t *testing.T) {
	auth := identity.NewAuthContext("bob")
	auth.Grant("governance", identity.RoleReader)
	store := storage.New(nil, nil, nil)
	machine := New(store, auth, "governance")

	program := []ops.Op{
		ops.Push{Value: value.Number(1)},
		ops.StoreP{Key: "counter"},
	}
	err := machine.Execute(program)
	require.Error(t, err)
}

func TestLoopExecutesBodyCountTimes(t *testing.T) {
	machine := New(nil, nil, "governance")
	program := []ops.Op{
		ops.Push{Value: value.Number(0)},
		ops.Store{Name: "acc"},
		ops.Loop{
			Count: 3,
			Body: []ops.Op{
				ops.Load{Name: "acc"},
				ops.Push{Value: value.Number(1)},
				ops.Add{},
				ops.Store{Name: "acc"},
			},
		},
		ops.Load{Name: "acc"},
	}
	require.NoError(t, machine.Execute(program))

	top := machine.Stack()
	require.Len(t, top, 1)
	assert.Equal(t, value.Number(3), top[0])
}

func TestFunctionCallBindsParamsInOrder(t *testing.T) {
	machine := New(nil, nil, "governance")
	program := []ops.Op{
		ops.Def{
			Name:   "sub",
			Params: []string{"a", "b"},
			Body: []ops.Op{
				ops.Load{Name: "a"},
				ops.Load{Name: "b"},
				ops.Sub{},
			},
		},
		ops.Call{
			Name: "sub",
			Args: []ops.Op{
				ops.Push{Value: value.Number(10)},
				ops.Push{Value: value.Number(4)},
			},
		},
	}
	require.NoError(t, machine.Execute(program))

	top := machine.Stack()
	require.Len(t, top, 1)
	assert.Equal(t, value.Number(6), top[0])
}

func TestStepLimitExceeded(t *testing.T) {
	machine := New(nil, nil, "governance", WithMaxSteps(2))
	program := []ops.Op{
		ops.Push{Value: value.Number(1)},
		ops.Push{Value: value.Number(2)},
		ops.Add{},
	}
	err := machine.Execute(program)
	require.Error(t, err)
}

func TestBreakEscapingTopLevelIsUndefinedState(t *testing.T) {
	machine := New(nil, nil, "governance")
	err := machine.Execute([]ops.Op{ops.Break{}})
	require.Error(t, err)
}
