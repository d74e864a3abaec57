package vm

import (
	"fmt"

	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/ops"
	"github.com/icn-covm/governance-vm/storage"
	"github.com/icn-covm/governance-vm/value"
)

// step executes a single operation, returning a control signal to unwind to
// the nearest enclosing loop/function, or an error.
func (v *VM) step(op ops.Op) (signal, error) {
	v.steps++
	if v.steps > v.maxSteps {
		return signalNone, covmerr.ErrStepLimitExceeded
	}
	v.logStep(op)

	switch o := op.(type) {
	case ops.Push:
		v.push(o.Value)
		return signalNone, nil
	case ops.Pop:
		_, err := v.pop()
		return signalNone, err
	case ops.Dup:
		return signalNone, v.opDup()
	case ops.Swap:
		return signalNone, v.opSwap()
	case ops.Over:
		return signalNone, v.opOver()

	case ops.Add:
		return signalNone, v.binary(value.Add)
	case ops.Sub:
		return signalNone, v.binary(value.Sub)
	case ops.Mul:
		return signalNone, v.binary(value.Mul)
	case ops.Div:
		return signalNone, v.binary(value.Div)
	case ops.Mod:
		return signalNone, v.binary(value.Mod)
	case ops.Negate:
		return signalNone, v.unary(value.Negate)
	case ops.Not:
		return signalNone, v.opNot()
	case ops.Eq:
		return signalNone, v.opEq()
	case ops.Gt:
		return signalNone, v.opCompare(1)
	case ops.Lt:
		return signalNone, v.opCompare(-1)
	case ops.And:
		return signalNone, v.opAnd()
	case ops.Or:
		return signalNone, v.opOr()

	case ops.Store:
		return signalNone, v.opStore(o.Name)
	case ops.Load:
		return signalNone, v.opLoad(o.Name)

	case ops.If:
		return v.execIf(o)
	case ops.While:
		return v.execWhile(o)
	case ops.Loop:
		return v.execLoop(o)
	case ops.Break:
		return signalBreak, nil
	case ops.Continue:
		return signalContinue, nil
	case ops.Match:
		return v.execMatch(o)
	case ops.AssertEqualStack:
		return signalNone, v.opAssertEqualStack(o.Depth)

	case ops.Def:
		v.functions[o.Name] = funcDef{params: o.Params, body: o.Body}
		return signalNone, nil
	case ops.Call:
		return v.execCall(o)
	case ops.Return:
		return signalReturn, nil

	case ops.Emit:
		v.output.WriteString(o.Text)
		v.output.WriteByte('\n')
		return signalNone, nil
	case ops.EmitEvent:
		v.output.WriteString(fmt.Sprintf("[%s] %s\n", o.Category, o.Message))
		return signalNone, nil

	case ops.StoreP:
		return signalNone, v.opStoreP(o.Key)
	case ops.LoadP:
		return signalNone, v.opLoadP(o.Key)
	case ops.StorePTyped:
		return signalNone, v.opStorePTyped(o.Key, o.Type)
	case ops.LoadPTyped:
		return signalNone, v.opLoadPTyped(o.Key, o.Type)
	case ops.KeyExistsP:
		return signalNone, v.opKeyExistsP(o.Key)
	case ops.ListKeysP:
		return signalNone, v.opListKeysP(o.Prefix)
	case ops.DeleteP:
		return signalNone, v.opDeleteP(o.Key)
	case ops.BeginTx:
		s, err := v.requireStore()
		if err != nil {
			return signalNone, err
		}
		return signalNone, s.BeginTx()
	case ops.CommitTx:
		s, err := v.requireStore()
		if err != nil {
			return signalNone, err
		}
		return signalNone, s.CommitTx()
	case ops.RollbackTx:
		s, err := v.requireStore()
		if err != nil {
			return signalNone, err
		}
		return signalNone, s.RollbackTx()

	case ops.VerifyIdentity:
		return signalNone, v.opVerifyIdentity(o)
	case ops.CheckMembership:
		return signalNone, v.opCheckMembership(o)
	case ops.CheckDelegation:
		return signalNone, v.opCheckDelegation(o)

	case ops.RankedVote:
		return signalNone, v.opRankedVote(o)
	case ops.QuorumThreshold:
		return signalNone, v.opQuorumThreshold(o)
	case ops.VoteThreshold:
		return signalNone, v.opVoteThreshold(o)
	case ops.LiquidDelegate:
		return signalNone, v.delegations.Delegate(o.From, o.To)

	default:
		return signalNone, covmerr.Newf(covmerr.KindUndefinedOperation, "unknown operation %T", op)
	}
}

func (v *VM) requireStore() (*storage.Store, error) {
	if v.store == nil {
		return nil, covmerr.New(covmerr.KindUndefinedState, "no storage backend bound to this VM")
	}
	return v.store, nil
}

func (v *VM) opDup() error {
	top, err := v.peek()
	if err != nil {
		return err
	}
	v.push(top)
	return nil
}

func (v *VM) opSwap() error {
	b, err := v.pop()
	if err != nil {
		return err
	}
	a, err := v.pop()
	if err != nil {
		return err
	}
	v.push(b)
	v.push(a)
	return nil
}

func (v *VM) opOver() error {
	if len(v.stack) < 2 {
		return covmerr.ErrStackUnderflow
	}
	v.push(v.stack[len(v.stack)-2])
	return nil
}

func (v *VM) binary(fn func(a, b value.Value) (value.Value, error)) error {
	b, err := v.pop()
	if err != nil {
		return err
	}
	a, err := v.pop()
	if err != nil {
		return err
	}
	r, err := fn(a, b)
	if err != nil {
		return err
	}
	v.push(r)
	return nil
}

func (v *VM) unary(fn func(a value.Value) (value.Value, error)) error {
	a, err := v.pop()
	if err != nil {
		return err
	}
	r, err := fn(a)
	if err != nil {
		return err
	}
	v.push(r)
	return nil
}

func (v *VM) opNot() error {
	a, err := v.pop()
	if err != nil {
		return err
	}
	v.push(value.Not(a))
	return nil
}

func (v *VM) opEq() error {
	b, err := v.pop()
	if err != nil {
		return err
	}
	a, err := v.pop()
	if err != nil {
		return err
	}
	v.push(value.Boolean(value.Equal(a, b)))
	return nil
}

// opCompare implements gt (want==1) and lt (want==-1) via value.Compare.
func (v *VM) opCompare(want int) error {
	b, err := v.pop()
	if err != nil {
		return err
	}
	a, err := v.pop()
	if err != nil {
		return err
	}
	c, err := value.Compare(a, b)
	if err != nil {
		return err
	}
	v.push(value.Boolean(c == want))
	return nil
}

func (v *VM) opAnd() error {
	b, err := v.pop()
	if err != nil {
		return err
	}
	a, err := v.pop()
	if err != nil {
		return err
	}
	v.push(value.Boolean(value.Truthy(a) && value.Truthy(b)))
	return nil
}

func (v *VM) opOr() error {
	b, err := v.pop()
	if err != nil {
		return err
	}
	a, err := v.pop()
	if err != nil {
		return err
	}
	v.push(value.Boolean(value.Truthy(a) || value.Truthy(b)))
	return nil
}

func (v *VM) opStore(name string) error {
	val, err := v.pop()
	if err != nil {
		return err
	}
	v.curFrame().memory[name] = val
	return nil
}

func (v *VM) opLoad(name string) error {
	val, ok := v.curFrame().memory[name]
	if !ok {
		return covmerr.Newf(covmerr.KindUndefinedState, "undefined memory name %q", name)
	}
	v.push(val)
	return nil
}

func (v *VM) opAssertEqualStack(depth int) error {
	if depth < 0 || depth > len(v.stack) {
		return covmerr.ErrStackUnderflow
	}
	if depth == 0 {
		return nil
	}
	top := v.stack[len(v.stack)-depth:]
	for i := 1; i < len(top); i++ {
		if !value.Equal(top[0], top[i]) {
			return covmerr.New(covmerr.KindValidationError, "assert_equal_stack: values are not equal")
		}
	}
	return nil
}

func opName(op ops.Op) string {
	return fmt.Sprintf("%T", op)
}
