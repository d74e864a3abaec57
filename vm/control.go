package vm

import (
	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/ops"
	"github.com/icn-covm/governance-vm/value"
)

// execIf: an empty condition pops the top of stack directly; otherwise the
// condition sub-program runs and its top is popped, leaving any other
// residue it pushed in place.
func (v *VM) execIf(o ops.If) (signal, error) {
	cond, err := v.evalCondition(o.Condition)
	if err != nil {
		return signalNone, err
	}
	if value.Truthy(cond) {
		return v.run(o.Then)
	}
	if o.Else != nil {
		return v.run(o.Else)
	}
	return signalNone, nil
}

func (v *VM) evalCondition(condition []ops.Op) (value.Value, error) {
	if len(condition) == 0 {
		return v.pop()
	}
	sig, err := v.run(condition)
	if err != nil {
		return nil, err
	}
	if sig != signalNone {
		return nil, covmerr.New(covmerr.KindUndefinedState, "break/continue/return inside a condition")
	}
	return v.pop()
}

// execWhile re-evaluates condition before each iteration; break exits the
// loop, continue restarts at the condition, return propagates to the
// enclosing function call.
func (v *VM) execWhile(o ops.While) (signal, error) {
	for {
		cond, err := v.evalCondition(o.Condition)
		if err != nil {
			return signalNone, err
		}
		if !value.Truthy(cond) {
			return signalNone, nil
		}
		sig, err := v.run(o.Body)
		if err != nil {
			return signalNone, err
		}
		switch sig {
		case signalBreak:
			return signalNone, nil
		case signalReturn:
			return signalReturn, nil
		case signalContinue, signalNone:
			// fall through to next iteration
		}
	}
}

// execLoop iterates body exactly Count times. A negative count is a
// ValidationError.
func (v *VM) execLoop(o ops.Loop) (signal, error) {
	if o.Count < 0 {
		return signalNone, covmerr.New(covmerr.KindValidationError, "loop count must be non-negative")
	}
	for i := 0; i < o.Count; i++ {
		sig, err := v.run(o.Body)
		if err != nil {
			return signalNone, err
		}
		switch sig {
		case signalBreak:
			return signalNone, nil
		case signalReturn:
			return signalReturn, nil
		case signalContinue, signalNone:
			// continue to next iteration
		}
	}
	return signalNone, nil
}

// execMatch compares a produced value against each case key in order by
// structural equality; first match wins, otherwise default runs if
// present, otherwise match is a no-op.
func (v *VM) execMatch(o ops.Match) (signal, error) {
	var subject value.Value
	var err error
	if len(o.Value) == 0 {
		subject, err = v.peek()
	} else {
		var sig signal
		sig, err = v.run(o.Value)
		if err == nil && sig != signalNone {
			return signalNone, covmerr.New(covmerr.KindUndefinedState, "break/continue/return inside a match value")
		}
		if err == nil {
			subject, err = v.peek()
		}
	}
	if err != nil {
		return signalNone, err
	}
	for _, c := range o.Cases {
		if value.Equal(subject, c.Key) {
			return v.run(c.Ops)
		}
	}
	if o.Default != nil {
		return v.run(o.Default)
	}
	return signalNone, nil
}
