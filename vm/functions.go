package vm

import (
	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/ops"
)

// execCall runs a registered function in a fresh frame: Args are pushed
// onto the shared stack, then popped to bind Params in declaration order.
// The new frame's memory starts empty except for those bindings; the stack
// itself stays shared across frames.
func (v *VM) execCall(o ops.Call) (signal, error) {
	fn, ok := v.functions[o.Name]
	if !ok {
		return signalNone, covmerr.Newf(covmerr.KindUndefinedOperation, "call to undefined function %q", o.Name)
	}
	if len(v.frames) >= v.maxDepth {
		return signalNone, covmerr.ErrStackOverflow
	}

	if sig, err := v.run(o.Args); err != nil {
		return signalNone, err
	} else if sig != signalNone {
		return signalNone, covmerr.New(covmerr.KindUndefinedState, "break/continue/return inside call arguments")
	}

	f := newFrame()
	for i := len(fn.params) - 1; i >= 0; i-- {
		val, err := v.pop()
		if err != nil {
			return signalNone, err
		}
		f.memory[fn.params[i]] = val
	}

	v.frames = append(v.frames, f)
	sig, err := v.run(fn.body)
	v.frames = v.frames[:len(v.frames)-1]
	if err != nil {
		return signalNone, err
	}
	switch sig {
	case signalReturn, signalNone:
		return signalNone, nil
	default:
		return signalNone, covmerr.New(covmerr.KindUndefinedState, "break/continue escaped a function body")
	}
}
