package vm

import (
	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/ops"
	"github.com/icn-covm/governance-vm/value"
)

func (v *VM) opVerifyIdentity(o ops.VerifyIdentity) error {
	if v.auth == nil {
		return covmerr.New(covmerr.KindUndefinedState, "no auth context bound to this VM")
	}
	ok := v.auth.VerifyIdentity(o.ID, o.Message, o.Signature, v.mockAuth)
	v.push(value.Boolean(ok))
	return nil
}

func (v *VM) opCheckMembership(o ops.CheckMembership) error {
	if v.auth == nil {
		return covmerr.New(covmerr.KindUndefinedState, "no auth context bound to this VM")
	}
	v.push(value.Boolean(v.auth.CheckMembership(o.ID, o.Namespace)))
	return nil
}

func (v *VM) opCheckDelegation(o ops.CheckDelegation) error {
	if v.auth == nil {
		return covmerr.New(covmerr.KindUndefinedState, "no auth context bound to this VM")
	}
	v.push(value.Boolean(v.auth.CheckDelegation(o.Delegator, o.Delegate)))
	return nil
}
