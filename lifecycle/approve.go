package lifecycle

import (
	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/identity"
	"github.com/icn-covm/governance-vm/vm"
)

// Tally is the VM-produced quorum/threshold verdict an approval transition
// consumes.
type Tally struct {
	QuorumMet    bool
	ThresholdMet bool
	AdminOverride bool
}

// Approve verifies approval preconditions, begins a transaction, marks the
// proposal Executed, runs its attached logic if present, records the
// execution outcome, and commits (or rolls back, per e.rollback).
func (e *Executor) Approve(auth *identity.AuthContext, id string, tally Tally) error {
	p, err := e.load(auth, id)
	if err != nil {
		return err
	}
	if p.State != StateVoting {
		return covmerr.Newf(covmerr.KindGovernanceError, "approve requires state Voting, got %s", p.State)
	}
	if !tally.AdminOverride {
		if !tally.QuorumMet || !tally.ThresholdMet {
			return covmerr.New(covmerr.KindGovernanceError, "approve requires quorum and threshold to be met, or admin override")
		}
	} else if auth == nil || !auth.IsAdmin(Namespace) {
		return covmerr.New(covmerr.KindAuthorizationError, "admin override requires admin on the governance namespace")
	}

	if err := e.authorizeExecution(auth, p); err != nil {
		return err
	}

	if err := e.store.BeginTx(); err != nil {
		return err
	}

	p.State = StateExecuted
	p.ExecutionStatus = ExecutionNone
	if err := e.save(auth, p); err != nil {
		e.store.RollbackTx()
		return err
	}

	execErr := e.runAttachedLogic(auth, p)
	if execErr != nil {
		p.ExecutionStatus = ExecutionFailure
		p.ExecutionReason = execErr.Error()
	} else {
		p.ExecutionStatus = ExecutionSuccess
	}
	if err := e.save(auth, p); err != nil {
		e.store.RollbackTx()
		return err
	}

	if execErr != nil && e.rollback == PolicyRollbackOnError {
		e.store.RollbackTx()
		e.auditGovernance(id, "executed", "rolled_back: "+execErr.Error())
		return nil
	}

	if err := e.store.CommitTx(); err != nil {
		return err
	}
	if execErr != nil {
		e.auditGovernance(id, "executed", "failure: "+execErr.Error())
	} else {
		e.auditGovernance(id, "executed", "success")
	}
	return nil
}

// authorizeExecution applies proposal-type-specific authorization: treasury
// proposals require a treasury-signer role (writer granted on the treasury
// namespace itself, not inherited from "governance"), technical/parameter
// proposals require namespace admin, and general proposals require only the
// voting precondition already checked by the caller.
func (e *Executor) authorizeExecution(auth *identity.AuthContext, p *Proposal) error {
	switch p.Type {
	case ProposalTreasury:
		if auth == nil || !auth.RoleMap[Namespace+"/treasury"][identity.RoleWriter] && !auth.IsAdmin(Namespace) {
			return covmerr.New(covmerr.KindAuthorizationError, "treasury proposal execution requires a treasury-signer role")
		}
	case ProposalTechnical, ProposalParameter:
		if auth == nil || !auth.IsAdmin(Namespace) {
			return covmerr.New(covmerr.KindAuthorizationError, "technical/parameter proposal execution requires namespace admin")
		}
	case ProposalGeneral, "":
		// no additional authorization beyond the voting precondition.
	default:
		return covmerr.Newf(covmerr.KindValidationError, "unknown proposal type %q", p.Type)
	}
	return nil
}

// runAttachedLogic fetches and parses a proposal's attached DSL logic, if
// any, and runs it on a fresh VM scoped to the "governance" namespace.
// The VM's auth is built around the proposal creator's own identity: only
// the shared registry lookups (identities/members/credentials/delegations)
// are carried over from the approving caller, never its RoleMap, so
// attached logic executes under the creator's own grants rather than
// whoever happens to approve the proposal.
func (e *Executor) runAttachedLogic(auth *identity.AuthContext, p *Proposal) error {
	if p.AttachedLogicRef == "" {
		return nil
	}
	logicBytes, err := e.store.Get(auth, Namespace, p.AttachedLogicRef)
	if err != nil {
		return err
	}
	program, err := e.parser.Parse(string(logicBytes))
	if err != nil {
		return err
	}

	creatorAuth := identity.NewAuthContext(p.Creator)
	if auth != nil {
		creatorAuth.Identities = auth.Identities
		creatorAuth.Members = auth.Members
		creatorAuth.Credentials = auth.Credentials
		creatorAuth.Delegations = auth.Delegations
	}

	machine := vm.New(e.store, creatorAuth, Namespace, e.vmOpts...)
	return machine.Execute(program)
}
