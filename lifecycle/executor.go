package lifecycle

import (
	"encoding/json"
	"strconv"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/icn-covm/governance-vm/content"
	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/governance"
	"github.com/icn-covm/governance-vm/identity"
	"github.com/icn-covm/governance-vm/storage"
	"github.com/icn-covm/governance-vm/vm"
)

// RollbackPolicy controls what Approve does when the attached logic's VM
// run errors. The default is commit, so a failed run stays idempotently
// re-executable; a host may opt into rollback instead.
type RollbackPolicy int

const (
	PolicyCommitOnError RollbackPolicy = iota
	PolicyRollbackOnError
)

// Executor binds a storage backend and a DSL parser together to drive
// proposals through their lifecycle.
type Executor struct {
	store    *storage.Store
	parser   *governance.DSLParser
	logger   log.Logger
	clock    clock.Clock
	vmOpts   []vm.Option
	rollback RollbackPolicy
}

// New constructs an Executor. No package-level logger or clock: both are
// passed through the constructor.
func New(store *storage.Store, logger log.Logger, clk clock.Clock, rollback RollbackPolicy, vmOpts ...vm.Option) *Executor {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Executor{
		store:    store,
		parser:   governance.NewDSLParser(),
		logger:   logger,
		clock:    clk,
		vmOpts:   vmOpts,
		rollback: rollback,
	}
}

func (e *Executor) now() int64 { return e.clock.Now().UnixMilli() }

func (e *Executor) load(auth *identity.AuthContext, id string) (*Proposal, error) {
	raw, err := e.store.Get(auth, Namespace, lifecycleKey(id))
	if err != nil {
		return nil, err
	}
	var p Proposal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, covmerr.Wrap(covmerr.KindSerializationError, "corrupt proposal record", err)
	}
	return &p, nil
}

func (e *Executor) save(auth *identity.AuthContext, p *Proposal) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return covmerr.Wrap(covmerr.KindSerializationError, "failed to serialize proposal", err)
	}
	_, err = e.store.Set(auth, Namespace, lifecycleKey(p.ID), raw)
	return err
}

// Create persists a new Draft proposal. If p.ID is empty, one is derived
// deterministically from the creator, type and creation time via BLAKE3
// (content.DeriveID) rather than left to caller-supplied randomness.
func (e *Executor) Create(auth *identity.AuthContext, p Proposal) error {
	p.State = StateDraft
	p.ExecutionStatus = ExecutionNone
	if p.CreatedAt == 0 {
		p.CreatedAt = e.now()
	}
	if p.ID == "" {
		p.ID = content.DeriveID(p.Creator, string(p.Type), strconv.FormatInt(p.CreatedAt, 10))
	}
	return e.save(auth, &p)
}

// Publish transitions Draft -> OpenForFeedback and starts the deliberation
// clock.
func (e *Executor) Publish(auth *identity.AuthContext, id string) error {
	p, err := e.load(auth, id)
	if err != nil {
		return err
	}
	if p.State != StateDraft {
		return covmerr.Newf(covmerr.KindGovernanceError, "publish requires state Draft, got %s", p.State)
	}
	now := e.now()
	p.State = StateOpenForFeedback
	p.DeliberationStartedAt = &now
	return e.save(auth, p)
}

// StartVoting transitions OpenForFeedback -> Voting, enforcing the minimum
// deliberation window precondition if one was set on the proposal.
func (e *Executor) StartVoting(auth *identity.AuthContext, id string) error {
	p, err := e.load(auth, id)
	if err != nil {
		return err
	}
	if p.State != StateOpenForFeedback {
		return covmerr.Newf(covmerr.KindGovernanceError, "start_voting requires state OpenForFeedback, got %s", p.State)
	}
	if p.MinDeliberationHours != nil {
		if p.DeliberationStartedAt == nil {
			return covmerr.New(covmerr.KindGovernanceError, "deliberation window not started")
		}
		elapsedHours := float64(e.now()-*p.DeliberationStartedAt) / (1000 * 60 * 60)
		if elapsedHours < *p.MinDeliberationHours {
			return covmerr.Newf(covmerr.KindGovernanceError, "minimum deliberation window not met: %.2fh elapsed, %.2fh required", elapsedHours, *p.MinDeliberationHours)
		}
	}
	p.State = StateVoting
	return e.save(auth, p)
}

// Reject transitions Voting -> Rejected.
func (e *Executor) Reject(auth *identity.AuthContext, id string) error {
	p, err := e.load(auth, id)
	if err != nil {
		return err
	}
	if p.State != StateVoting {
		return covmerr.Newf(covmerr.KindGovernanceError, "reject requires state Voting, got %s", p.State)
	}
	p.State = StateRejected
	if err := e.save(auth, p); err != nil {
		return err
	}
	e.auditGovernance(id, "rejected", "")
	return nil
}

// Expire transitions Draft/OpenForFeedback/Voting -> Expired.
func (e *Executor) Expire(auth *identity.AuthContext, id string) error {
	p, err := e.load(auth, id)
	if err != nil {
		return err
	}
	switch p.State {
	case StateDraft, StateOpenForFeedback, StateVoting:
	default:
		return covmerr.Newf(covmerr.KindGovernanceError, "expire is invalid from state %s", p.State)
	}
	p.State = StateExpired
	if err := e.save(auth, p); err != nil {
		return err
	}
	e.auditGovernance(id, "expired", "")
	return nil
}

func (e *Executor) auditGovernance(id, event, details string) {
	level.Info(e.logger).Log("msg", "governance transition", "proposal_id", id, "event", event, "details", details)
}
