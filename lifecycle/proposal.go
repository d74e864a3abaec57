// Package lifecycle implements the proposal state machine and the
// attached-logic executor that binds the VM (package vm) to the storage
// backend (package storage). Approval runs inside a storage transaction
// and executes attached DSL logic on a real VM rather than a stub; the
// other transitions (create, publish, start voting, reject, expire) are
// plain storage writes outside any transaction.
package lifecycle

// State is a proposal's lifecycle state.
type State string

const (
	StateDraft           State = "draft"
	StateOpenForFeedback State = "open_for_feedback"
	StateVoting          State = "voting"
	StateExecuted        State = "executed"
	StateRejected        State = "rejected"
	StateExpired         State = "expired"
)

// ExecutionStatus records the outcome of running a proposal's attached
// logic.
type ExecutionStatus string

const (
	ExecutionNone    ExecutionStatus = "none"
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailure ExecutionStatus = "failure"
)

// ProposalType differentiates authorization/execution requirements across
// general/treasury/technical/parameter proposals; see authorizeExecution.
type ProposalType string

const (
	ProposalGeneral   ProposalType = "general"
	ProposalTreasury  ProposalType = "treasury"
	ProposalTechnical ProposalType = "technical"
	ProposalParameter ProposalType = "parameter"
)

// Proposal is the persisted lifecycle record.
type Proposal struct {
	ID               string
	Creator          string
	Type             ProposalType
	State            State
	CreatedAt        int64
	ExpiresAt        *int64
	QuorumPct        float64
	ThresholdPct     float64
	AttachedLogicRef string
	ExecutionStatus  ExecutionStatus
	ExecutionReason  string
	VotesRef         string
	AttachmentsRef   string

	DeliberationStartedAt *int64
	MinDeliberationHours  *float64
}

func lifecycleKey(id string) string     { return "proposals/" + id + "/lifecycle" }
func votesKey(id string) string         { return "proposals/" + id + "/votes" }
func executionResultKey(id string) string { return "proposals/" + id + "/execution_result" }

// Namespace is the fixed namespace proposal lifecycle state lives under.
const Namespace = "governance"
