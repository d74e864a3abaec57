package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icn-covm/governance-vm/identity"
	"github.com/icn-covm/governance-vm/storage"
)

func votingProposal(t *testing.T, ex *Executor, auth *identity.AuthContext, p Proposal) {
	t.Helper()
	require.NoError(t, ex.Create(auth, p))
	require.NoError(t, ex.Publish(auth, p.ID))
	require.NoError(t, ex.StartVoting(auth, p.ID))
}

func TestApproveRequiresQuorumAndThreshold(t *testing.T) {
	store := storage.New(nil, nil, nil)
	auth := adminAuth("alice")
	ex := New(store, nil, nil, PolicyCommitOnError)

	votingProposal(t, ex, auth, Proposal{ID: "p1", Creator: "alice", Type: ProposalGeneral})

	err := ex.Approve(auth, "p1", Tally{QuorumMet: false, ThresholdMet: true})
	require.Error(t, err)

	err = ex.Approve(auth, "p1", Tally{QuorumMet: true, ThresholdMet: true})
	require.NoError(t, err)

	p, err := ex.load(auth, "p1")
	require.NoError(t, err)
	assert.Equal(t, StateExecuted, p.State)
	assert.Equal(t, ExecutionSuccess, p.ExecutionStatus)
}

func TestApproveAdminOverrideBypassesTally(t *testing.T) {
	store := storage.New(nil, nil, nil)
	auth := adminAuth("alice")
	ex := New(store, nil, nil, PolicyCommitOnError)

	votingProposal(t, ex, auth, Proposal{ID: "p1", Creator: "alice", Type: ProposalGeneral})

	require.NoError(t, ex.Approve(auth, "p1", Tally{AdminOverride: true}))
}

func TestApproveTreasuryRequiresTreasuryRole(t *testing.T) {
	store := storage.New(nil, nil, nil)
	auth := adminAuth("alice")
	ex := New(store, nil, nil, PolicyCommitOnError)

	votingProposal(t, ex, auth, Proposal{ID: "p1", Creator: "alice", Type: ProposalTreasury})

	nonAdmin := identity.NewAuthContext("bob")
	nonAdmin.Grant("governance", identity.RoleWriter)

	store2 := storage.New(nil, nil, nil)
	ex2 := New(store2, nil, nil, PolicyCommitOnError)
	votingProposal(t, ex2, auth, Proposal{ID: "p2", Creator: "alice", Type: ProposalTreasury})

	err := ex2.Approve(nonAdmin, "p2", Tally{QuorumMet: true, ThresholdMet: true})
	require.Error(t, err)

	require.NoError(t, ex.Approve(auth, "p1", Tally{QuorumMet: true, ThresholdMet: true}))
}

func TestApproveRunsAttachedLogicAndRecordsFailure(t *testing.T) {
	store := storage.New(nil, nil, nil)
	auth := adminAuth("alice")
	ex := New(store, nil, nil, PolicyCommitOnError)

	_, err := store.SetTyped(auth, Namespace, "logic/broken", []byte("push 1\npush 0\ndiv\n"), "")
	require.NoError(t, err)

	votingProposal(t, ex, auth, Proposal{ID: "p1", Creator: "alice", Type: ProposalGeneral, AttachedLogicRef: "logic/broken"})

	require.NoError(t, ex.Approve(auth, "p1", Tally{QuorumMet: true, ThresholdMet: true}))

	p, err := ex.load(auth, "p1")
	require.NoError(t, err)
	assert.Equal(t, StateExecuted, p.State)
	assert.Equal(t, ExecutionFailure, p.ExecutionStatus)
	assert.NotEmpty(t, p.ExecutionReason)
}

func TestApproveRunsAttachedLogicUnderCreatorAuthNotApproverAuth(t *testing.T) {
	store := storage.New(nil, nil, nil)
	approver := adminAuth("alice")
	ex := New(store, nil, nil, PolicyCommitOnError)

	_, err := store.SetTyped(approver, Namespace, "logic/write", []byte("push 1\nstore_p counter\n"), "")
	require.NoError(t, err)

	votingProposal(t, ex, approver, Proposal{ID: "p1", Creator: "carol", Type: ProposalGeneral, AttachedLogicRef: "logic/write"})

	require.NoError(t, ex.Approve(approver, "p1", Tally{QuorumMet: true, ThresholdMet: true}))

	p, err := ex.load(approver, "p1")
	require.NoError(t, err)
	assert.Equal(t, StateExecuted, p.State)
	assert.Equal(t, ExecutionFailure, p.ExecutionStatus, "attached logic must run as carol, who has no grants, not as the admin approver alice")
	assert.NotEmpty(t, p.ExecutionReason)
}

func TestApproveRollbackPolicyDiscardsStateOnFailure(t *testing.T) {
	store := storage.New(nil, nil, nil)
	auth := adminAuth("alice")
	ex := New(store, nil, nil, PolicyRollbackOnError)

	_, err := store.Set(auth, Namespace, "counter", []byte("1"))
	require.NoError(t, err)
	_, err = store.SetTyped(auth, Namespace, "logic/broken", []byte("push 1\npush 0\ndiv\n"), "")
	require.NoError(t, err)

	votingProposal(t, ex, auth, Proposal{ID: "p1", Creator: "alice", Type: ProposalGeneral, AttachedLogicRef: "logic/broken"})

	require.NoError(t, ex.Approve(auth, "p1", Tally{QuorumMet: true, ThresholdMet: true}))

	got, err := store.Get(auth, Namespace, "counter")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
}
