package lifecycle

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icn-covm/governance-vm/identity"
	"github.com/icn-covm/governance-vm/storage"
)

func adminAuth(id string) *identity.AuthContext {
	a := identity.NewAuthContext(id)
	a.Grant(identity.GlobalNamespace, identity.RoleAdmin)
	return a
}

func TestCreatePublishStartVotingHappyPath(t *testing.T) {
	store := storage.New(nil, nil, nil)
	auth := adminAuth("alice")
	mock := clock.NewMock()
	ex := New(store, nil, mock, PolicyCommitOnError)

	require.NoError(t, ex.Create(auth, Proposal{ID: "p1", Creator: "alice", Type: ProposalGeneral}))
	require.NoError(t, ex.Publish(auth, "p1"))

	p, err := ex.load(auth, "p1")
	require.NoError(t, err)
	assert.Equal(t, StateOpenForFeedback, p.State)

	require.NoError(t, ex.StartVoting(auth, "p1"))
	p, err = ex.load(auth, "p1")
	require.NoError(t, err)
	assert.Equal(t, StateVoting, p.State)
}

func TestStartVotingEnforcesMinDeliberationWindow(t *testing.T) {
	store := storage.New(nil, nil, nil)
	auth := adminAuth("alice")
	mock := clock.NewMock()
	ex := New(store, nil, mock, PolicyCommitOnError)

	minHours := 24.0
	require.NoError(t, ex.Create(auth, Proposal{ID: "p1", Creator: "alice", Type: ProposalGeneral, MinDeliberationHours: &minHours}))
	require.NoError(t, ex.Publish(auth, "p1"))

	err := ex.StartVoting(auth, "p1")
	require.Error(t, err)

	mock.Add(25 * 60 * 60 * 1_000_000_000) // 25 hours in nanoseconds
	require.NoError(t, ex.StartVoting(auth, "p1"))
}

func TestRejectRequiresVotingState(t *testing.T) {
	store := storage.New(nil, nil, nil)
	auth := adminAuth("alice")
	ex := New(store, nil, nil, PolicyCommitOnError)

	require.NoError(t, ex.Create(auth, Proposal{ID: "p1", Creator: "alice"}))
	err := ex.Reject(auth, "p1")
	require.Error(t, err)
}

func TestExpireFromMultipleStates(t *testing.T) {
	store := storage.New(nil, nil, nil)
	auth := adminAuth("alice")
	ex := New(store, nil, nil, PolicyCommitOnError)

	require.NoError(t, ex.Create(auth, Proposal{ID: "p1", Creator: "alice"}))
	require.NoError(t, ex.Expire(auth, "p1"))

	p, err := ex.load(auth, "p1")
	require.NoError(t, err)
	assert.Equal(t, StateExpired, p.State)
}
