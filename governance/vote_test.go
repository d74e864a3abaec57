package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankedVoteMajorityFirstRound(t *testing.T) {
	// candidate 1 has an outright majority already.
	ballots := [][]int{
		{1, 2, 3},
		{1, 3, 2},
		{1, 2, 3},
		{2, 1, 3},
		{3, 1, 2},
	}
	winner, err := RankedVote(3, ballots)
	require.NoError(t, err)
	assert.Equal(t, 1, winner)
}

func TestRankedVoteEliminationRound(t *testing.T) {
	// candidate 1 wins after one elimination round.
	ballots := [][]int{
		{1, 2, 3},
		{1, 3, 2},
		{2, 1, 3},
		{2, 3, 1},
		{3, 1, 2},
	}
	winner, err := RankedVote(3, ballots)
	require.NoError(t, err)
	assert.Equal(t, 1, winner)
}

func TestRankedVoteNoMajorityEver(t *testing.T) {
	ballots := [][]int{
		{1},
		{2},
	}
	winner, err := RankedVote(2, ballots)
	require.NoError(t, err)
	assert.Equal(t, 0, winner)
}

func TestRankedVoteValidation(t *testing.T) {
	_, err := RankedVote(1, [][]int{{1}})
	require.Error(t, err)

	_, err = RankedVote(2, nil)
	require.Error(t, err)
}

func TestQuorumThresholdInvertedTruth(t *testing.T) {
	met, err := QuorumThreshold(60, 100, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0, met, "quorum met should encode as 0")

	notMet, err := QuorumThreshold(10, 100, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, notMet, "quorum not met should encode as 1")
}

func TestQuorumThresholdValidatesRatio(t *testing.T) {
	_, err := QuorumThreshold(1, 1, 1.5)
	require.Error(t, err)
}

func TestVoteThreshold(t *testing.T) {
	assert.Equal(t, 0, VoteThreshold(10, 5))
	assert.Equal(t, 1, VoteThreshold(3, 5))
}
