package vm

import (
	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/governance"
	"github.com/icn-covm/governance-vm/ops"
	"github.com/icn-covm/governance-vm/value"
)

// opRankedVote pops candidate_count*ballot_count preference values off the
// stack, reconstructs ballots, and runs instant-runoff via package
// governance.
func (v *VM) opRankedVote(o ops.RankedVote) error {
	if o.CandidateCount < 2 {
		return covmerr.New(covmerr.KindValidationError, "ranked_vote requires at least 2 candidates")
	}
	if o.BallotCount < 1 {
		return covmerr.New(covmerr.KindValidationError, "ranked_vote requires at least 1 ballot")
	}
	total := o.CandidateCount * o.BallotCount
	popped := make([]int, total)
	for i := 0; i < total; i++ {
		val, err := v.pop()
		if err != nil {
			return err
		}
		n, ok := val.(value.Number)
		if !ok {
			return covmerr.New(covmerr.KindValidationError, "ranked_vote preferences must be numbers")
		}
		popped[i] = int(n)
	}

	ballots := make([][]int, o.BallotCount)
	for j := 1; j <= o.BallotCount; j++ {
		blockStart := (o.BallotCount - j) * o.CandidateCount
		ballot := make([]int, o.CandidateCount)
		for k := 1; k <= o.CandidateCount; k++ {
			ballot[k-1] = popped[blockStart+(o.CandidateCount-k)]
		}
		ballots[j-1] = ballot
	}

	winner, err := governance.RankedVote(o.CandidateCount, ballots)
	if err != nil {
		return err
	}
	v.push(value.Number(winner))
	return nil
}

func (v *VM) opQuorumThreshold(o ops.QuorumThreshold) error {
	votesCast, err := v.pop()
	if err != nil {
		return err
	}
	votesPossible, err := v.pop()
	if err != nil {
		return err
	}
	cast, ok1 := votesCast.(value.Number)
	possible, ok2 := votesPossible.(value.Number)
	if !ok1 || !ok2 {
		return covmerr.New(covmerr.KindValidationError, "quorum_threshold operands must be numbers")
	}
	result, err := governance.QuorumThreshold(float64(cast), float64(possible), o.Ratio)
	if err != nil {
		return err
	}
	v.push(value.Number(result))
	return nil
}

func (v *VM) opVoteThreshold(o ops.VoteThreshold) error {
	yesVotes, err := v.pop()
	if err != nil {
		return err
	}
	n, ok := yesVotes.(value.Number)
	if !ok {
		return covmerr.New(covmerr.KindValidationError, "vote_threshold operand must be a number")
	}
	v.push(value.Number(governance.VoteThreshold(float64(n), o.Min)))
	return nil
}
