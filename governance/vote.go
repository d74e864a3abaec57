// Package governance implements the pure, side-effect-free governance
// opcodes (ranked-choice tally, quorum/vote threshold tests, liquid
// delegation resolution), plus the comment forest and a minimal DSL
// lowering step the lifecycle executor uses to parse attached proposal
// logic.
//
// Governance math lives here as pure functions, independently testable of
// stack/storage concerns; package vm only calls into it from the
// corresponding opcode handlers.
package governance

import "github.com/icn-covm/governance-vm/covmerr"

// RankedVote runs instant-runoff voting over ballots, each a 1-based
// preference ordering of candidates (ballots[i][0] is the voter's first
// choice). In each round, it tallies the top surviving preference per
// ballot; a strict majority of non-exhausted ballots wins; otherwise it
// eliminates the candidate with fewest votes (ties broken by lowest
// candidate index) and repeats. Returns 0 if no candidate ever reaches a
// majority.
func RankedVote(candidateCount int, ballots [][]int) (int, error) {
	if candidateCount < 2 {
		return 0, covmerr.New(covmerr.KindValidationError, "ranked_vote requires at least 2 candidates")
	}
	if len(ballots) < 1 {
		return 0, covmerr.New(covmerr.KindValidationError, "ranked_vote requires at least 1 ballot")
	}

	dead := make(map[int]bool, candidateCount)
	for {
		tally := make(map[int]int, candidateCount)
		nonExhausted := 0
		for _, ballot := range ballots {
			choice := topSurviving(ballot, dead)
			if choice == 0 {
				continue
			}
			tally[choice]++
			nonExhausted++
		}
		if nonExhausted == 0 {
			return 0, nil
		}
		for cand := 1; cand <= candidateCount; cand++ {
			if dead[cand] {
				continue
			}
			if tally[cand]*2 > nonExhausted {
				return cand, nil
			}
		}
		// eliminate fewest votes, tie-break lowest index; candidates with
		// zero tallied votes are eligible for elimination too.
		elim := -1
		elimVotes := -1
		for cand := 1; cand <= candidateCount; cand++ {
			if dead[cand] {
				continue
			}
			v := tally[cand]
			if elim == -1 || v < elimVotes {
				elim = cand
				elimVotes = v
			}
		}
		if elim == -1 {
			return 0, nil
		}
		dead[elim] = true
		remaining := 0
		for cand := 1; cand <= candidateCount; cand++ {
			if !dead[cand] {
				remaining++
			}
		}
		if remaining == 0 {
			return 0, nil
		}
	}
}

func topSurviving(ballot []int, dead map[int]bool) int {
	for _, c := range ballot {
		if !dead[c] {
			return c
		}
	}
	return 0
}

// QuorumThreshold follows an inverted-truth convention: it returns 0 if
// votesCast/votesPossible >= ratio ("met"), else 1. This is deliberate, not
// a bug: the downstream `if` opcode reads 0 as falsy, so callers compose
// with `if` to branch on "quorum NOT met".
func QuorumThreshold(votesCast, votesPossible, ratio float64) (int, error) {
	if ratio < 0 || ratio > 1 {
		return 0, covmerr.New(covmerr.KindValidationError, "quorum_threshold ratio must be in [0, 1]")
	}
	if votesPossible == 0 {
		return 1, nil
	}
	if votesCast/votesPossible >= ratio {
		return 0, nil
	}
	return 1, nil
}

// VoteThreshold returns 0 if yesVotes >= min, else 1.
func VoteThreshold(yesVotes, min float64) int {
	if yesVotes >= min {
		return 0
	}
	return 1
}
