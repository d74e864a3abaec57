package governance

import "github.com/icn-covm/governance-vm/covmerr"

// DelegationGraph is the VM's in-memory liquid_delegate bookkeeping for a
// single tally run, distinct from identity.DelegationRegistry's durable
// links.
type DelegationGraph struct {
	edges map[string]string
}

func NewDelegationGraph() *DelegationGraph {
	return &DelegationGraph{edges: make(map[string]string)}
}

// Delegate records from -> to, or removes any delegation from "from" when
// to is empty. Rejects delegations that would form a cycle.
func (g *DelegationGraph) Delegate(from, to string) error {
	if from == "" {
		return covmerr.New(covmerr.KindValidationError, "liquid_delegate requires a non-empty from")
	}
	if to == "" {
		delete(g.edges, from)
		return nil
	}
	// walk forward from `to`; if we ever reach `from`, adding from->to
	// would close a cycle.
	seen := map[string]bool{from: true}
	cur := to
	for {
		if seen[cur] {
			if cur == from {
				return covmerr.Newf(covmerr.KindValidationError, "liquid_delegate from %q to %q would create a cycle", from, to)
			}
			break
		}
		seen[cur] = true
		next, ok := g.edges[cur]
		if !ok {
			break
		}
		cur = next
	}
	g.edges[from] = to
	return nil
}

// Resolve follows the delegation chain starting at voter to fixpoint,
// returning the final non-delegating holder. Guards against cycles that
// might have slipped in (defensive; Delegate already rejects them).
func (g *DelegationGraph) Resolve(voter string) string {
	seen := map[string]bool{voter: true}
	cur := voter
	for {
		next, ok := g.edges[cur]
		if !ok {
			return cur
		}
		if seen[next] {
			return cur
		}
		seen[next] = true
		cur = next
	}
}
