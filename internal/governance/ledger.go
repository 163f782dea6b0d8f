package governance

import (
	"fmt"

	"genesis/internal/agents"
)

// Ledger is the append-only record of every rule ever proposed, plus the
// standing policies (vote-weight boosts, reproduction restrictions) that
// enforced rules leave behind. The ledger owns all Rule records.
type Ledger struct {
	rules    []*Rule
	inFlight map[agents.AgentID]string // proposer id → unresolved rule id

	voteBoost map[agents.AgentID]float64 // oligarchy multipliers, default 1

	// Most restrictive meritocracy policy currently in force, nil when none.
	reproductionTop *float64
}

// NewLedger creates an empty rule ledger.
func NewLedger() *Ledger {
	return &Ledger{
		inFlight:  make(map[agents.AgentID]string),
		voteBoost: make(map[agents.AgentID]float64),
	}
}

// Propose appends a freshly parsed rule. An agent may have at most one
// PROPOSED/VOTING rule in flight at a time.
func (l *Ledger) Propose(r *Rule) error {
	if id, ok := l.inFlight[r.ProposerID]; ok {
		return fmt.Errorf("%w: agent %s has unresolved rule %s", ErrConcurrentProposal, r.ProposerID, id)
	}
	l.rules = append(l.rules, r)
	l.inFlight[r.ProposerID] = r.ID
	return nil
}

// Resolve clears the proposer's in-flight slot once the rule's vote closed.
func (l *Ledger) Resolve(r *Rule) {
	if l.inFlight[r.ProposerID] == r.ID {
		delete(l.inFlight, r.ProposerID)
	}
}

// Rules returns the full ledger in proposal order.
func (l *Ledger) Rules() []*Rule {
	out := make([]*Rule, len(l.rules))
	copy(out, l.rules)
	return out
}

// EnforcedCategories returns the category counts of enforced rules only.
func (l *Ledger) EnforcedCategories() map[string]int {
	counts := make(map[string]int)
	for _, r := range l.rules {
		if r.State == StateEnforced {
			counts[string(r.Effect.Category)]++
		}
	}
	return counts
}

// ActiveDescriptions lists the descriptions of passed, still-enforced rules.
func (l *Ledger) ActiveDescriptions() []string {
	var out []string
	for _, r := range l.rules {
		if r.State == StateEnforced {
			out = append(out, r.Description)
		}
	}
	return out
}

// VoteWeightMultiplier returns the standing oligarchy multiplier for an
// agent, 1 when none applies.
func (l *Ledger) VoteWeightMultiplier(id agents.AgentID) float64 {
	if m, ok := l.voteBoost[id]; ok {
		return m
	}
	return 1
}

// ReproductionPolicy returns the meritocracy restriction in force: the top
// wealth-rank fraction still allowed to reproduce, and whether any
// restriction applies.
func (l *Ledger) ReproductionPolicy() (float64, bool) {
	if l.reproductionTop == nil {
		return 1, false
	}
	return *l.reproductionTop, true
}
