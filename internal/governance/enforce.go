package governance

import (
	"fmt"
	"math"

	"genesis/internal/agents"
)

// EnforcementOutcome summarizes what one rule application did. Mechanical is
// false for categories outside the closed effect set (other, reproduction,
// competition): those rules are recorded as passed with an explicit no-op,
// never silently ignored.
type EnforcementOutcome struct {
	Mechanical    bool    `json:"mechanical"`
	PoolCollected float64 `json:"pool_collected,omitempty"`
	AgentsTaxed   int     `json:"agents_taxed,omitempty"`
	AgentsRaised  int     `json:"agents_raised,omitempty"`
	AgentsBoosted int     `json:"agents_boosted,omitempty"`
}

// Enforce applies a passed rule's effect to the living population exactly
// once and moves the rule to its terminal ENFORCED state. Calling it on a
// rule in any other state fails with ErrRuleState; a resolved rule's tally
// and effect never change on repeated reads.
func (l *Ledger) Enforce(r *Rule, live []*agents.Agent, generation int) (EnforcementOutcome, error) {
	if r.State != StatePassed {
		return EnforcementOutcome{}, fmt.Errorf("%w: enforce from %s", ErrRuleState, r.State)
	}

	var out EnforcementOutcome
	switch {
	case r.Effect.Taxation != nil:
		out = applyTaxation(r.Effect.Taxation, live)
	case r.Effect.Meritocracy != nil:
		out = l.applyMeritocracy(r.Effect.Meritocracy)
	case r.Effect.Welfare != nil:
		out = applyWelfare(r.Effect.Welfare, live)
	case r.Effect.Oligarchy != nil:
		out = l.applyOligarchy(r.Effect.Oligarchy, live)
	default:
		// Closed variant set: anything else passes without mechanical effect.
		out = EnforcementOutcome{Mechanical: false}
	}

	r.State = StateEnforced
	r.GenerationEnacted = generation
	return out, nil
}

// applyTaxation collects Rate of each agent's wealth above Threshold into a
// pool and redistributes it equally among the living. Only excess above the
// threshold is taxed, so no agent is pushed below it.
func applyTaxation(t *TaxationEffect, live []*agents.Agent) EnforcementOutcome {
	if len(live) == 0 {
		return EnforcementOutcome{Mechanical: true}
	}

	var pool float64
	taxed := 0
	for _, a := range live {
		excess := a.Wealth - t.Threshold
		if excess <= 0 {
			continue
		}
		tax := excess * t.Rate
		a.Wealth -= tax
		pool += tax
		taxed++
	}

	share := pool / float64(len(live))
	for _, a := range live {
		a.Wealth += share
	}

	return EnforcementOutcome{Mechanical: true, PoolCollected: pool, AgentsTaxed: taxed}
}

// applyMeritocracy records the reproduction restriction on the ledger; the
// lifecycle engine consults it each generation. When several meritocracy
// rules are in force the most restrictive fraction wins.
func (l *Ledger) applyMeritocracy(m *MeritocracyEffect) EnforcementOutcome {
	top := m.TopFraction
	if l.reproductionTop == nil || top < *l.reproductionTop {
		l.reproductionTop = &top
	}
	return EnforcementOutcome{Mechanical: true}
}

// applyWelfare raises any agent below the floor to the floor.
func applyWelfare(w *WelfareEffect, live []*agents.Agent) EnforcementOutcome {
	raised := 0
	for _, a := range live {
		if a.Wealth < w.Floor {
			a.Wealth = w.Floor
			raised++
		}
	}
	return EnforcementOutcome{Mechanical: true, AgentsRaised: raised}
}

// applyOligarchy multiplies the vote weight of the top fraction of agents by
// wealth rank in all subsequent tallies. Boosts compound across oligarchy
// rules.
func (l *Ledger) applyOligarchy(o *OligarchyEffect, live []*agents.Agent) EnforcementOutcome {
	if len(live) == 0 {
		return EnforcementOutcome{Mechanical: true}
	}

	ranked := agents.RankByWealth(live)
	count := int(math.Ceil(o.TopFraction * float64(len(ranked))))
	if count > len(ranked) {
		count = len(ranked)
	}

	for _, id := range ranked[:count] {
		l.voteBoost[id] = l.VoteWeightMultiplier(id) * o.Multiplier
	}

	return EnforcementOutcome{Mechanical: true, AgentsBoosted: count}
}
