// Lifecycle phases — task scoring, reproduction, and death.
// See design doc Section 4.2.
package engine

import (
	"fmt"
	"log/slog"

	"genesis/internal/agents"
	"genesis/internal/llm"
)

// applyScoring adds each live agent's task-scoring wealth delta. Deltas are
// applied to all agents before any death check.
func (c *Civilization) applyScoring(live []*agents.Agent, generation int) {
	for _, a := range live {
		delta := c.scorer.Score(a.ID, a.TraitPrompt, generation)
		a.Wealth += delta
	}
}

// runReproduction lets every eligible agent produce one offspring. The
// operation is atomic per parent: the child trait is generated first, so a
// failed generator call refuses the reproduction with the parent untouched;
// once the child is registered the deduction and children append cannot fail.
func (c *Civilization) runReproduction(generation int) (int, error) {
	live := c.reg.LiveAgents()

	ranks := make(map[agents.AgentID]int, len(live))
	for i, id := range agents.RankByWealth(live) {
		ranks[id] = i
	}
	topFraction, restricted := c.ledger.ReproductionPolicy()

	births := 0
	for _, parent := range live {
		// Eligibility is checked at the moment of reproduction: earlier
		// births this phase may have drained the parent below the cost.
		if !parent.CanReproduce(c.cfg.ReproductionCost) {
			continue
		}
		if restricted && float64(ranks[parent.ID]) >= topFraction*float64(len(live)) {
			continue
		}

		trait, err := c.offspringTrait(parent)
		if err != nil {
			slog.Warn("reproduction refused",
				"civilization", c.Name,
				"parent", parent.ID,
				"error", err,
			)
			continue
		}

		child := agents.NewOffspring(parent, trait, c.cfg.ChildStartingWealth, generation)
		if err := c.reg.Add(child); err != nil {
			return births, fmt.Errorf("register offspring of %s: %w", parent.ID, err)
		}
		parent.Wealth -= c.cfg.ReproductionCost
		parent.ChildrenIDs = append(parent.ChildrenIDs, child.ID)
		births++

		slog.Debug("agent born",
			"civilization", c.Name,
			"id", child.ID,
			"parent", parent.ID,
			"dynasty", child.DynastyID,
			"generation", generation,
		)
	}

	return births, nil
}

// offspringTrait asks the content generator for a mutated child trait
// payload. Without a generator the child inherits the parent's traits
// unchanged.
func (c *Civilization) offspringTrait(parent *agents.Agent) (string, error) {
	if c.generator == nil {
		return parent.TraitPrompt, nil
	}

	system, user := llm.OffspringPrompt(llm.OffspringContext{
		ParentTrait:    parent.TraitPrompt,
		ParentAge:      parent.Age,
		ParentWealth:   parent.Wealth,
		Specialization: parent.Specialization,
		MutationRate:   c.cfg.MutationRate,
	})
	resp, err := c.generator.Complete(system, user, 500)
	if err != nil {
		return "", fmt.Errorf("generate offspring trait: %w", err)
	}
	return llm.ParseTrait(resp)
}

// ExtinctionRecord logs one agent's death.
type ExtinctionRecord struct {
	AgentID        agents.AgentID `json:"agent_id"`
	DynastyID      agents.AgentID `json:"dynasty_id"`
	Generation     int            `json:"generation"`
	AgeAtDeath     int            `json:"age_at_death"`
	FinalWealth    float64        `json:"final_wealth"`
	Cause          string         `json:"cause"`
	Specialization string         `json:"specialization,omitempty"`
}

// ExtinctionStats aggregates a run's death log.
type ExtinctionStats struct {
	Total            int            `json:"total"`
	MeanAgeAtDeath   float64        `json:"mean_age_at_death"`
	MaxAgeAtDeath    int            `json:"max_age_at_death"`
	ByDynasty        map[string]int `json:"by_dynasty,omitempty"`
	BySpecialization map[string]int `json:"by_specialization,omitempty"`
}

// ComputeExtinctionStats summarizes the extinction log: how long agents
// survived before going insolvent, and which dynasties and specializations
// the deaths concentrated in. Zero-valued for an empty log.
func ComputeExtinctionStats(records []ExtinctionRecord) ExtinctionStats {
	if len(records) == 0 {
		return ExtinctionStats{}
	}

	stats := ExtinctionStats{
		Total:            len(records),
		ByDynasty:        make(map[string]int),
		BySpecialization: make(map[string]int),
	}

	ageSum := 0
	for _, e := range records {
		ageSum += e.AgeAtDeath
		if e.AgeAtDeath > stats.MaxAgeAtDeath {
			stats.MaxAgeAtDeath = e.AgeAtDeath
		}
		stats.ByDynasty[string(e.DynastyID)]++
		if e.Specialization != "" {
			stats.BySpecialization[e.Specialization]++
		}
	}
	stats.MeanAgeAtDeath = float64(ageSum) / float64(len(records))

	if len(stats.BySpecialization) == 0 {
		stats.BySpecialization = nil
	}
	return stats
}

// runDeaths removes every agent whose wealth has fallen to zero or below.
// Each agent is examined exactly once; once removed it is excluded from all
// further processing this generation, including governance.
func (c *Civilization) runDeaths(generation int) (int, error) {
	deaths := 0
	for _, a := range c.reg.LiveAgents() {
		if a.Wealth > 0 {
			continue
		}
		if err := c.reg.Remove(a.ID); err != nil {
			return deaths, fmt.Errorf("remove deceased %s: %w", a.ID, err)
		}
		c.extinctions = append(c.extinctions, ExtinctionRecord{
			AgentID:        a.ID,
			DynastyID:      a.DynastyID,
			Generation:     generation,
			AgeAtDeath:     a.Age,
			FinalWealth:    a.Wealth,
			Cause:          "bankruptcy",
			Specialization: a.Specialization,
		})
		deaths++

		slog.Info("agent died",
			"civilization", c.Name,
			"id", a.ID,
			"dynasty", a.DynastyID,
			"final_wealth", fmt.Sprintf("%.1f", a.Wealth),
			"age", a.Age,
			"generation", generation,
		)
	}
	return deaths, nil
}
