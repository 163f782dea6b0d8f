// Per-generation snapshots — the structured output of a run.
// See design doc Section 6.
package engine

import (
	"genesis/internal/agents"
	"genesis/internal/dynasty"
	"genesis/internal/metrics"
)

// RuleOutcome records one rule resolved during a generation.
type RuleOutcome struct {
	RuleID      string  `json:"rule_id"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Passed      bool    `json:"passed"`
	Enforced    bool    `json:"enforced"`
	Mechanical  bool    `json:"mechanical"`
	YesWeight   float64 `json:"yes_weight"`
	NoWeight    float64 `json:"no_weight"`
}

// Snapshot is the derived society view for one generation. It is recomputed
// from registry state, never mutated in place.
type Snapshot struct {
	Generation int `json:"generation"`
	Population int `json:"population"`
	Births     int `json:"births"`
	Deaths     int `json:"deaths"`

	TotalWealth  float64 `json:"total_wealth"`
	MeanWealth   float64 `json:"mean_wealth"`
	MedianWealth float64 `json:"median_wealth"`
	MinWealth    float64 `json:"min_wealth"`
	MaxWealth    float64 `json:"max_wealth"`
	Gini         float64 `json:"gini"`

	GovernanceEntropy float64 `json:"governance_entropy"`

	ActiveDynasties        int     `json:"active_dynasties"`
	ExtinctDynasties       int     `json:"extinct_dynasties"`
	LargestDynasty         int     `json:"largest_dynasty"`
	OldestDynastyAge       int     `json:"oldest_dynasty_age"`
	Top3DynastyWealthShare float64 `json:"top3_dynasty_wealth_share"`

	Top3AgentShare float64 `json:"top3_agent_share"`
	Top10PctShare  float64 `json:"top10pct_share"`

	Mobility metrics.Mobility `json:"mobility"`

	RulesResolved []RuleOutcome `json:"rules_resolved,omitempty"`
}

// buildSnapshot derives the society metrics for the generation that just
// completed and rolls the wealth baseline forward for next generation's
// mobility computation.
func (c *Civilization) buildSnapshot(generation, births, deaths int, resolved []RuleOutcome) Snapshot {
	live := c.reg.LiveAgents()

	wealths := make([]float64, len(live))
	currWealth := make(map[string]float64, len(live))
	for i, a := range live {
		wealths[i] = a.Wealth
		currWealth[string(a.ID)] = a.Wealth
	}

	dynasties := dynasty.Build(c.reg, generation)
	analysis := dynasty.Analyze(dynasties)

	// Undefined when no dynasty survives; reported as 0, never a crash.
	oldestAge, err := dynasty.OldestSurvivingAge(dynasties)
	if err != nil {
		oldestAge = 0
	}

	top10 := len(live) / 10
	if top10 < 1 {
		top10 = 1
	}

	stats := agents.ComputeWealthStats(live)

	snap := Snapshot{
		Generation: generation,
		Population: len(live),
		Births:     births,
		Deaths:     deaths,

		TotalWealth:  stats.Total,
		MeanWealth:   stats.Mean,
		MedianWealth: stats.Median,
		MinWealth:    stats.Min,
		MaxWealth:    stats.Max,
		Gini:         metrics.Gini(wealths),

		GovernanceEntropy: metrics.Entropy(c.ledger.EnforcedCategories()),

		ActiveDynasties:        analysis.Active,
		ExtinctDynasties:       analysis.Extinct,
		LargestDynasty:         analysis.LargestLiving,
		OldestDynastyAge:       oldestAge,
		Top3DynastyWealthShare: analysis.Top3WealthShare,

		Top3AgentShare: metrics.TopNShare(wealths, 3),
		Top10PctShare:  metrics.TopNShare(wealths, top10),

		Mobility: metrics.RankChanges(c.prevWealth, currWealth),

		RulesResolved: resolved,
	}

	c.prevWealth = currWealth
	return snap
}
