package governance

import (
	"genesis/internal/agents"
	"genesis/internal/metrics"
)

// SocietyState is the read view governance consumes: a snapshot recomputed
// each generation, never mutated in place, so agents never vote on
// stale-but-mutated data mid-round.
type SocietyState struct {
	Population  int
	TotalWealth float64
	MeanWealth  float64
	Gini        float64

	// WealthRank maps each live agent to its descending wealth rank
	// (0 is the wealthiest).
	WealthRank map[agents.AgentID]int

	ActiveRules []string
	Dynasties   int
	OldestAge   int
}

// BuildSocietyState derives a fresh society snapshot from the live
// population and the rule ledger.
func BuildSocietyState(live []*agents.Agent, ledger *Ledger, dynasties int) SocietyState {
	wealths := make([]float64, len(live))
	oldest := 0
	for i, a := range live {
		wealths[i] = a.Wealth
		if a.Age > oldest {
			oldest = a.Age
		}
	}

	stats := agents.ComputeWealthStats(live)

	ranks := make(map[agents.AgentID]int, len(live))
	for i, id := range agents.RankByWealth(live) {
		ranks[id] = i
	}

	return SocietyState{
		Population:  len(live),
		TotalWealth: stats.Total,
		MeanWealth:  stats.Mean,
		Gini:        metrics.Gini(wealths),
		WealthRank:  ranks,
		ActiveRules: ledger.ActiveDescriptions(),
		Dynasties:   dynasties,
		OldestAge:   oldest,
	}
}
