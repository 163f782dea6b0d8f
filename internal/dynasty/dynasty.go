// Package dynasty derives family-line views from the population registry.
// A dynasty is the transitive closure of descendants from one founder; it is
// recomputed from registry state each generation, never cached as
// authoritative data, and an extinct dynasty stays queryable forever.
package dynasty

import (
	"errors"
	"sort"

	"genesis/internal/agents"
	"genesis/internal/registry"
)

// ErrNoActiveDynasty is returned when a statistic over surviving dynasties
// is requested and none have living members. Callers handle it; the oldest
// surviving age is simply undefined in that case.
var ErrNoActiveDynasty = errors.New("dynasty: no dynasty has living members")

// Dynasty is the derived record for one founder's line.
type Dynasty struct {
	FounderID         agents.AgentID   `json:"founder_id"`
	FounderGeneration int              `json:"founder_generation"`
	LivingMembers     []agents.AgentID `json:"living_members"`
	TotalEverBorn     int              `json:"total_ever_born"`
	LivingWealth      float64          `json:"living_wealth"`
	Generations       int              `json:"generations"` // since founding
	Specialization    string           `json:"specialization,omitempty"`
	Extinct           bool             `json:"extinct"`
}

// Build derives the full dynasty set, including extinct ones, from every
// agent the registry has ever seen. Each agent belongs to exactly one
// dynasty, keyed by its founder's id.
func Build(reg *registry.Registry, currentGeneration int) map[agents.AgentID]*Dynasty {
	dynasties := make(map[agents.AgentID]*Dynasty)

	for _, a := range reg.AllAgents() {
		d, ok := dynasties[a.DynastyID]
		if !ok {
			founderGen := 0
			if founder, ok := reg.Get(a.DynastyID); ok {
				founderGen = founder.BornGeneration
			}
			d = &Dynasty{
				FounderID:         a.DynastyID,
				FounderGeneration: founderGen,
			}
			dynasties[a.DynastyID] = d
		}

		d.TotalEverBorn++
		if a.Alive {
			d.LivingMembers = append(d.LivingMembers, a.ID)
			d.LivingWealth += a.Wealth
		}
	}

	for _, d := range dynasties {
		d.Extinct = len(d.LivingMembers) == 0
		d.Generations = currentGeneration - d.FounderGeneration
		d.Specialization = dominantSpecialization(reg, d.LivingMembers)
	}

	return dynasties
}

// dominantSpecialization picks the most common specialization tag among the
// living members, ties broken alphabetically for determinism.
func dominantSpecialization(reg *registry.Registry, members []agents.AgentID) string {
	counts := make(map[string]int)
	for _, id := range members {
		if a, ok := reg.Get(id); ok && a.Specialization != "" {
			counts[a.Specialization]++
		}
	}
	best := ""
	for spec, c := range counts {
		if best == "" || c > counts[best] || (c == counts[best] && spec < best) {
			best = spec
		}
	}
	return best
}

// Analysis aggregates the dynasty set for one generation.
type Analysis struct {
	Active          int            `json:"active"`
	Extinct         int            `json:"extinct"`
	LargestLiving   int            `json:"largest_living"`
	Top3WealthShare float64        `json:"top3_wealth_share"`
	Specializations map[string]int `json:"specializations,omitempty"`
	TotalPopulation int            `json:"total_population"`
}

// Analyze summarizes the dynasty set. All concentration fields are zero when
// no dynasty is active.
func Analyze(dynasties map[agents.AgentID]*Dynasty) Analysis {
	var active []*Dynasty
	extinct := 0
	for _, d := range dynasties {
		if d.Extinct {
			extinct++
		} else {
			active = append(active, d)
		}
	}

	analysis := Analysis{Active: len(active), Extinct: extinct}
	if len(active) == 0 {
		return analysis
	}

	var totalWealth float64
	specs := make(map[string]int)
	for _, d := range active {
		if len(d.LivingMembers) > analysis.LargestLiving {
			analysis.LargestLiving = len(d.LivingMembers)
		}
		analysis.TotalPopulation += len(d.LivingMembers)
		totalWealth += d.LivingWealth
		if d.Specialization != "" {
			specs[d.Specialization] += len(d.LivingMembers)
		}
	}
	if len(specs) > 0 {
		analysis.Specializations = specs
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].LivingWealth != active[j].LivingWealth {
			return active[i].LivingWealth > active[j].LivingWealth
		}
		return active[i].FounderID < active[j].FounderID
	})
	top := active
	if len(top) > 3 {
		top = top[:3]
	}
	var top3 float64
	for _, d := range top {
		top3 += d.LivingWealth
	}
	if totalWealth > 0 {
		analysis.Top3WealthShare = top3 / totalWealth
	}

	return analysis
}

// OldestSurvivingAge returns the generations-since-founding of the oldest
// dynasty with at least one living member. Fails with ErrNoActiveDynasty
// when none are alive.
func OldestSurvivingAge(dynasties map[agents.AgentID]*Dynasty) (int, error) {
	oldest := -1
	for _, d := range dynasties {
		if d.Extinct {
			continue
		}
		if d.Generations > oldest {
			oldest = d.Generations
		}
	}
	if oldest < 0 {
		return 0, ErrNoActiveDynasty
	}
	return oldest, nil
}
