// Package agents provides the civilization agent data model and lineage fields.
// See design doc Section 3.
package agents

import (
	"sort"

	"github.com/google/uuid"
)

// AgentID is a unique identifier for an agent (8-char UUID prefix).
type AgentID string

// NewID generates a fresh agent identifier.
func NewID() AgentID {
	return AgentID(uuid.NewString()[:8])
}

// Agent is an autonomous member of a civilization. The trait prompt is an
// opaque payload owned exclusively by the agent; everything the simulation
// needs to know about behavior flows through the content generator.
type Agent struct {
	ID          AgentID `json:"id"`
	TraitPrompt string  `json:"trait_prompt"`

	// Economic
	Wealth float64 `json:"wealth"`
	Age    int     `json:"age"` // Generations survived

	// Lineage. ParentID is a weak back-reference (id lookup only, empty for
	// founders); ChildrenIDs is append-only while the agent lives.
	ParentID    AgentID   `json:"parent_id,omitempty"`
	ChildrenIDs []AgentID `json:"children_ids,omitempty"`

	// Dynasty tracking — founders are their own dynasty.
	DynastyID AgentID `json:"dynasty_id"`

	// Specialization tag, derived by an external collaborator from the trait
	// payload. May be empty.
	Specialization string `json:"specialization,omitempty"`

	// Metadata
	BornGeneration int  `json:"born_generation"`
	Alive          bool `json:"alive"`
}

// NewFounder creates a first-generation agent with no parent.
func NewFounder(traitPrompt string, wealth float64) *Agent {
	id := NewID()
	return &Agent{
		ID:          id,
		TraitPrompt: traitPrompt,
		Wealth:      wealth,
		DynastyID:   id,
		Alive:       true,
	}
}

// NewOffspring creates a child agent from a parent. The caller is responsible
// for deducting the reproduction cost and appending the child id to the
// parent's children list once the child has been registered.
func NewOffspring(parent *Agent, traitPrompt string, wealth float64, generation int) *Agent {
	return &Agent{
		ID:             NewID(),
		TraitPrompt:    traitPrompt,
		Wealth:         wealth,
		ParentID:       parent.ID,
		DynastyID:      parent.DynastyID,
		BornGeneration: generation,
		Alive:          true,
	}
}

// IsFounder reports whether the agent has no parent.
func (a *Agent) IsFounder() bool {
	return a.ParentID == ""
}

// CanReproduce reports whether the agent is alive and can afford the
// reproduction cost.
func (a *Agent) CanReproduce(cost float64) bool {
	return a.Alive && a.Wealth >= cost
}

// WealthStats summarizes a population's wealth distribution.
type WealthStats struct {
	Total  float64
	Mean   float64
	Min    float64
	Max    float64
	Median float64
}

// ComputeWealthStats returns wealth statistics for the given agents.
// All fields are zero for an empty slice.
func ComputeWealthStats(list []*Agent) WealthStats {
	if len(list) == 0 {
		return WealthStats{}
	}

	wealths := make([]float64, len(list))
	for i, a := range list {
		wealths[i] = a.Wealth
	}
	sort.Float64s(wealths)

	var total float64
	for _, w := range wealths {
		total += w
	}

	n := len(wealths)
	median := wealths[n/2]
	if n%2 == 0 {
		median = (wealths[n/2-1] + wealths[n/2]) / 2
	}

	return WealthStats{
		Total:  total,
		Mean:   total / float64(n),
		Min:    wealths[0],
		Max:    wealths[n-1],
		Median: median,
	}
}

// RankByWealth returns agent ids ordered by descending wealth (rank 0 is the
// wealthiest). Ties break by id so the ordering is deterministic.
func RankByWealth(list []*Agent) []AgentID {
	sorted := make([]*Agent, len(list))
	copy(sorted, list)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Wealth != sorted[j].Wealth {
			return sorted[i].Wealth > sorted[j].Wealth
		}
		return sorted[i].ID < sorted[j].ID
	})

	ranks := make([]AgentID, len(sorted))
	for i, a := range sorted {
		ranks[i] = a.ID
	}
	return ranks
}
