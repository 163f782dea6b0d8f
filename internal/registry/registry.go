// Package registry owns all agent records and the lineage graph.
// Lineage is a tree with weak parent back-references: traversal is by id
// lookup through the registry, never by pointer, so cycles cannot form from
// ownership and a cycle in the id graph is an invariant violation.
package registry

import (
	"errors"
	"fmt"

	"genesis/internal/agents"
)

var (
	// ErrDuplicateID is returned when adding an agent whose id already exists.
	ErrDuplicateID = errors.New("registry: duplicate agent id")

	// ErrNotFound is returned when the referenced agent does not exist.
	ErrNotFound = errors.New("registry: agent not found")

	// ErrLineageCycle indicates a cycle in parent references. This is a fatal
	// integrity violation, never a recoverable condition.
	ErrLineageCycle = errors.New("registry: lineage cycle detected")
)

// Registry holds every agent ever registered, alive or dead, plus an
// insertion-ordered live index for deterministic iteration.
type Registry struct {
	records map[agents.AgentID]*agents.Agent
	order   []agents.AgentID // every id ever, in registration order
	live    []agents.AgentID // currently-alive ids, in registration order
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		records: make(map[agents.AgentID]*agents.Agent),
	}
}

// Add registers a new live agent. Fails with ErrDuplicateID if the id exists.
func (r *Registry) Add(a *agents.Agent) error {
	if _, ok := r.records[a.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
	}
	r.records[a.ID] = a
	r.order = append(r.order, a.ID)
	if a.Alive {
		r.live = append(r.live, a.ID)
	}
	return nil
}

// Remove marks the agent dead and detaches it from the live index. The record
// itself is kept so lineage pointers to it stay valid for historical queries.
func (r *Registry) Remove(id agents.AgentID) error {
	a, ok := r.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	a.Alive = false
	for i, lid := range r.live {
		if lid == id {
			r.live = append(r.live[:i], r.live[i+1:]...)
			break
		}
	}
	return nil
}

// Get looks up an agent by id, dead or alive.
func (r *Registry) Get(id agents.AgentID) (*agents.Agent, bool) {
	a, ok := r.records[id]
	return a, ok
}

// LiveAgents returns a snapshot of the currently-alive agents in registration
// order. The returned slice is a copy, so iteration stays stable against
// additions and removals made while it is being consumed.
func (r *Registry) LiveAgents() []*agents.Agent {
	out := make([]*agents.Agent, 0, len(r.live))
	for _, id := range r.live {
		out = append(out, r.records[id])
	}
	return out
}

// LiveCount returns the number of currently-alive agents.
func (r *Registry) LiveCount() int {
	return len(r.live)
}

// EverBorn returns the number of agents ever registered.
func (r *Registry) EverBorn() int {
	return len(r.order)
}

// AllAgents returns every agent ever registered, in registration order.
func (r *Registry) AllAgents() []*agents.Agent {
	out := make([]*agents.Agent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id])
	}
	return out
}

// LineageOf walks parent references from the given agent to its founder and
// returns the chain of ids, starting with the agent itself. The walk is
// bounded by the total number of agents ever registered; exceeding that bound
// means the parent graph contains a cycle, which is fatal.
func (r *Registry) LineageOf(id agents.AgentID) ([]agents.AgentID, error) {
	a, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	chain := []agents.AgentID{a.ID}
	seen := map[agents.AgentID]bool{a.ID: true}

	for a.ParentID != "" {
		parent, ok := r.records[a.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: parent %s of %s", ErrNotFound, a.ParentID, a.ID)
		}
		if seen[parent.ID] || len(chain) > len(r.order) {
			return nil, fmt.Errorf("%w: via %s", ErrLineageCycle, parent.ID)
		}
		chain = append(chain, parent.ID)
		seen[parent.ID] = true
		a = parent
	}

	return chain, nil
}
