// Package engine drives civilizations through discrete generations:
// task scoring, reproduction, death, governance on cadence, and metrics.
// One Civilization is a single logical thread of control; parallel runs are
// share-nothing.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"

	"genesis/internal/agents"
	"genesis/internal/config"
	"genesis/internal/governance"
	"genesis/internal/llm"
	"genesis/internal/registry"
	"genesis/internal/tasks"
)

// Termination reasons reported in a Result. Extinction is a terminal
// outcome, not a failure; integrity failure means an invariant was violated
// and the run stopped with its last valid snapshot.
const (
	TerminationMaxGenerations   = "max_generations"
	TerminationExtinction       = "extinction"
	TerminationIntegrityFailure = "integrity_failure"
)

// Civilization owns everything one run needs: its population registry, rule
// ledger, RNG, scorer, and content-generator handle. Nothing here is shared
// between civilizations.
type Civilization struct {
	Name string

	cfg       config.Config
	reg       *registry.Registry
	ledger    *governance.Ledger
	generator llm.Generator // nil → offline fallbacks
	scorer    tasks.Scorer
	rng       *rand.Rand

	generation  int
	snapshots   []Snapshot
	prevWealth  map[string]float64
	extinctions []ExtinctionRecord
}

// New seeds a civilization with founder agents. The configuration must
// already be valid; a nil generator switches reproduction and governance to
// their offline fallbacks.
func New(name string, cfg config.Config, gen llm.Generator, scorer tasks.Scorer, seed int64) (*Civilization, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if scorer == nil {
		return nil, fmt.Errorf("engine: scorer is required")
	}

	c := &Civilization{
		Name:       name,
		cfg:        cfg,
		reg:        registry.New(),
		ledger:     governance.NewLedger(),
		generator:  gen,
		scorer:     scorer,
		rng:        rand.New(rand.NewSource(seed)),
		prevWealth: make(map[string]float64),
	}

	for i := 0; i < cfg.PopulationSize; i++ {
		founder := agents.NewFounder(cfg.InitialPrompt, cfg.StartingWealth)
		if err := c.reg.Add(founder); err != nil {
			return nil, fmt.Errorf("seed founders: %w", err)
		}
	}

	return c, nil
}

// Registry exposes the civilization's population registry for read-side
// consumers (persistence, analysis).
func (c *Civilization) Registry() *registry.Registry {
	return c.reg
}

// Ledger exposes the civilization's rule ledger.
func (c *Civilization) Ledger() *governance.Ledger {
	return c.ledger
}

// Result is the output of a complete run: the snapshot sequence, the full
// rule ledger, every agent ever born, and the extinction log — sufficient to
// reconstruct every dynasty and rule outcome after the fact.
type Result struct {
	Name        string
	Snapshots   []Snapshot
	Rules       []*governance.Rule
	Agents      []*agents.Agent
	Extinctions []ExtinctionRecord
	Termination string
	Err         error
}

// Run drives the civilization until max generations, extinction, or an
// integrity failure. An integrity failure never continues with possibly
// corrupt state: the run stops and reports the snapshots taken so far plus
// the cause.
func (c *Civilization) Run() Result {
	slog.Info("civilization started",
		"civilization", c.Name,
		"population", c.reg.LiveCount(),
		"voting_system", c.cfg.VotingSystem,
		"max_generations", c.cfg.MaxGenerations,
	)

	for c.generation < c.cfg.MaxGenerations {
		snap, err := c.RunGeneration()
		if err != nil {
			slog.Error("run aborted on integrity failure",
				"civilization", c.Name,
				"generation", c.generation,
				"error", err,
			)
			return c.result(TerminationIntegrityFailure, err)
		}
		c.snapshots = append(c.snapshots, snap)

		if snap.Population == 0 {
			slog.Info("civilization extinct",
				"civilization", c.Name,
				"generation", snap.Generation,
			)
			return c.result(TerminationExtinction, nil)
		}
	}

	return c.result(TerminationMaxGenerations, nil)
}

func (c *Civilization) result(termination string, err error) Result {
	return Result{
		Name:        c.Name,
		Snapshots:   c.snapshots,
		Rules:       c.ledger.Rules(),
		Agents:      c.reg.AllAgents(),
		Extinctions: c.extinctions,
		Termination: termination,
		Err:         err,
	}
}

// RunGeneration advances the civilization by one generation. Within a
// generation every phase runs strictly in order: scoring, reproduction,
// death, governance (on cadence), metrics. Capability errors degrade inside
// their phase; only integrity errors propagate.
func (c *Civilization) RunGeneration() (Snapshot, error) {
	c.generation++
	gen := c.generation

	// Aging happens first: age counts generations survived while alive.
	live := c.reg.LiveAgents()
	for _, a := range live {
		a.Age++
	}

	// Wealth deltas apply to every live agent before any death check.
	c.applyScoring(live, gen)

	births, err := c.runReproduction(gen)
	if err != nil {
		return Snapshot{}, err
	}

	// Deaths are evaluated strictly after the generation's wealth-affecting
	// events. A parent that reproduced into insolvency dies here.
	deaths, err := c.runDeaths(gen)
	if err != nil {
		return Snapshot{}, err
	}

	var resolved []RuleOutcome
	if gen%c.cfg.GovernanceCadence == 0 && c.reg.LiveCount() > 0 {
		resolved, err = c.runGovernance(gen)
		if err != nil {
			return Snapshot{}, err
		}
	}

	snap := c.buildSnapshot(gen, births, deaths, resolved)

	slog.Info("generation report",
		"civilization", c.Name,
		"generation", gen,
		"population", snap.Population,
		"births", births,
		"deaths", deaths,
		"gini", fmt.Sprintf("%.3f", snap.Gini),
		"entropy", fmt.Sprintf("%.3f", snap.GovernanceEntropy),
		"active_dynasties", snap.ActiveDynasties,
		"rules_resolved", len(resolved),
	)

	return snap, nil
}
