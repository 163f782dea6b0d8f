package engine

import (
	"errors"
	"math"
	"testing"

	"genesis/internal/agents"
	"genesis/internal/config"
	"genesis/internal/llm"
)

// scorerFunc adapts a plain function to the tasks.Scorer interface for tests.
type scorerFunc func(id agents.AgentID, trait string, generation int) float64

func (f scorerFunc) Score(id agents.AgentID, trait string, generation int) float64 {
	return f(id, trait, generation)
}

func flatScorer(delta float64) scorerFunc {
	return func(agents.AgentID, string, int) float64 { return delta }
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.PopulationSize = 3
	cfg.MaxGenerations = 5
	cfg.GovernanceCadence = 100 // keep governance out of lifecycle tests
	cfg.ParticipationCost = 0
	cfg.InitialPrompt = "seed trait"
	return cfg
}

func newTestCiv(t *testing.T, cfg config.Config, gen llm.Generator, scorer scorerFunc) *Civilization {
	t.Helper()
	c, err := New("test", cfg, gen, scorer, 1)
	if err != nil {
		t.Fatalf("new civilization: %v", err)
	}
	return c
}

func TestReproductionIsAtomic(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 1
	cfg.StartingWealth = 250

	c := newTestCiv(t, cfg, nil, flatScorer(0))
	snap, err := c.RunGeneration()
	if err != nil {
		t.Fatalf("generation: %v", err)
	}
	if snap.Births != 1 {
		t.Fatalf("births = %d, want 1", snap.Births)
	}
	if snap.Population != 2 {
		t.Fatalf("population = %d, want 2", snap.Population)
	}

	live := c.Registry().LiveAgents()
	parent, child := live[0], live[1]
	if math.Abs(parent.Wealth-50) > 1e-9 {
		t.Fatalf("parent wealth = %v, want 50 after paying the cost", parent.Wealth)
	}
	if child.Wealth != 50 {
		t.Fatalf("child wealth = %v, want 50", child.Wealth)
	}
	if len(parent.ChildrenIDs) != 1 || parent.ChildrenIDs[0] != child.ID {
		t.Fatalf("children ids = %v", parent.ChildrenIDs)
	}
	if child.ParentID != parent.ID || child.DynastyID != parent.DynastyID {
		t.Fatalf("lineage broken: %+v", child)
	}
	// Offline fallback: the child inherits the parent's trait unchanged.
	if child.TraitPrompt != parent.TraitPrompt {
		t.Fatalf("child trait = %q", child.TraitPrompt)
	}
}

func TestReproductionRefusedOnGeneratorFailure(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 1
	cfg.StartingWealth = 250

	failing := llm.GeneratorFunc(func(string, string, int) (string, error) {
		return "", errors.New("backend unavailable")
	})

	c := newTestCiv(t, cfg, failing, flatScorer(0))
	snap, err := c.RunGeneration()
	if err != nil {
		t.Fatalf("a refused reproduction is not an integrity failure: %v", err)
	}
	if snap.Births != 0 {
		t.Fatalf("births = %d, want 0", snap.Births)
	}

	parent := c.Registry().LiveAgents()[0]
	if parent.Wealth != 250 {
		t.Fatalf("refusal must leave the parent untouched, wealth = %v", parent.Wealth)
	}
	if len(parent.ChildrenIDs) != 0 {
		t.Fatalf("children ids = %v, want none", parent.ChildrenIDs)
	}
}

func TestInsufficientWealthRefusesReproduction(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 1
	cfg.StartingWealth = 199

	c := newTestCiv(t, cfg, nil, flatScorer(0))
	snap, err := c.RunGeneration()
	if err != nil {
		t.Fatalf("generation: %v", err)
	}
	if snap.Births != 0 || snap.Population != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestDeathAfterScoring(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 2
	cfg.StartingWealth = 100

	c := newTestCiv(t, cfg, nil, flatScorer(-150))
	snap, err := c.RunGeneration()
	if err != nil {
		t.Fatalf("generation: %v", err)
	}
	if snap.Deaths != 2 || snap.Population != 0 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.ActiveDynasties != 0 || snap.ExtinctDynasties != 2 {
		t.Fatalf("dynasties = %d active, %d extinct", snap.ActiveDynasties, snap.ExtinctDynasties)
	}
	// Undefined oldest-age statistic is reported as 0, never a crash.
	if snap.OldestDynastyAge != 0 {
		t.Fatalf("oldest dynasty age = %d", snap.OldestDynastyAge)
	}

	for _, a := range c.Registry().AllAgents() {
		if a.Alive {
			t.Fatalf("agent %s still alive at wealth %v", a.ID, a.Wealth)
		}
	}
}

func TestExtinctionTerminatesRun(t *testing.T) {
	cfg := testConfig()
	cfg.MaxGenerations = 10

	c := newTestCiv(t, cfg, nil, flatScorer(-200))
	res := c.Run()
	if res.Termination != TerminationExtinction {
		t.Fatalf("termination = %s, want extinction", res.Termination)
	}
	if res.Err != nil {
		t.Fatalf("extinction is an outcome, not an error: %v", res.Err)
	}
	if len(res.Snapshots) != 1 {
		t.Fatalf("expected 1 snapshot before extinction, got %d", len(res.Snapshots))
	}
	if len(res.Extinctions) != cfg.PopulationSize {
		t.Fatalf("extinction log = %d records, want %d", len(res.Extinctions), cfg.PopulationSize)
	}
	for _, e := range res.Extinctions {
		if e.Cause != "bankruptcy" || e.Generation != 1 {
			t.Fatalf("record = %+v", e)
		}
	}
}

func TestOfflineRunReachesMaxGenerations(t *testing.T) {
	cfg := testConfig()

	c := newTestCiv(t, cfg, nil, flatScorer(5))
	res := c.Run()
	if res.Termination != TerminationMaxGenerations {
		t.Fatalf("termination = %s", res.Termination)
	}
	if len(res.Snapshots) != cfg.MaxGenerations {
		t.Fatalf("snapshots = %d, want %d", len(res.Snapshots), cfg.MaxGenerations)
	}
	for i, s := range res.Snapshots {
		if s.Generation != i+1 {
			t.Fatalf("snapshot %d has generation %d", i, s.Generation)
		}
		if s.Population != cfg.PopulationSize {
			t.Fatalf("gen %d population = %d", s.Generation, s.Population)
		}
	}
	// No generator, no governance proposals.
	if len(res.Rules) != 0 {
		t.Fatalf("offline run proposed %d rules", len(res.Rules))
	}

	last := res.Snapshots[len(res.Snapshots)-1]
	if math.Abs(last.MeanWealth-125) > 1e-9 {
		t.Fatalf("mean wealth after 5 gens of +5 = %v, want 125", last.MeanWealth)
	}
	for _, a := range res.Agents {
		if a.Age != cfg.MaxGenerations {
			t.Fatalf("agent age = %d, want %d", a.Age, cfg.MaxGenerations)
		}
	}
}

func TestComputeExtinctionStats(t *testing.T) {
	records := []ExtinctionRecord{
		{AgentID: "a", DynastyID: "d1", AgeAtDeath: 2, Specialization: "math"},
		{AgentID: "b", DynastyID: "d1", AgeAtDeath: 6, Specialization: "coding"},
		{AgentID: "c", DynastyID: "d2", AgeAtDeath: 4, Specialization: "coding"},
		{AgentID: "d", DynastyID: "d2", AgeAtDeath: 4},
	}

	stats := ComputeExtinctionStats(records)
	if stats.Total != 4 {
		t.Fatalf("total = %d, want 4", stats.Total)
	}
	if stats.MeanAgeAtDeath != 4 {
		t.Fatalf("mean age = %v, want 4", stats.MeanAgeAtDeath)
	}
	if stats.MaxAgeAtDeath != 6 {
		t.Fatalf("max age = %d, want 6", stats.MaxAgeAtDeath)
	}
	if stats.ByDynasty["d1"] != 2 || stats.ByDynasty["d2"] != 2 {
		t.Fatalf("by dynasty = %v", stats.ByDynasty)
	}
	if stats.BySpecialization["coding"] != 2 || stats.BySpecialization["math"] != 1 {
		t.Fatalf("by specialization = %v", stats.BySpecialization)
	}
	if _, ok := stats.BySpecialization[""]; ok {
		t.Fatal("empty specialization must not be bucketed")
	}

	if got := ComputeExtinctionStats(nil); got.Total != 0 || got.ByDynasty != nil {
		t.Fatalf("empty log must yield zero stats, got %+v", got)
	}
}

func TestExtinctionStatsFromRun(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 4

	c := newTestCiv(t, cfg, nil, flatScorer(-200))
	res := c.Run()

	stats := ComputeExtinctionStats(res.Extinctions)
	if stats.Total != 4 {
		t.Fatalf("total = %d, want 4", stats.Total)
	}
	// Everyone died in generation 1 at age 1.
	if stats.MeanAgeAtDeath != 1 || stats.MaxAgeAtDeath != 1 {
		t.Fatalf("ages = %v mean, %d max", stats.MeanAgeAtDeath, stats.MaxAgeAtDeath)
	}
	if len(stats.ByDynasty) != 4 {
		t.Fatalf("founders are their own dynasty: %v", stats.ByDynasty)
	}
}

// proposalGenerator answers the vote prompt (small token budget) with the
// given token and every other prompt with a fixed well-formed proposal.
func proposalGenerator(vote string) llm.GeneratorFunc {
	return func(system, user string, maxTokens int) (string, error) {
		if maxTokens <= 10 {
			return vote, nil
		}
		return "RULE: welfare for all\nEFFECT: guarantee a minimum of 30\nCATEGORY: welfare", nil
	}
}

func TestGovernanceRoundPassesAndEnforces(t *testing.T) {
	cfg := testConfig()
	cfg.GovernanceCadence = 1
	cfg.StartingWealth = 25 // below the proposed floor of 30

	c := newTestCiv(t, cfg, proposalGenerator("YES"), flatScorer(0))
	snap, err := c.RunGeneration()
	if err != nil {
		t.Fatalf("generation: %v", err)
	}
	if len(snap.RulesResolved) != 1 {
		t.Fatalf("rules resolved = %d, want 1", len(snap.RulesResolved))
	}

	out := snap.RulesResolved[0]
	if !out.Passed || !out.Enforced || !out.Mechanical {
		t.Fatalf("outcome = %+v", out)
	}
	if out.YesWeight != float64(cfg.PopulationSize) || out.NoWeight != 0 {
		t.Fatalf("tally = %v/%v", out.YesWeight, out.NoWeight)
	}

	for _, a := range c.Registry().LiveAgents() {
		if a.Wealth != 30 {
			t.Fatalf("welfare floor not applied: %v", a.Wealth)
		}
	}

	if snap.GovernanceEntropy != 0 {
		t.Fatalf("one enforced category must yield zero entropy, got %v", snap.GovernanceEntropy)
	}
}

func TestGovernanceRejectionLeavesWealthUntouched(t *testing.T) {
	cfg := testConfig()
	cfg.GovernanceCadence = 1
	cfg.StartingWealth = 25

	c := newTestCiv(t, cfg, proposalGenerator("NO"), flatScorer(0))
	snap, err := c.RunGeneration()
	if err != nil {
		t.Fatalf("generation: %v", err)
	}
	if len(snap.RulesResolved) != 1 {
		t.Fatalf("rules resolved = %d", len(snap.RulesResolved))
	}
	out := snap.RulesResolved[0]
	if out.Passed || out.Enforced {
		t.Fatalf("outcome = %+v", out)
	}
	for _, a := range c.Registry().LiveAgents() {
		if a.Wealth != 25 {
			t.Fatalf("rejected rule must change nothing: %v", a.Wealth)
		}
	}
	// The rejected rule stays on the ledger but never counts as enforced.
	if got := len(c.Ledger().Rules()); got != 1 {
		t.Fatalf("ledger = %d rules", got)
	}
	if len(c.Ledger().EnforcedCategories()) != 0 {
		t.Fatal("rejected rule leaked into enforced categories")
	}
}

func TestDeadAgentsExcludedFromGovernance(t *testing.T) {
	cfg := testConfig()
	cfg.GovernanceCadence = 1
	cfg.PopulationSize = 3
	cfg.StartingWealth = 100

	// One agent goes insolvent during scoring and must not vote.
	var doomed agents.AgentID
	scorer := scorerFunc(func(id agents.AgentID, trait string, generation int) float64 {
		if doomed == "" {
			doomed = id
		}
		if id == doomed {
			return -150
		}
		return 0
	})

	c := newTestCiv(t, cfg, proposalGenerator("YES"), scorer)
	snap, err := c.RunGeneration()
	if err != nil {
		t.Fatalf("generation: %v", err)
	}
	if snap.Deaths != 1 || snap.Population != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.RulesResolved) != 1 {
		t.Fatalf("rules resolved = %d", len(snap.RulesResolved))
	}
	// Equal voting: the tally weight equals the number of living voters.
	if snap.RulesResolved[0].YesWeight != 2 {
		t.Fatalf("yes weight = %v, want 2 (the dead do not vote)",
			snap.RulesResolved[0].YesWeight)
	}
}

func TestMalformedProposalDegradesToEmptyRound(t *testing.T) {
	cfg := testConfig()
	cfg.GovernanceCadence = 1

	garbage := llm.GeneratorFunc(func(string, string, int) (string, error) {
		return "I refuse to answer in the requested format.", nil
	})

	c := newTestCiv(t, cfg, garbage, flatScorer(0))
	snap, err := c.RunGeneration()
	if err != nil {
		t.Fatalf("a malformed proposal is not an integrity failure: %v", err)
	}
	if len(snap.RulesResolved) != 0 {
		t.Fatalf("rules resolved = %d, want 0", len(snap.RulesResolved))
	}
	if len(c.Ledger().Rules()) != 0 {
		t.Fatal("malformed proposal must never enter the ledger")
	}
}

func TestGovernanceCadence(t *testing.T) {
	cfg := testConfig()
	cfg.GovernanceCadence = 3
	cfg.MaxGenerations = 6

	c := newTestCiv(t, cfg, proposalGenerator("NO"), flatScorer(0))
	res := c.Run()
	if res.Termination != TerminationMaxGenerations {
		t.Fatalf("termination = %s", res.Termination)
	}

	for _, s := range res.Snapshots {
		want := 0
		if s.Generation%3 == 0 {
			want = 1
		}
		if len(s.RulesResolved) != want {
			t.Fatalf("gen %d resolved %d rules, want %d",
				s.Generation, len(s.RulesResolved), want)
		}
	}
	if len(res.Rules) != 2 {
		t.Fatalf("ledger = %d rules over 6 generations at cadence 3", len(res.Rules))
	}
}

func TestRunIsDeterministicPerSeed(t *testing.T) {
	cfg := testConfig()
	cfg.GovernanceCadence = 2

	run := func() Result {
		c, err := New("det", cfg, proposalGenerator("YES"), flatScorer(3), 99)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		return c.Run()
	}

	a, b := run(), run()
	if len(a.Snapshots) != len(b.Snapshots) {
		t.Fatalf("snapshot counts differ: %d vs %d", len(a.Snapshots), len(b.Snapshots))
	}
	for i := range a.Snapshots {
		sa, sb := a.Snapshots[i], b.Snapshots[i]
		if sa.Population != sb.Population || sa.TotalWealth != sb.TotalWealth ||
			sa.Gini != sb.Gini || len(sa.RulesResolved) != len(sb.RulesResolved) {
			t.Fatalf("gen %d diverged: %+v vs %+v", sa.Generation, sa, sb)
		}
	}
}
