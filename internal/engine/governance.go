// Governance round — proposal, voting, tallying, and enforcement.
// See design doc Section 4.3.
package engine

import (
	"fmt"
	"log/slog"

	"genesis/internal/agents"
	"genesis/internal/dynasty"
	"genesis/internal/governance"
	"genesis/internal/llm"
)

// runGovernance runs one governance round: a proposer drawn from the live
// population proposes a rule, everyone alive votes, the tally resolves it,
// and a passed rule is enforced immediately. Capability failures (generator
// errors, malformed proposals) degrade to an empty round; only state-machine
// violations propagate as integrity errors.
func (c *Civilization) runGovernance(generation int) ([]RuleOutcome, error) {
	live := c.reg.LiveAgents()
	if len(live) == 0 {
		return nil, nil
	}

	dynasties := dynasty.Build(c.reg, generation)
	active := 0
	for _, d := range dynasties {
		if !d.Extinct {
			active++
		}
	}
	society := governance.BuildSocietyState(live, c.ledger, active)

	proposer := live[c.rng.Intn(len(live))]

	rule, err := c.proposeRule(proposer, society, generation)
	if err != nil {
		slog.Warn("proposal rejected",
			"civilization", c.Name,
			"proposer", proposer.ID,
			"generation", generation,
			"error", err,
		)
		return nil, nil
	}

	if err := c.ledger.Propose(rule); err != nil {
		// The proposer already has a rule in flight — skip this round.
		slog.Warn("proposal skipped",
			"civilization", c.Name,
			"proposer", proposer.ID,
			"error", err,
		)
		return nil, nil
	}

	if err := rule.OpenVoting(); err != nil {
		return nil, err
	}

	// Every currently-alive agent votes; an unparseable or failed response
	// is a deterministic "no", never retried mid-vote.
	ballots := make([]governance.Ballot, 0, len(live))
	for _, voter := range live {
		ballots = append(ballots, governance.Ballot{
			VoterID:    voter.ID,
			Wealth:     voter.Wealth,
			Multiplier: c.ledger.VoteWeightMultiplier(voter.ID),
			Yes:        c.castVote(voter, rule),
		})
	}

	yesWeight, noWeight, passed := governance.Tally(
		governance.VotingSystem(c.cfg.VotingSystem), ballots, c.cfg.ApprovalThreshold)

	if err := rule.CloseVoting(yesWeight, noWeight, passed); err != nil {
		return nil, err
	}
	c.ledger.Resolve(rule)

	outcome := RuleOutcome{
		RuleID:      rule.ID,
		Category:    string(rule.Effect.Category),
		Description: rule.Description,
		Passed:      passed,
		YesWeight:   yesWeight,
		NoWeight:    noWeight,
	}

	if passed {
		enf, err := c.ledger.Enforce(rule, live, generation)
		if err != nil {
			return nil, err
		}
		outcome.Enforced = true
		outcome.Mechanical = enf.Mechanical

		slog.Info("rule enforced",
			"civilization", c.Name,
			"rule", rule.ID,
			"category", rule.Effect.Category,
			"mechanical", enf.Mechanical,
			"pool", fmt.Sprintf("%.1f", enf.PoolCollected),
			"raised", enf.AgentsRaised,
			"boosted", enf.AgentsBoosted,
		)
	} else {
		slog.Info("rule rejected",
			"civilization", c.Name,
			"rule", rule.ID,
			"category", rule.Effect.Category,
			"yes_weight", fmt.Sprintf("%.1f", yesWeight),
			"no_weight", fmt.Sprintf("%.1f", noWeight),
		)
	}

	return []RuleOutcome{outcome}, nil
}

// proposeRule asks the content generator for a rule on the proposer's
// behalf and parses it into a typed rule. Malformed output fails here and
// the rule never enters voting.
func (c *Civilization) proposeRule(proposer *agents.Agent, society governance.SocietyState, generation int) (*governance.Rule, error) {
	if c.generator == nil {
		return nil, fmt.Errorf("content generator not configured")
	}

	system, user := llm.ProposalPrompt(llm.ProposalContext{
		Trait:       proposer.TraitPrompt,
		Wealth:      proposer.Wealth,
		Age:         proposer.Age,
		WealthRank:  society.WealthRank[proposer.ID],
		Population:  society.Population,
		MeanWealth:  society.MeanWealth,
		Gini:        society.Gini,
		Dynasties:   society.Dynasties,
		ActiveRules: society.ActiveRules,
	})
	resp, err := c.generator.Complete(system, user, 200)
	if err != nil {
		return nil, fmt.Errorf("generate proposal: %w", err)
	}
	return governance.ParseProposal(resp, proposer.ID, generation)
}

// castVote asks one voter for a yes/no. Any failure is an abstention,
// counted as "no".
func (c *Civilization) castVote(voter *agents.Agent, rule *governance.Rule) bool {
	if c.generator == nil {
		return false
	}

	system, user := llm.VotePrompt(llm.VoteContext{
		Trait:           voter.TraitPrompt,
		Wealth:          voter.Wealth,
		Age:             voter.Age,
		RuleDescription: rule.Description,
		RuleEffect:      rule.EffectText,
		OwnProposal:     voter.ID == rule.ProposerID,
	})
	resp, err := c.generator.Complete(system, user, 10)
	if err != nil {
		return false
	}
	yes, ok := governance.ParseVote(resp)
	return ok && yes
}
