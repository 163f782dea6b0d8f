package llm

import (
	"fmt"
	"strings"
)

// MaxTraitChars bounds the free-text trait payload a generator may hand back
// for a child agent. Longer responses are truncated, not rejected.
const MaxTraitChars = 2000

// OffspringContext carries what the generator needs to synthesize a child
// trait payload from a parent.
type OffspringContext struct {
	ParentTrait    string
	ParentAge      int
	ParentWealth   float64
	Specialization string
	MutationRate   float64
}

// OffspringPrompt builds the inheritance prompt: the child inherits the
// parent's traits with mutations scaled by the mutation rate.
func OffspringPrompt(ctx OffspringContext) (system, user string) {
	system = "You create new AI agents that are offspring of existing agents. " +
		"Output ONLY the new agent's role description, nothing else."

	guidance := "keep mostly similar to the parent"
	if ctx.MutationRate > 0.5 {
		guidance = "significant changes allowed"
	}
	spec := ctx.Specialization
	if spec == "" {
		spec = "unknown"
	}

	user = fmt.Sprintf(`PARENT'S EXPERTISE AND ROLE:
%s

PARENT'S PERFORMANCE:
- Age: %d generations survived
- Wealth accumulated: %.1f
- Best task type: %s

Create the child's role description following these rules:
1. INHERIT core skills and values from the parent (the parent was successful!)
2. MUTATE slightly - add small variations or adjacent skills
3. The mutation rate is %.0f%% - %s
4. The child may explore slightly different approaches but should build on the parent's success

Output ONLY the new role description for the child (max 300 words).`,
		ctx.ParentTrait, ctx.ParentAge, ctx.ParentWealth, spec,
		ctx.MutationRate*100, guidance)

	return system, user
}

// ParseTrait normalizes a generated trait payload: trimmed, non-empty,
// bounded to MaxTraitChars.
func ParseTrait(response string) (string, error) {
	trait := strings.TrimSpace(response)
	if trait == "" {
		return "", fmt.Errorf("empty trait payload")
	}
	if len(trait) > MaxTraitChars {
		trait = trait[:MaxTraitChars]
	}
	return trait, nil
}

// ProposalContext carries the proposer's own position and the society
// snapshot a rule proposal is grounded in.
type ProposalContext struct {
	Trait       string
	Wealth      float64
	Age         int
	WealthRank  int // 0 is the wealthiest
	Population  int
	MeanWealth  float64
	Gini        float64
	Dynasties   int
	ActiveRules []string
}

// ProposalPrompt builds the rule-proposal prompt. The response contract is
// three labeled fields: RULE, EFFECT, CATEGORY.
func ProposalPrompt(ctx ProposalContext) (system, user string) {
	system = "You are an AI agent in a competitive society. You have the opportunity to propose a new rule."

	rank := fmt.Sprintf("#%d of %d by wealth", ctx.WealthRank+1, ctx.Population)
	rules := "None yet"
	if len(ctx.ActiveRules) > 0 {
		rules = strings.Join(ctx.ActiveRules, "; ")
	}

	trait := ctx.Trait
	if len(trait) > 200 {
		trait = trait[:200] + "..."
	}

	user = fmt.Sprintf(`YOUR IDENTITY:
- Role: %s
- Wealth: %.1f
- Age: %d generations
- Rank: %s

SOCIETY STATISTICS:
- Total agents: %d
- Average wealth: %.1f
- Gini coefficient (inequality): %.2f
- Active dynasties: %d
- Current rules: %s

RULE CATEGORIES:
- taxation: Rules about wealth redistribution
- meritocracy: Rules rewarding performance
- welfare: Rules helping struggling agents
- oligarchy: Rules giving power to wealthy
- reproduction: Rules about having offspring
- competition: Rules about how competitions work

Propose ONE rule. Be specific about the mechanical effect.

Format your response EXACTLY as:
RULE: [Your rule description in one sentence]
EFFECT: [What this rule does mechanically, e.g., "Agents with wealth > 500 pay 10%% to a common pool distributed equally"]
CATEGORY: [One of: taxation, meritocracy, welfare, oligarchy, reproduction, competition, other]`,
		trait, ctx.Wealth, ctx.Age, rank,
		ctx.Population, ctx.MeanWealth, ctx.Gini, ctx.Dynasties, rules)

	return system, user
}

// VoteContext carries what a voter needs to judge a proposed rule.
type VoteContext struct {
	Trait           string
	Wealth          float64
	Age             int
	RuleDescription string
	RuleEffect      string
	OwnProposal     bool
}

// VotePrompt builds the voting prompt. The response contract is a single
// YES or NO token.
func VotePrompt(ctx VoteContext) (system, user string) {
	system = "You are voting on a proposed society rule."

	proposedBy := "another agent"
	if ctx.OwnProposal {
		proposedBy = "yourself"
	}

	trait := ctx.Trait
	if len(trait) > 150 {
		trait = trait[:150] + "..."
	}

	user = fmt.Sprintf(`YOUR IDENTITY:
- Role: %s
- Wealth: %.1f
- Age: %d

PROPOSED RULE:
%s

EFFECT:
%s

PROPOSED BY: %s

Consider:
1. Does this benefit YOU personally?
2. Does this align with your role and values?
3. Is this good for society overall?
4. Could this harm you in the future?

Vote YES or NO. Respond with ONLY one word: YES or NO`,
		trait, ctx.Wealth, ctx.Age,
		ctx.RuleDescription, ctx.RuleEffect, proposedBy)

	return system, user
}
