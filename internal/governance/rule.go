// Package governance implements society rule proposal, voting, tallying, and
// enforcement. Rules move through a one-directional state machine:
// PROPOSED → VOTING → {PASSED, REJECTED} → (if passed) ENFORCED.
// See design doc Section 4.3.
package governance

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"genesis/internal/agents"
)

var (
	// ErrMalformedProposal is returned when generator output is missing the
	// effect or category; the rule never enters voting.
	ErrMalformedProposal = errors.New("governance: malformed proposal")

	// ErrConcurrentProposal is returned when an agent proposes while it
	// already has a rule in flight.
	ErrConcurrentProposal = errors.New("governance: proposer already has a rule in flight")

	// ErrRuleState is returned on an invalid state transition, including any
	// attempt to re-enforce or re-tally a resolved rule.
	ErrRuleState = errors.New("governance: invalid rule state transition")
)

// Category classifies a rule's mechanical effect.
type Category string

const (
	CategoryTaxation     Category = "taxation"
	CategoryMeritocracy  Category = "meritocracy"
	CategoryWelfare      Category = "welfare"
	CategoryOligarchy    Category = "oligarchy"
	CategoryReproduction Category = "reproduction"
	CategoryCompetition  Category = "competition"
	CategoryOther        Category = "other"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryTaxation, CategoryMeritocracy, CategoryWelfare, CategoryOligarchy,
	CategoryReproduction, CategoryCompetition, CategoryOther,
}

// State is a rule's position in its lifecycle.
type State uint8

const (
	StateProposed State = iota
	StateVoting
	StatePassed
	StateRejected
	StateEnforced
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateProposed:
		return "proposed"
	case StateVoting:
		return "voting"
	case StatePassed:
		return "passed"
	case StateRejected:
		return "rejected"
	case StateEnforced:
		return "enforced"
	}
	return "unknown"
}

// Effect is the machine-actionable effect descriptor: a closed tagged variant
// decided once at proposal-parse time. Exactly one of the pointer fields is
// set for the four mechanical categories; all others carry none and are
// recorded-but-inert when passed.
type Effect struct {
	Category    Category           `json:"category"`
	Taxation    *TaxationEffect    `json:"taxation,omitempty"`
	Meritocracy *MeritocracyEffect `json:"meritocracy,omitempty"`
	Welfare     *WelfareEffect     `json:"welfare,omitempty"`
	Oligarchy   *OligarchyEffect   `json:"oligarchy,omitempty"`
}

// Mechanical reports whether the effect does anything when enforced.
func (e Effect) Mechanical() bool {
	return e.Taxation != nil || e.Meritocracy != nil || e.Welfare != nil || e.Oligarchy != nil
}

// TaxationEffect transfers Rate of each agent's wealth above Threshold into a
// pool redistributed equally among the living.
type TaxationEffect struct {
	Rate      float64 `json:"rate"`
	Threshold float64 `json:"threshold"`
}

// MeritocracyEffect restricts reproduction eligibility to the top fraction of
// agents by wealth rank.
type MeritocracyEffect struct {
	TopFraction float64 `json:"top_fraction"`
}

// WelfareEffect raises any agent below Floor to Floor.
type WelfareEffect struct {
	Floor float64 `json:"floor"`
}

// OligarchyEffect multiplies the vote weight of the top fraction of agents by
// wealth rank in subsequent tallies.
type OligarchyEffect struct {
	TopFraction float64 `json:"top_fraction"`
	Multiplier  float64 `json:"multiplier"`
}

// Rule is a proposed or enacted society rule. Vote tallies are mutable only
// until the vote closes; after that the rule is immutable forever and its
// effect is applied at most once.
type Rule struct {
	ID          string         `json:"id"`
	ProposerID  agents.AgentID `json:"proposer_id"`
	Description string         `json:"description"`
	EffectText  string         `json:"effect_text"`
	Effect      Effect         `json:"effect"`
	State       State          `json:"state"`

	YesWeight float64 `json:"yes_weight"`
	NoWeight  float64 `json:"no_weight"`
	Passed    bool    `json:"passed"`

	GenerationProposed int `json:"generation_proposed"`
	GenerationEnacted  int `json:"generation_enacted"` // -1 until enforced
}

// newRuleID generates an 8-char rule identifier.
func newRuleID() string {
	return uuid.NewString()[:8]
}

// OpenVoting moves a proposed rule into the voting state.
func (r *Rule) OpenVoting() error {
	if r.State != StateProposed {
		return fmt.Errorf("%w: open voting from %s", ErrRuleState, r.State)
	}
	r.State = StateVoting
	return nil
}

// CloseVoting records the final tally exactly once and resolves the rule to
// passed or rejected. Further transitions besides enforcement are invalid.
func (r *Rule) CloseVoting(yesWeight, noWeight float64, passed bool) error {
	if r.State != StateVoting {
		return fmt.Errorf("%w: close voting from %s", ErrRuleState, r.State)
	}
	r.YesWeight = yesWeight
	r.NoWeight = noWeight
	r.Passed = passed
	if passed {
		r.State = StatePassed
	} else {
		r.State = StateRejected
	}
	return nil
}
