package governance

import (
	"genesis/internal/agents"
)

// VotingSystem selects the weighting function mapping votes to a tally.
type VotingSystem string

const (
	VotingEqual          VotingSystem = "equal"           // one agent, one vote
	VotingWealthWeighted VotingSystem = "wealth_weighted" // weight = wealth
	VotingStakeWeighted  VotingSystem = "stake_weighted"  // weight = wealth²
)

// VotingSystems lists the supported systems.
var VotingSystems = []VotingSystem{VotingEqual, VotingWealthWeighted, VotingStakeWeighted}

// ValidVotingSystem reports whether s names a supported system.
func ValidVotingSystem(s string) bool {
	for _, v := range VotingSystems {
		if string(v) == s {
			return true
		}
	}
	return false
}

// Ballot is one agent's cast vote with the inputs the weighting needs.
// Multiplier carries any standing oligarchy boost (1 when none).
type Ballot struct {
	VoterID    agents.AgentID
	Wealth     float64
	Multiplier float64
	Yes        bool
}

// Tally is a pure, deterministic function of the ballots and voting system.
// A rule passes iff the yes weight strictly exceeds threshold × total weight,
// so ties never pass regardless of the configured threshold.
func Tally(system VotingSystem, ballots []Ballot, threshold float64) (yesWeight, noWeight float64, passed bool) {
	for _, b := range ballots {
		w := ballotWeight(system, b)
		if b.Yes {
			yesWeight += w
		} else {
			noWeight += w
		}
	}
	passed = yesWeight > threshold*(yesWeight+noWeight)
	return yesWeight, noWeight, passed
}

func ballotWeight(system VotingSystem, b Ballot) float64 {
	mult := b.Multiplier
	if mult <= 0 {
		mult = 1
	}
	switch system {
	case VotingWealthWeighted:
		return b.Wealth * mult
	case VotingStakeWeighted:
		return b.Wealth * b.Wealth * mult
	default:
		return mult
	}
}
