// Package tasks provides the built-in wealth scorer. Task and competition
// scoring is an external collaborator; the default implementation here keeps
// offline runs deterministic by sampling a seeded noise field instead of
// calling out.
package tasks

import (
	"hash/fnv"

	opensimplex "github.com/ojrac/opensimplex-go"

	"genesis/internal/agents"
)

// Scorer produces the wealth delta an agent earns (or loses) in a
// generation. Implementations must be side-effect-free on shared state.
type Scorer interface {
	Score(id agents.AgentID, trait string, generation int) float64
}

// NoiseScorer samples a smooth opensimplex field: each agent occupies a fixed
// coordinate derived from its id and trait, and successive generations move
// along the second axis. Nearby generations produce correlated scores, so
// fortunes rise and fall gradually rather than white-noise jumping.
type NoiseScorer struct {
	noise             opensimplex.Noise
	amplitude         float64
	participationCost float64
}

// NewNoiseScorer creates a deterministic scorer for the given seed.
// Amplitude scales the noise into a wealth delta; participationCost is
// deducted every generation regardless of performance, so idle agents bleed
// wealth and can die.
func NewNoiseScorer(seed int64, amplitude, participationCost float64) *NoiseScorer {
	return &NoiseScorer{
		noise:             opensimplex.New(seed),
		amplitude:         amplitude,
		participationCost: participationCost,
	}
}

// Score returns the agent's wealth delta for the generation.
func (s *NoiseScorer) Score(id agents.AgentID, trait string, generation int) float64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	h.Write([]byte(trait))
	// Spread agents across the field; keep coordinates small enough that
	// float64 precision holds.
	x := float64(h.Sum64()%100000) / 100.0

	v := s.noise.Eval2(x, float64(generation)*0.25) // [-1, 1]
	return v*s.amplitude - s.participationCost
}
