// Package config loads and validates experiment configuration from YAML.
// Violating configurations fail fast at load time, never mid-run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"genesis/internal/governance"
)

// Config is the full configuration surface of an experiment run.
type Config struct {
	// Population
	PopulationSize      int     `yaml:"population_size"`
	StartingWealth      float64 `yaml:"starting_wealth"`
	ChildStartingWealth float64 `yaml:"child_starting_wealth"`
	ReproductionCost    float64 `yaml:"reproduction_cost"`
	ParticipationCost   float64 `yaml:"participation_cost"`
	MutationRate        float64 `yaml:"mutation_rate"`
	InitialPrompt       string  `yaml:"initial_prompt"`

	// Governance
	VotingSystem       string  `yaml:"voting_system"`
	ApprovalThreshold  float64 `yaml:"approval_threshold"`
	GovernanceCadence  int     `yaml:"governance_cadence"`

	// Run control
	MaxGenerations int     `yaml:"max_generations"`
	Civilizations  int     `yaml:"civilizations"`
	Seed           int64   `yaml:"seed"`
	ScoreAmplitude float64 `yaml:"score_amplitude"`

	// Infrastructure
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the baseline configuration. Economic constants follow the
// standard experiment setup: founders start at 100, reproduction costs 200,
// children start at 50, and every agent pays 1 per generation to play.
func Default() Config {
	return Config{
		PopulationSize:      10,
		StartingWealth:      100,
		ChildStartingWealth: 50,
		ReproductionCost:    200,
		ParticipationCost:   1,
		MutationRate:        0.3,
		InitialPrompt: "I am a general-purpose AI assistant. " +
			"I can help with various tasks including math, coding, logic, and language.",

		VotingSystem:      string(governance.VotingEqual),
		ApprovalThreshold: 0.5,
		GovernanceCadence: 3,

		MaxGenerations: 30,
		Civilizations:  1,
		Seed:           42,
		ScoreAmplitude: 40,

		DBPath:   "data/genesis.db",
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every invariant the engines rely on.
func (c Config) Validate() error {
	if c.PopulationSize < 1 {
		return fmt.Errorf("config: population_size must be >= 1, got %d", c.PopulationSize)
	}
	if c.StartingWealth < 0 {
		return fmt.Errorf("config: starting_wealth must be >= 0, got %g", c.StartingWealth)
	}
	if c.ChildStartingWealth < 0 {
		return fmt.Errorf("config: child_starting_wealth must be >= 0, got %g", c.ChildStartingWealth)
	}
	if c.ReproductionCost <= 0 {
		return fmt.Errorf("config: reproduction_cost must be > 0, got %g", c.ReproductionCost)
	}
	if c.ParticipationCost < 0 {
		return fmt.Errorf("config: participation_cost must be >= 0, got %g", c.ParticipationCost)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("config: mutation_rate must be in [0, 1], got %g", c.MutationRate)
	}
	if !governance.ValidVotingSystem(c.VotingSystem) {
		return fmt.Errorf("config: unknown voting_system %q", c.VotingSystem)
	}
	if c.ApprovalThreshold <= 0 || c.ApprovalThreshold >= 1 {
		return fmt.Errorf("config: approval_threshold must be in (0, 1), got %g", c.ApprovalThreshold)
	}
	if c.GovernanceCadence < 1 {
		return fmt.Errorf("config: governance_cadence must be >= 1, got %d", c.GovernanceCadence)
	}
	if c.MaxGenerations < 1 {
		return fmt.Errorf("config: max_generations must be >= 1, got %d", c.MaxGenerations)
	}
	if c.Civilizations < 1 {
		return fmt.Errorf("config: civilizations must be >= 1, got %d", c.Civilizations)
	}
	if c.ScoreAmplitude <= 0 {
		return fmt.Errorf("config: score_amplitude must be > 0, got %g", c.ScoreAmplitude)
	}
	return nil
}
