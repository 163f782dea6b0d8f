// Command genesis runs civilization experiments: populations of autonomous
// agents earning wealth, reproducing, dying, and governing themselves.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"genesis/internal/config"
	"genesis/internal/engine"
	"genesis/internal/llm"
	"genesis/internal/persistence"
	"genesis/internal/tasks"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults used when empty)")
	dbPath := flag.String("db", "", "override database path")
	seed := flag.Int64("seed", 0, "override base seed (0 keeps the configured seed)")
	civs := flag.Int("civs", 0, "override number of parallel civilizations")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *civs > 0 {
		cfg.Civilizations = *civs
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("GENESIS — Civilization Experiment Runner",
		"civilizations", cfg.Civilizations,
		"population", cfg.PopulationSize,
		"generations", cfg.MaxGenerations,
		"voting_system", cfg.VotingSystem,
		"seed", cfg.Seed,
	)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Content Generator ─────────────────────────────────────────────
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	client := llm.NewClient(anthropicKey)
	var generator llm.Generator
	if client != nil {
		generator = client
		slog.Info("LLM content generator enabled (Haiku)")
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set — offline mode (traits clone, no governance proposals)")
	}

	// ── Civilizations (share-nothing, one goroutine each) ─────────────
	configJSON, _ := json.Marshal(cfg)

	results := make([]engine.Result, cfg.Civilizations)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Civilizations; i++ {
		name := fmt.Sprintf("civ-%d", i+1)
		civSeed := cfg.Seed + int64(i)*1000

		civ, err := engine.New(name, cfg,
			generator,
			tasks.NewNoiseScorer(civSeed, cfg.ScoreAmplitude, cfg.ParticipationCost),
			civSeed,
		)
		if err != nil {
			slog.Error("failed to create civilization", "name", name, "error", err)
			os.Exit(1)
		}

		wg.Add(1)
		go func(i int, civ *engine.Civilization) {
			defer wg.Done()
			results[i] = civ.Run()
		}(i, civ)
	}
	wg.Wait()

	// ── Persist & Report ──────────────────────────────────────────────
	exitCode := 0
	for _, res := range results {
		runID, err := db.SaveResult(res, cfg.Seed, string(configJSON))
		if err != nil {
			slog.Error("failed to save run", "name", res.Name, "error", err)
			exitCode = 1
			continue
		}

		last := engine.Snapshot{}
		if len(res.Snapshots) > 0 {
			last = res.Snapshots[len(res.Snapshots)-1]
		}
		deaths := engine.ComputeExtinctionStats(res.Extinctions)
		slog.Info("run complete",
			"name", res.Name,
			"run_id", runID,
			"termination", res.Termination,
			"generations", len(res.Snapshots),
			"final_population", last.Population,
			"final_gini", fmt.Sprintf("%.3f", last.Gini),
			"governance_entropy", fmt.Sprintf("%.3f", last.GovernanceEntropy),
			"rules", len(res.Rules),
			"deaths", deaths.Total,
			"mean_age_at_death", fmt.Sprintf("%.1f", deaths.MeanAgeAtDeath),
		)
		if res.Err != nil {
			slog.Error("run ended with integrity failure", "name", res.Name, "error", res.Err)
			exitCode = 1
		}
	}

	os.Exit(exitCode)
}
