// Package persistence provides SQLite-based experiment result storage.
// What is saved — the per-generation snapshot sequence, the full rule
// ledger, the lineage graph, and the extinction log — is sufficient to
// reconstruct every dynasty and rule outcome after the fact.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"genesis/internal/engine"
)

// DB wraps a SQLite connection for result persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		seed INTEGER NOT NULL,
		config_json TEXT NOT NULL,
		termination TEXT NOT NULL,
		error TEXT,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		generation INTEGER NOT NULL,
		population INTEGER NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		total_wealth REAL NOT NULL,
		mean_wealth REAL NOT NULL,
		gini REAL NOT NULL,
		governance_entropy REAL NOT NULL,
		active_dynasties INTEGER NOT NULL,
		extinct_dynasties INTEGER NOT NULL,
		detail_json TEXT NOT NULL,
		PRIMARY KEY (run_id, generation)
	);

	CREATE TABLE IF NOT EXISTS rules (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		id TEXT NOT NULL,
		proposer_id TEXT NOT NULL,
		description TEXT NOT NULL,
		effect_text TEXT NOT NULL,
		category TEXT NOT NULL,
		state TEXT NOT NULL,
		yes_weight REAL NOT NULL,
		no_weight REAL NOT NULL,
		passed INTEGER NOT NULL,
		generation_proposed INTEGER NOT NULL,
		generation_enacted INTEGER NOT NULL,
		effect_json TEXT NOT NULL,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS agents (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		id TEXT NOT NULL,
		parent_id TEXT,
		dynasty_id TEXT NOT NULL,
		trait_prompt TEXT NOT NULL,
		wealth REAL NOT NULL,
		age INTEGER NOT NULL,
		born_generation INTEGER NOT NULL,
		alive INTEGER NOT NULL,
		children_json TEXT NOT NULL,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS extinctions (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		agent_id TEXT NOT NULL,
		dynasty_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		age_at_death INTEGER NOT NULL,
		final_wealth REAL NOT NULL,
		cause TEXT NOT NULL,
		specialization TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_agents_dynasty ON agents(run_id, dynasty_id);
	CREATE INDEX IF NOT EXISTS idx_extinctions_gen ON extinctions(run_id, generation);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveResult writes a complete run: metadata, snapshots, rule ledger,
// lineage graph, and extinction log, in a single transaction.
func (db *DB) SaveResult(res engine.Result, seed int64, configJSON string) (int64, error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
	}

	r, err := tx.Exec(
		"INSERT INTO runs (name, seed, config_json, termination, error) VALUES (?, ?, ?, ?, ?)",
		res.Name, seed, configJSON, res.Termination, errText,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := r.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, s := range res.Snapshots {
		detail, _ := json.Marshal(s)
		_, err := tx.Exec(`INSERT INTO snapshots
			(run_id, generation, population, births, deaths, total_wealth,
			 mean_wealth, gini, governance_entropy, active_dynasties,
			 extinct_dynasties, detail_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, s.Generation, s.Population, s.Births, s.Deaths,
			s.TotalWealth, s.MeanWealth, s.Gini, s.GovernanceEntropy,
			s.ActiveDynasties, s.ExtinctDynasties, string(detail),
		)
		if err != nil {
			return 0, fmt.Errorf("insert snapshot gen %d: %w", s.Generation, err)
		}
	}

	for _, rule := range res.Rules {
		effectJSON, _ := json.Marshal(rule.Effect)
		passed := 0
		if rule.Passed {
			passed = 1
		}
		_, err := tx.Exec(`INSERT INTO rules
			(run_id, id, proposer_id, description, effect_text, category, state,
			 yes_weight, no_weight, passed, generation_proposed,
			 generation_enacted, effect_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, rule.ID, rule.ProposerID, rule.Description, rule.EffectText,
			rule.Effect.Category, rule.State.String(), rule.YesWeight,
			rule.NoWeight, passed, rule.GenerationProposed,
			rule.GenerationEnacted, string(effectJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("insert rule %s: %w", rule.ID, err)
		}
	}

	for _, a := range res.Agents {
		childrenJSON, _ := json.Marshal(a.ChildrenIDs)
		alive := 0
		if a.Alive {
			alive = 1
		}
		_, err := tx.Exec(`INSERT INTO agents
			(run_id, id, parent_id, dynasty_id, trait_prompt, wealth, age,
			 born_generation, alive, children_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, a.ID, string(a.ParentID), a.DynastyID, a.TraitPrompt,
			a.Wealth, a.Age, a.BornGeneration, alive, string(childrenJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("insert agent %s: %w", a.ID, err)
		}
	}

	for _, e := range res.Extinctions {
		_, err := tx.Exec(`INSERT INTO extinctions
			(run_id, agent_id, dynasty_id, generation, age_at_death,
			 final_wealth, cause, specialization)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, e.AgentID, e.DynastyID, e.Generation, e.AgeAtDeath,
			e.FinalWealth, e.Cause, e.Specialization,
		)
		if err != nil {
			return 0, fmt.Errorf("insert extinction %s: %w", e.AgentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	slog.Info("run saved",
		"run_id", runID,
		"name", res.Name,
		"snapshots", len(res.Snapshots),
		"rules", len(res.Rules),
		"agents", len(res.Agents),
	)
	return runID, nil
}

// SnapshotRow is a stored snapshot summary.
type SnapshotRow struct {
	Generation        int     `db:"generation"`
	Population        int     `db:"population"`
	Births            int     `db:"births"`
	Deaths            int     `db:"deaths"`
	TotalWealth       float64 `db:"total_wealth"`
	MeanWealth        float64 `db:"mean_wealth"`
	Gini              float64 `db:"gini"`
	GovernanceEntropy float64 `db:"governance_entropy"`
	ActiveDynasties   int     `db:"active_dynasties"`
	ExtinctDynasties  int     `db:"extinct_dynasties"`
}

// LoadSnapshots returns a run's snapshot summaries in generation order.
func (db *DB) LoadSnapshots(runID int64) ([]SnapshotRow, error) {
	var rows []SnapshotRow
	err := db.conn.Select(&rows, `SELECT generation, population, births,
		deaths, total_wealth, mean_wealth, gini, governance_entropy,
		active_dynasties, extinct_dynasties
		FROM snapshots WHERE run_id = ? ORDER BY generation`, runID)
	return rows, err
}

// RuleRow is a stored ledger entry.
type RuleRow struct {
	ID                 string  `db:"id"`
	ProposerID         string  `db:"proposer_id"`
	Description        string  `db:"description"`
	Category           string  `db:"category"`
	State              string  `db:"state"`
	YesWeight          float64 `db:"yes_weight"`
	NoWeight           float64 `db:"no_weight"`
	Passed             bool    `db:"passed"`
	GenerationProposed int     `db:"generation_proposed"`
	GenerationEnacted  int     `db:"generation_enacted"`
}

// LoadRules returns a run's full rule ledger in proposal order.
func (db *DB) LoadRules(runID int64) ([]RuleRow, error) {
	var rows []RuleRow
	err := db.conn.Select(&rows, `SELECT id, proposer_id, description,
		category, state, yes_weight, no_weight, passed, generation_proposed,
		generation_enacted
		FROM rules WHERE run_id = ? ORDER BY generation_proposed, id`, runID)
	return rows, err
}

// LineageRow is a stored agent record with its lineage references.
type LineageRow struct {
	ID             string  `db:"id"`
	ParentID       string  `db:"parent_id"`
	DynastyID      string  `db:"dynasty_id"`
	Wealth         float64 `db:"wealth"`
	Age            int     `db:"age"`
	BornGeneration int     `db:"born_generation"`
	Alive          bool    `db:"alive"`
}

// LoadLineage returns every agent of a run, founders first.
func (db *DB) LoadLineage(runID int64) ([]LineageRow, error) {
	var rows []LineageRow
	err := db.conn.Select(&rows, `SELECT id, parent_id, dynasty_id, wealth,
		age, born_generation, alive
		FROM agents WHERE run_id = ? ORDER BY born_generation, id`, runID)
	return rows, err
}

// ExtinctionRow is a stored death event.
type ExtinctionRow struct {
	AgentID        string  `db:"agent_id"`
	DynastyID      string  `db:"dynasty_id"`
	Generation     int     `db:"generation"`
	AgeAtDeath     int     `db:"age_at_death"`
	FinalWealth    float64 `db:"final_wealth"`
	Cause          string  `db:"cause"`
	Specialization string  `db:"specialization"`
}

// LoadExtinctions returns a run's death log in generation order.
func (db *DB) LoadExtinctions(runID int64) ([]ExtinctionRow, error) {
	var rows []ExtinctionRow
	err := db.conn.Select(&rows, `SELECT agent_id, dynasty_id, generation,
		age_at_death, final_wealth, cause, specialization
		FROM extinctions WHERE run_id = ? ORDER BY generation, agent_id`, runID)
	return rows, err
}
