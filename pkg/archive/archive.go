// Package archive provides SQLite-based storage for deliberation
// transcripts. Runs are archived only when observability is enabled; the
// archive never feeds back into execution.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"conclave/pkg/council"
	"conclave/pkg/logx"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	created_at      DATETIME NOT NULL,
	query           TEXT NOT NULL,
	pattern         TEXT NOT NULL,
	complexity      TEXT NOT NULL,
	final_response  TEXT NOT NULL,
	rounds_executed INTEGER NOT NULL,
	early_exit      INTEGER NOT NULL,
	plan_json       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rounds (
	run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	round_number   INTEGER NOT NULL,
	responses_json TEXT NOT NULL,
	models_json    TEXT NOT NULL,
	critique       TEXT NOT NULL,
	critique_model TEXT NOT NULL,
	delta_detected INTEGER NOT NULL,
	PRIMARY KEY (run_id, round_number)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Store is a SQLite-backed transcript archive.
type Store struct {
	db  *sql.DB
	log *logx.Logger
}

// Open opens (or creates) the archive database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}

	// SQLite supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db, log: logx.NewLogger("archive")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close archive database: %w", err)
	}
	return nil
}

// RunSummary is the list view of an archived run.
type RunSummary struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Query          string    `json:"query"`
	Pattern        string    `json:"pattern"`
	Complexity     string    `json:"complexity"`
	RoundsExecuted int       `json:"rounds_executed"`
	EarlyExit      bool      `json:"early_exit"`
}

// Run is a fully hydrated archived run.
type Run struct {
	RunSummary
	FinalResponse string                `json:"final_response"`
	Plan          *council.Plan         `json:"plan"`
	Transcript    []council.RoundRecord `json:"transcript"`
}

// SaveRun archives one completed deliberation. The result must carry its
// plan and transcript (observability on). Returns the new run ID.
func (s *Store) SaveRun(ctx context.Context, query string, result *council.Result) (string, error) {
	if result.Plan == nil {
		return "", errors.New("result carries no plan; archive requires observability")
	}

	planJSON, err := json.Marshal(result.Plan)
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}

	runID := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, query, pattern, complexity,
			final_response, rounds_executed, early_exit, plan_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(), query,
		string(result.Plan.Pattern), string(result.Plan.Complexity),
		result.FinalResponse, result.RoundsExecuted, result.EarlyExit, string(planJSON))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i := range result.Transcript {
		record := &result.Transcript[i]
		responsesJSON, err := json.Marshal(record.Responses)
		if err != nil {
			return "", fmt.Errorf("failed to marshal round %d responses: %w", record.Number, err)
		}
		modelsJSON, err := json.Marshal(record.ModelsUsed)
		if err != nil {
			return "", fmt.Errorf("failed to marshal round %d models: %w", record.Number, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO rounds (run_id, round_number, responses_json,
				models_json, critique, critique_model, delta_detected)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, record.Number, string(responsesJSON), string(modelsJSON),
			record.Critique, record.CritiqueModel, record.DeltaDetected)
		if err != nil {
			return "", fmt.Errorf("failed to insert round %d: %w", record.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	s.log.Debug("archived run %s (%d rounds)", runID, len(result.Transcript))
	return runID, nil
}

// GetRun loads one archived run with its full transcript.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{}
	var planJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, query, pattern, complexity,
			final_response, rounds_executed, early_exit, plan_json
		FROM runs WHERE id = ?`, id).Scan(
		&run.ID, &run.CreatedAt, &run.Query, &run.Pattern, &run.Complexity,
		&run.FinalResponse, &run.RoundsExecuted, &run.EarlyExit, &planJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	run.Plan = &council.Plan{}
	if err := json.Unmarshal([]byte(planJSON), run.Plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan for run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT round_number, responses_json, models_json,
			critique, critique_model, delta_detected
		FROM rounds WHERE run_id = ? ORDER BY round_number`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load rounds for run %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var record council.RoundRecord
		var responsesJSON, modelsJSON string
		if err := rows.Scan(&record.Number, &responsesJSON, &modelsJSON,
			&record.Critique, &record.CritiqueModel, &record.DeltaDetected); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		if err := json.Unmarshal([]byte(responsesJSON), &record.Responses); err != nil {
			return nil, fmt.Errorf("failed to unmarshal round responses: %w", err)
		}
		if err := json.Unmarshal([]byte(modelsJSON), &record.ModelsUsed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal round models: %w", err)
		}
		run.Transcript = append(run.Transcript, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rounds: %w", err)
	}

	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, query, pattern, complexity, rounds_executed, early_exit
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Query, &r.Pattern,
			&r.Complexity, &r.RoundsExecuted, &r.EarlyExit); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return out, nil
}
