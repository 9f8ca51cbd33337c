// Package resultstore records batch runs in Postgres.
package resultstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dshills/suggestcheck/internal/runner"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres records runs and their per-scenario results.
type Postgres struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

// Row is one recorded scenario result.
type Row struct {
	RunID      uuid.UUID
	ScenarioID string
	Status     string
	Findings   []string
	Error      string
	Candidate  json.RawMessage
	CreatedAt  time.Time
}

// NewPostgres opens dsn with the pgx driver and checks connectivity.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("resultstore.NewPostgres: empty DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("resultstore.NewPostgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resultstore.NewPostgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) ensureSchema(ctx context.Context) error {
	p.schemaOnce.Do(func() {
		_, p.schemaErr = p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS suggestcheck_runs (
  run_id UUID PRIMARY KEY,
  status TEXT NOT NULL,
  total INTEGER NOT NULL,
  passed INTEGER NOT NULL,
  failed INTEGER NOT NULL,
  errored INTEGER NOT NULL,
  model TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS suggestcheck_results (
  id SERIAL PRIMARY KEY,
  run_id UUID NOT NULL REFERENCES suggestcheck_runs (run_id) ON DELETE CASCADE,
  scenario_id TEXT NOT NULL,
  status TEXT NOT NULL,
  findings JSONB NOT NULL DEFAULT '[]',
  error TEXT NOT NULL DEFAULT '',
  candidate JSONB,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  UNIQUE (run_id, scenario_id)
);
CREATE INDEX IF NOT EXISTS idx_suggestcheck_results_scenario ON suggestcheck_results (scenario_id);
`)
	})
	return p.schemaErr
}

// Record stores b under a new run id and returns it. The run and all of
// its results are written in one transaction.
func (p *Postgres) Record(ctx context.Context, b runner.Batch, model string) (uuid.UUID, error) {
	if err := p.ensureSchema(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("resultstore.Record: schema: %w", err)
	}
	runID := uuid.New()
	rows, err := rowsFor(runID, b)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resultstore.Record: %w", err)
	}
	sum := runner.Summarize(b)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resultstore.Record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO suggestcheck_runs (run_id, status, total, passed, failed, errored, model)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		runID, string(sum.Status), sum.Total, sum.Passed, sum.Failed, sum.Errored, model); err != nil {
		return uuid.Nil, fmt.Errorf("resultstore.Record: insert run: %w", err)
	}
	for _, r := range rows {
		findings, err := json.Marshal(r.Findings)
		if err != nil {
			return uuid.Nil, fmt.Errorf("resultstore.Record: %w", err)
		}
		var candidate any
		if len(r.Candidate) > 0 {
			candidate = string(r.Candidate)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO suggestcheck_results (run_id, scenario_id, status, findings, error, candidate)
VALUES ($1,$2,$3,$4,$5,$6)`,
			r.RunID, r.ScenarioID, r.Status, string(findings), r.Error, candidate); err != nil {
			return uuid.Nil, fmt.Errorf("resultstore.Record: insert %s: %w", r.ScenarioID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("resultstore.Record: commit: %w", err)
	}
	return runID, nil
}

// Results returns the rows recorded for runID ordered by scenario id.
func (p *Postgres) Results(ctx context.Context, runID uuid.UUID) ([]Row, error) {
	if err := p.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("resultstore.Results: schema: %w", err)
	}
	rs, err := p.db.QueryContext(ctx, `
SELECT run_id, scenario_id, status, findings, error, candidate, created_at
FROM suggestcheck_results WHERE run_id = $1 ORDER BY scenario_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("resultstore.Results: %w", err)
	}
	defer rs.Close()

	var out []Row
	for rs.Next() {
		var (
			r         Row
			findings  []byte
			candidate []byte
		)
		if err := rs.Scan(&r.RunID, &r.ScenarioID, &r.Status, &findings, &r.Error, &candidate, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("resultstore.Results: scan: %w", err)
		}
		if err := json.Unmarshal(findings, &r.Findings); err != nil {
			return nil, fmt.Errorf("resultstore.Results: findings: %w", err)
		}
		if len(candidate) > 0 {
			r.Candidate = json.RawMessage(candidate)
		}
		out = append(out, r)
	}
	return out, rs.Err()
}

// rowsFor flattens b into rows ordered by scenario id.
func rowsFor(runID uuid.UUID, b runner.Batch) ([]Row, error) {
	rows := make([]Row, 0, len(b))
	for _, e := range b.Entries() {
		r := Row{RunID: runID, ScenarioID: e.ScenarioID, Status: string(e.Status()), Findings: []string{}}
		if e.Err != nil {
			r.Error = e.Err.Error()
		}
		if e.Result != nil {
			if len(e.Result.Findings) > 0 {
				r.Findings = e.Result.Findings
			}
			if e.Result.Candidate != nil {
				data, err := json.Marshal(e.Result.Candidate)
				if err != nil {
					return nil, fmt.Errorf("marshal candidate %s: %w", e.ScenarioID, err)
				}
				r.Candidate = data
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}
