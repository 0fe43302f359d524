// Package store keeps an audit trail of validation, repair and merge runs
// in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"time"

	"questdb/internal/issue"
	"questdb/internal/merge"
	"questdb/internal/worker"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// copyBatchSize bounds the rows sent in one COPY.
const copyBatchSize = 5000

// Run is one recorded invocation against one file.
type Run struct {
	ID         int64
	Command    string
	Path       string
	Kind       string
	InputHash  string
	Records    int
	Issues     int
	Unresolved int
	OutputPath string
	StartedAt  time.Time
}

// Store writes audit rows through a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL and checks the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// RecordRun stores a run and its issues in one transaction and returns the
// run id.
func (s *Store) RecordRun(ctx context.Context, run Run, issues []issue.Issue) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin audit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO runs (command, path, kind, input_hash, records, issues, unresolved, output_path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		run.Command, run.Path, run.Kind, run.InputHash, run.Records, run.Issues, run.Unresolved, run.OutputPath,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert run for %s: %w", run.Path, err)
	}

	for _, chunk := range worker.Batch(issueRows(id, issues), copyBatchSize) {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"issues"},
			[]string{"run_id", "kind", "record_id", "line", "field", "message", "fixed"},
			pgx.CopyFromRows(chunk),
		)
		if err != nil {
			return 0, fmt.Errorf("insert issues for run %d: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit audit transaction: %w", err)
	}

	log.Debug().Int64("run", id).Str("path", run.Path).Int("issues", len(issues)).Msg("Recorded run")
	return id, nil
}

// RecordDecisions stores the decisions of a merge run.
func (s *Store) RecordDecisions(ctx context.Context, runID int64, decisions []merge.Decision) error {
	if len(decisions) == 0 {
		return nil
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"merge_decisions"},
		[]string{"run_id", "record_id", "action", "primary_name", "secondary_name", "existing_id"},
		pgx.CopyFromRows(decisionRows(runID, decisions)),
	)
	if err != nil {
		return fmt.Errorf("insert merge decisions for run %d: %w", runID, err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first. An empty path matches
// every file.
func (s *Store) RecentRuns(ctx context.Context, path string, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, command, path, kind, input_hash, records, issues, unresolved, output_path, started_at
		 FROM runs
		 WHERE $1 = '' OR path = $1
		 ORDER BY started_at DESC, id DESC
		 LIMIT $2`, path, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Command, &r.Path, &r.Kind, &r.InputHash,
			&r.Records, &r.Issues, &r.Unresolved, &r.OutputPath, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func issueRows(runID int64, issues []issue.Issue) [][]any {
	rows := make([][]any, 0, len(issues))
	for _, is := range issues {
		rows = append(rows, []any{runID, is.Kind.String(), is.RecordID, is.Line, is.Field, is.Message, is.Fixed})
	}
	return rows
}

func decisionRows(runID int64, decisions []merge.Decision) [][]any {
	rows := make([][]any, 0, len(decisions))
	for _, d := range decisions {
		rows = append(rows, []any{runID, d.ID, string(d.Action), d.PrimaryName, d.SecondaryName, d.ExistingID})
	}
	return rows
}
