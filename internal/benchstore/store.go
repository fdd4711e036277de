// Package benchstore persists labelled benchmark reports and batch
// summaries in a SQLite database.
package benchstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"wowsim-core/internal/bench"
	"wowsim-core/internal/runner"
)

const timeFormat = time.RFC3339Nano

//go:embed schema.sql
var schema string

// ErrNotFound is returned when no report has the requested label.
var ErrNotFound = errors.New("benchstore: report not found")

// Store is a SQLite-backed report store.
type Store struct {
	sqlDB *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveReport stores r under its label, replacing any report with the
// same label. It assigns r.ID when empty.
func (s *Store) SaveReport(ctx context.Context, r *bench.Report) error {
	if strings.TrimSpace(r.Label) == "" {
		return fmt.Errorf("report label is required")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM bench_specs WHERE report_id IN (SELECT id FROM bench_reports WHERE label = ?)`, r.Label); err != nil {
		return fmt.Errorf("replace report %s: %w", r.Label, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bench_reports WHERE label = ?`, r.Label); err != nil {
		return fmt.Errorf("replace report %s: %w", r.Label, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO bench_reports (id, label, created_at, total_avg, dev_max, std_dev_max) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Label, r.CreatedAt.Format(timeFormat), r.TotalAvg, r.DevMax, r.StdDevMax)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", r.Label, err)
	}
	for _, name := range r.Names() {
		sr := r.Results[name]
		runs, err := json.Marshal(sr.Runs)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bench_specs (report_id, name, avg, dev, std_dev, runs) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, name, sr.Avg, sr.Dev, sr.StdDev, string(runs))
		if err != nil {
			return fmt.Errorf("insert spec %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// LoadReport returns the report saved under label.
func (s *Store) LoadReport(ctx context.Context, label string) (*bench.Report, error) {
	r := &bench.Report{Label: label, Results: make(map[string]*bench.SpecResult)}
	var created string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, created_at, total_avg, dev_max, std_dev_max FROM bench_reports WHERE label = ?`, label).
		Scan(&r.ID, &created, &r.TotalAvg, &r.DevMax, &r.StdDevMax)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, label)
	}
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", label, err)
	}
	if r.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, avg, dev, std_dev, runs FROM bench_specs WHERE report_id = ? ORDER BY name`, r.ID)
	if err != nil {
		return nil, fmt.Errorf("load specs of %s: %w", label, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			sr   bench.SpecResult
			runs string
		)
		if err := rows.Scan(&sr.Name, &sr.Avg, &sr.Dev, &sr.StdDev, &runs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(runs), &sr.Runs); err != nil {
			return nil, fmt.Errorf("decode runs of %s: %w", sr.Name, err)
		}
		sr.Count = len(sr.Runs)
		r.Results[sr.Name] = &sr
	}
	return r, rows.Err()
}

// Labels lists stored report labels, newest first.
func (s *Store) Labels(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT label FROM bench_reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		out = append(out, label)
	}
	return out, rows.Err()
}

// SaveBatch records the summary of a batch run.
func (s *Store) SaveBatch(ctx context.Context, br *runner.BatchResult) error {
	if br.RunID == "" {
		return fmt.Errorf("batch run id is required")
	}
	summary, err := json.Marshal(br)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO batch_runs (run_id, label, spec, seed, iterations, completed, dps_mean, dps_std_dev, created_at, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		br.RunID, br.Label, br.Spec, br.Seed, br.Iterations, br.Completed, br.DPS.Mean, br.DPS.StdDev,
		time.Now().UTC().Format(timeFormat), string(summary))
	if err != nil {
		return fmt.Errorf("insert batch %s: %w", br.RunID, err)
	}
	return nil
}

// LoadBatch returns a stored batch summary. Per-iteration results are not
// persisted.
func (s *Store) LoadBatch(ctx context.Context, runID string) (*runner.BatchResult, error) {
	var summary string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT summary FROM batch_runs WHERE run_id = ?`, runID).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: batch %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	var br runner.BatchResult
	if err := json.Unmarshal([]byte(summary), &br); err != nil {
		return nil, fmt.Errorf("decode batch %s: %w", runID, err)
	}
	return &br, nil
}
