package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ DB = (*SQLiteDB)(nil)

// SQLiteDB implements DB on SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens the run log at path. ":memory:" opens a private
// in-memory database.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", path+sep+"_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate applies pending migrations. It is safe to call repeatedly.
func (s *SQLiteDB) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("migration setup failed: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// SaveRun inserts run and its per-stage attempt counts. An empty ID is
// filled with a new UUID.
func (s *SQLiteDB) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs (
		id, seed, config, output_root, status, error, exit_code, engine_version, duration_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Seed, run.Config, run.OutputRoot, run.Status, run.Error,
		run.ExitCode, run.EngineVersion, run.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(run.Attempts) > 0 {
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO run_stages (run_id, stage, attempts) VALUES (?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		stages := make([]string, 0, len(run.Attempts))
		for stage := range run.Attempts {
			stages = append(stages, stage)
		}
		sort.Strings(stages)
		for _, stage := range stages {
			if _, err := stmt.ExecContext(ctx, run.ID, stage, run.Attempts[stage]); err != nil {
				return fmt.Errorf("insert stage %s: %w", stage, err)
			}
		}
	}

	return tx.Commit()
}

// SaveChanges appends spoiler entries to a run.
func (s *SQLiteDB) SaveChanges(ctx context.Context, runID string, changes []Change) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO changes (run_id, category, location, before_value, after_value) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range changes {
		if _, err := stmt.ExecContext(ctx, runID, c.Category, c.Location, c.Before, c.After); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetRun retrieves a run by ID.
func (s *SQLiteDB) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `SELECT id, seed, config, output_root, status, error, exit_code,
		engine_version, duration_ms, created_at
		FROM runs WHERE id = ?`

	var run Run
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Seed, &run.Config, &run.OutputRoot, &run.Status, &run.Error,
		&run.ExitCode, &run.EngineVersion, &run.DurationMS, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT stage, attempts FROM run_stages WHERE run_id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		if run.Attempts == nil {
			run.Attempts = map[string]int{}
		}
		run.Attempts[stage] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetChanges retrieves the spoiler entries of a run in insertion order.
// A non-positive limit returns all of them.
func (s *SQLiteDB) GetChanges(ctx context.Context, runID string, limit, offset int) ([]Change, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT id, run_id, category, location, before_value, after_value
		FROM changes WHERE run_id = ? ORDER BY id LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, runID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []Change
	for rows.Next() {
		var c Change
		if err := rows.Scan(&c.ID, &c.RunID, &c.Category, &c.Location, &c.Before, &c.After); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// ListRunsBySeed returns every run of seed, newest first. Attempt counts
// are not loaded.
func (s *SQLiteDB) ListRunsBySeed(ctx context.Context, seed string) ([]Run, error) {
	query := `SELECT id, seed, config, output_root, status, error, exit_code,
		engine_version, duration_ms, created_at
		FROM runs WHERE seed = ? ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, seed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID, &run.Seed, &run.Config, &run.OutputRoot, &run.Status, &run.Error,
			&run.ExitCode, &run.EngineVersion, &run.DurationMS, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
