// Package store keeps a log of randomizer runs in SQLite.
package store

import (
	"context"
	"time"
)

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// DB represents the run log.
type DB interface {
	Close() error
	Migrate(ctx context.Context) error
	SaveRun(ctx context.Context, run *Run) error
	SaveChanges(ctx context.Context, runID string, changes []Change) error
	GetRun(ctx context.Context, id string) (*Run, error)
	GetChanges(ctx context.Context, runID string, limit, offset int) ([]Change, error)
	ListRunsBySeed(ctx context.Context, seed string) ([]Run, error)
}

// Run is one invocation of the pipeline.
type Run struct {
	ID   string `json:"id" db:"id"`
	Seed string `json:"seed" db:"seed"`
	// Config is the JSON form of the settings the run used.
	Config        string         `json:"config" db:"config"`
	OutputRoot    string         `json:"output_root" db:"output_root"`
	Status        string         `json:"status" db:"status"`
	Error         string         `json:"error,omitempty" db:"error"`
	ExitCode      int            `json:"exit_code" db:"exit_code"`
	EngineVersion string         `json:"engine_version" db:"engine_version"`
	DurationMS    int64          `json:"duration_ms" db:"duration_ms"`
	Attempts      map[string]int `json:"attempts,omitempty"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// Change is one spoiler entry of a run.
type Change struct {
	ID       int64  `json:"id" db:"id"`
	RunID    string `json:"run_id" db:"run_id"`
	Category string `json:"category" db:"category"`
	Location string `json:"location" db:"location"`
	Before   string `json:"before" db:"before_value"`
	After    string `json:"after" db:"after_value"`
}
