// Package store persists generation run history to a local SQLite database
// so past runs can be inspected after their log output is gone.
package store

import (
	"context"
	"time"

	"github.com/sells-group/leadgen-cli/internal/dedup"
)

// RunStatus represents the current state of a generation run.
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
	RunStatusInterrupted RunStatus = "interrupted"
)

// Run is one generation run with its latest stats snapshot.
type Run struct {
	ID         string      `json:"id"`
	Provider   string      `json:"provider"`
	OutputFile string      `json:"output_file"`
	NumBatches int         `json:"num_batches"`
	Status     RunStatus   `json:"status"`
	Stats      *dedup.Stats `json:"stats,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Store defines the run-history persistence interface.
type Store interface {
	CreateRun(ctx context.Context, provider, outputFile string, numBatches int) (*Run, error)
	// CheckpointRun records a mid-run stats snapshot (written on every
	// backup tick).
	CheckpointRun(ctx context.Context, runID string, stats dedup.Stats) error
	FinishRun(ctx context.Context, runID string, status RunStatus, stats dedup.Stats) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
