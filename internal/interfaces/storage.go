package interfaces

import (
	"context"

	"github.com/ternarybob/quarry/internal/models"
)

// BuildStorage defines operations for persisted build run history
type BuildStorage interface {
	// SaveRecord inserts or updates a build record
	SaveRecord(ctx context.Context, record *models.BuildRecord) error

	// GetRecord retrieves a build record by run ID
	GetRecord(ctx context.Context, runID string) (*models.BuildRecord, error)

	// ListRecords returns the most recent records, newest first
	ListRecords(ctx context.Context, limit int) ([]models.BuildRecord, error)
}

// StageLogStorage defines operations for per-stage diagnostic logs
type StageLogStorage interface {
	// AppendLines stores diagnostic lines for one stage of a run
	AppendLines(ctx context.Context, runID string, dependency string, lines []string) error

	// GetLines returns the stored lines for a run, oldest first.
	// dependency "" means all stages.
	GetLines(ctx context.Context, runID string, dependency string, limit int) ([]models.StageLogEntry, error)

	// DeleteLines removes all lines for a run
	DeleteLines(ctx context.Context, runID string) error
}

// StorageManager provides access to all storage backends
type StorageManager interface {
	BuildStorage() BuildStorage
	StageLogStorage() StageLogStorage
	Close() error
}
