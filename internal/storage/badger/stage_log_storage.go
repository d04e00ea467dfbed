package badger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/interfaces"
	"github.com/ternarybob/quarry/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// logSequence ensures unique log keys even within the same nanosecond
var logSequence uint64

// StageLogStorage implements the StageLogStorage interface for Badger
type StageLogStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewStageLogStorage creates a new StageLogStorage instance
func NewStageLogStorage(db *BadgerDB, logger arbor.ILogger) interfaces.StageLogStorage {
	return &StageLogStorage{
		db:     db,
		logger: logger,
	}
}

// AppendLines stores diagnostic lines for one stage of a run. Keys are
// run ID + timestamp + an atomic sequence so ordering survives bursts.
func (s *StageLogStorage) AppendLines(ctx context.Context, runID string, dependency string, lines []string) error {
	now := time.Now()
	for _, line := range lines {
		seq := atomic.AddUint64(&logSequence, 1)
		entry := models.StageLogEntry{
			AssociatedRunID: runID,
			Dependency:      dependency,
			Line:            line,
			Sequence:        seq,
			Timestamp:       now,
		}
		key := fmt.Sprintf("%s_%d_%d", runID, now.UnixNano(), seq)
		if err := s.db.Store().Insert(key, &entry); err != nil {
			return fmt.Errorf("failed to append stage log: %w", err)
		}
	}
	return nil
}

// GetLines returns the stored lines for a run, oldest first
func (s *StageLogStorage) GetLines(ctx context.Context, runID string, dependency string, limit int) ([]models.StageLogEntry, error) {
	query := badgerhold.Where("AssociatedRunID").Eq(runID).Index("AssociatedRunID")
	if dependency != "" {
		query = query.And("Dependency").Eq(dependency)
	}
	query = query.SortBy("Sequence")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.StageLogEntry
	if err := s.db.Store().Find(&entries, query); err != nil {
		return nil, fmt.Errorf("failed to get stage logs: %w", err)
	}
	return entries, nil
}

// DeleteLines removes all lines for a run
func (s *StageLogStorage) DeleteLines(ctx context.Context, runID string) error {
	if err := s.db.Store().DeleteMatching(&models.StageLogEntry{}, badgerhold.Where("AssociatedRunID").Eq(runID)); err != nil {
		return fmt.Errorf("failed to delete stage logs: %w", err)
	}
	return nil
}
