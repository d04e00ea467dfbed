package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/interfaces"
	"github.com/ternarybob/quarry/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// BuildStorage implements the BuildStorage interface for Badger
type BuildStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewBuildStorage creates a new BuildStorage instance
func NewBuildStorage(db *BadgerDB, logger arbor.ILogger) interfaces.BuildStorage {
	return &BuildStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRecord inserts or updates a build record keyed by run ID
func (s *BuildStorage) SaveRecord(ctx context.Context, record *models.BuildRecord) error {
	if record.ID == "" {
		return errors.New("build record ID is required")
	}
	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save build record: %w", err)
	}
	return nil
}

// GetRecord retrieves a build record by run ID
func (s *BuildStorage) GetRecord(ctx context.Context, runID string) (*models.BuildRecord, error) {
	var record models.BuildRecord
	if err := s.db.Store().Get(runID, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("build record %s not found", runID)
		}
		return nil, fmt.Errorf("failed to get build record: %w", err)
	}
	return &record, nil
}

// ListRecords returns the most recent records, newest first
func (s *BuildStorage) ListRecords(ctx context.Context, limit int) ([]models.BuildRecord, error) {
	var records []models.BuildRecord
	query := badgerhold.Where("StartedAt").Ne(time.Time{}).SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list build records: %w", err)
	}
	return records, nil
}
