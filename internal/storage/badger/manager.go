package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/common"
	"github.com/ternarybob/quarry/internal/interfaces"
)

// Manager bundles the Badger-backed storage implementations behind the
// StorageManager interface
type Manager struct {
	db       *BadgerDB
	builds   interfaces.BuildStorage
	stageLog interfaces.StageLogStorage
	logger   arbor.ILogger
}

// NewManager opens the database and wires up the storage implementations
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:       db,
		builds:   NewBuildStorage(db, logger),
		stageLog: NewStageLogStorage(db, logger),
		logger:   logger,
	}, nil
}

// BuildStorage returns the build history store
func (m *Manager) BuildStorage() interfaces.BuildStorage {
	return m.builds
}

// StageLogStorage returns the per-stage diagnostic log store
func (m *Manager) StageLogStorage() interfaces.StageLogStorage {
	return m.stageLog
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
