package migration

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/storage"
	"github.com/mattsolo1/grove-docfs/pkg/store"
)

type Migrator struct {
	backend storage.Backend
	options MigrationOptions
	report  *MigrationReport
	logger  *logrus.Entry
}

func NewMigrator(backend storage.Backend, options MigrationOptions, logger *logrus.Entry) *Migrator {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New()) // Fallback to a null logger
	}
	if options.FilesystemKey == "" {
		options.FilesystemKey = store.DefaultKey
	}
	if options.LegacyKey == "" {
		options.LegacyKey = DefaultLegacyKey
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.NewID == nil {
		options.NewID = func() string { return uuid.New().String() }
	}
	return &Migrator{
		backend: backend,
		options: options,
		report:  NewMigrationReport(),
		logger:  logger.WithField("sub-component", "migrator"),
	}
}

// Run returns the state the store should start from. An existing record is
// passed through untouched; otherwise a new state is built around the legacy
// document (or an empty one). The legacy key is only ever read.
func (m *Migrator) Run() *models.State {
	defer m.report.Complete()

	if state, ok := m.existing(); ok {
		m.report.Outcome = OutcomeExisting
		m.logger.Debug("Filesystem record present, nothing to migrate")
		return state
	}

	legacy, ok, err := m.backend.Get(m.options.LegacyKey)
	if err != nil {
		m.logger.WithError(err).Warn("Failed to read legacy document, starting fresh")
		ok = false
	}
	if !ok {
		legacy = ""
	}

	name := FreshFileName
	m.report.Outcome = OutcomeFresh
	if legacy != "" {
		name = LegacyFileName
		m.report.Outcome = OutcomeLegacy
		m.report.LegacyBytes = len(legacy)
	}

	now := m.options.Now().UnixMilli()
	file := models.Node{
		ID:        models.ID(m.options.NewID()),
		Type:      models.NodeTypeFile,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	state := models.NewState()
	state.Nodes[file.ID] = file
	state.Content[file.ID] = legacy
	state.ActiveFileID = file.ID
	m.report.FileName = name

	m.logger.WithFields(logrus.Fields{
		"outcome": m.report.Outcome,
		"file":    name,
		"bytes":   m.report.LegacyBytes,
	}).Info("Created filesystem")
	return state
}

// existing parses the current filesystem record, if there is a usable one.
func (m *Migrator) existing() (*models.State, bool) {
	raw, ok, err := m.backend.Get(m.options.FilesystemKey)
	if err != nil {
		m.logger.WithError(err).Warn("Failed to read filesystem record")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	state := models.NewState()
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		m.report.CorruptRecord = true
		m.logger.WithError(err).Error("Filesystem record is corrupt, creating a new one")
		return nil, false
	}
	state.EnsureMaps()
	return state, true
}

func (m *Migrator) GetReport() *MigrationReport {
	return m.report
}
