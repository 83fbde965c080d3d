package migration

import (
	"time"
)

// Outcome says which path a migration run took.
type Outcome string

const (
	// OutcomeExisting means a filesystem record was already present.
	OutcomeExisting Outcome = "existing"
	// OutcomeLegacy means legacy single-document content was wrapped in a file.
	OutcomeLegacy Outcome = "legacy"
	// OutcomeFresh means nothing was stored and a blank file was created.
	OutcomeFresh Outcome = "fresh"
)

// Default names for the file a migration creates.
const (
	LegacyFileName = "Existing Notes.md"
	FreshFileName  = "Untitled.md"
)

// DefaultLegacyKey is where the single-document editor kept its content.
const DefaultLegacyKey = "docfs:content"

type MigrationOptions struct {
	FilesystemKey string
	LegacyKey     string
	Now           func() time.Time
	NewID         func() string
}

type MigrationReport struct {
	Outcome Outcome
	// CorruptRecord is set when an existing record failed to parse and was
	// replaced by a fresh store.
	CorruptRecord bool
	LegacyBytes   int
	FileName      string
	StartTime     time.Time
	EndTime       time.Time
}

func NewMigrationReport() *MigrationReport {
	return &MigrationReport{
		StartTime: time.Now(),
	}
}

func (r *MigrationReport) Complete() {
	r.EndTime = time.Now()
}

func (r *MigrationReport) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
