// Package migration turns whatever is in storage at startup into a usable
// filesystem state, wrapping content left by the single-document editor.
package migration

import (
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/storage"
)

// MigrateIfNeeded is safe to call on every startup: once a filesystem record
// exists it is returned as is.
func MigrateIfNeeded(backend storage.Backend, options MigrationOptions, logger *logrus.Entry) (*models.State, *MigrationReport) {
	migrator := NewMigrator(backend, options, logger)
	state := migrator.Run()
	return state, migrator.GetReport()
}
