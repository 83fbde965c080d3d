package migration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/storage"
	"github.com/mattsolo1/grove-docfs/pkg/store"
)

func testOptions() MigrationOptions {
	return MigrationOptions{
		Now:   func() time.Time { return time.UnixMilli(1_700_000_000_000) },
		NewID: func() string { return "migrated" },
	}
}

func TestMigrateFromLegacy(t *testing.T) {
	backend := storage.NewMemoryBackend(0)
	require.NoError(t, backend.Set(DefaultLegacyKey, "# Hello"))

	state, report := MigrateIfNeeded(backend, testOptions(), nil)

	require.Len(t, state.Nodes, 1)
	file := state.Nodes["migrated"]
	assert.Equal(t, models.NodeTypeFile, file.Type)
	assert.Equal(t, LegacyFileName, file.Name)
	assert.True(t, file.ParentID.IsZero())
	assert.Equal(t, int64(1_700_000_000_000), file.CreatedAt)
	assert.Equal(t, "# Hello", state.Content["migrated"])
	assert.Equal(t, models.ID("migrated"), state.ActiveFileID)

	assert.Equal(t, OutcomeLegacy, report.Outcome)
	assert.Equal(t, len("# Hello"), report.LegacyBytes)

	legacy, ok, err := backend.Get(DefaultLegacyKey)
	require.NoError(t, err)
	assert.True(t, ok, "legacy content must be kept")
	assert.Equal(t, "# Hello", legacy)
}

func TestMigrateFresh(t *testing.T) {
	state, report := MigrateIfNeeded(storage.NewMemoryBackend(0), testOptions(), nil)

	require.Len(t, state.Nodes, 1)
	assert.Equal(t, FreshFileName, state.Nodes["migrated"].Name)
	assert.Equal(t, "", state.Content["migrated"])
	assert.Equal(t, models.ID("migrated"), state.ActiveFileID)
	assert.Equal(t, OutcomeFresh, report.Outcome)
}

func TestMigrateEmptyLegacyIsFresh(t *testing.T) {
	backend := storage.NewMemoryBackend(0)
	require.NoError(t, backend.Set(DefaultLegacyKey, ""))

	state, report := MigrateIfNeeded(backend, testOptions(), nil)

	require.Len(t, state.Nodes, 1)
	assert.Equal(t, FreshFileName, state.Nodes["migrated"].Name)
	assert.Equal(t, OutcomeFresh, report.Outcome)
	assert.Zero(t, report.LegacyBytes)

	_, ok, err := backend.Get(DefaultLegacyKey)
	require.NoError(t, err)
	assert.True(t, ok, "legacy record is never deleted")
}

func TestMigrateIsIdempotent(t *testing.T) {
	backend := storage.NewMemoryBackend(0)
	require.NoError(t, backend.Set(DefaultLegacyKey, "# Hello"))

	first, _ := MigrateIfNeeded(backend, testOptions(), nil)
	st := store.New(backend)
	st.Load(first)

	opts := testOptions()
	opts.NewID = func() string { return "should-not-be-used" }
	second, report := MigrateIfNeeded(backend, opts, nil)

	assert.Equal(t, OutcomeExisting, report.Outcome)
	assert.Equal(t, first, second)
}

func TestMigrateCorruptRecordFallsThrough(t *testing.T) {
	backend := storage.NewMemoryBackend(0)
	require.NoError(t, backend.Set(store.DefaultKey, "{{{"))
	require.NoError(t, backend.Set(DefaultLegacyKey, "legacy body"))

	state, report := MigrateIfNeeded(backend, testOptions(), nil)

	assert.True(t, report.CorruptRecord)
	assert.Equal(t, OutcomeLegacy, report.Outcome)
	assert.Equal(t, "legacy body", state.Content["migrated"])
}

func TestMigrateCustomKeys(t *testing.T) {
	backend := storage.NewMemoryBackend(0)
	require.NoError(t, backend.Set("old-editor", "custom"))

	opts := testOptions()
	opts.FilesystemKey = "fs"
	opts.LegacyKey = "old-editor"
	state, report := MigrateIfNeeded(backend, opts, nil)

	assert.Equal(t, OutcomeLegacy, report.Outcome)
	assert.Equal(t, "custom", state.Content["migrated"])
	assert.False(t, report.EndTime.Before(report.StartTime))
}
