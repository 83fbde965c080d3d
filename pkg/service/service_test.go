package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-docfs/pkg/migration"
	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/snapshot"
	"github.com/mattsolo1/grove-docfs/pkg/storage"
	"github.com/mattsolo1/grove-docfs/pkg/store"
)

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) Warn(message string) {
	r.messages = append(r.messages, message)
}

func testOptions(notifier store.Notifier) []Option {
	now := time.UnixMilli(1_700_000_000_000)
	seq := 0
	return []Option{
		WithNotifier(notifier),
		WithClock(func() time.Time {
			now = now.Add(time.Millisecond)
			return now
		}),
		WithIDGenerator(func() models.ID {
			seq++
			return models.ID(fmt.Sprintf("n%d", seq))
		}),
	}
}

func newEphemeral(t *testing.T, opts ...Option) (*Service, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	svc, err := New(&Config{Ephemeral: true}, append(testOptions(notifier), opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc, notifier
}

func TestNewStartsFresh(t *testing.T) {
	svc, _ := newEphemeral(t)

	active, err := svc.Active()
	require.NoError(t, err)
	assert.Equal(t, migration.FreshFileName, active.Path)
	assert.Equal(t, migration.OutcomeFresh, svc.MigrationReport().Outcome)
}

func TestNewWrapsLegacyDocument(t *testing.T) {
	backend := storage.NewMemoryBackend(0)
	require.NoError(t, backend.Set(migration.DefaultLegacyKey, "# Hello"))

	svc, _ := newEphemeral(t, WithBackend(backend))

	active, err := svc.Active()
	require.NoError(t, err)
	assert.Equal(t, migration.LegacyFileName, active.Name)

	body, err := svc.Read(active.Path)
	require.NoError(t, err)
	assert.Equal(t, "# Hello", body)

	legacy, ok, err := backend.Get(migration.DefaultLegacyKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "# Hello", legacy)
}

func TestPersistsAcrossRestart(t *testing.T) {
	cfg := &Config{DataDir: t.TempDir()}

	svc, err := New(cfg, testOptions(&recordingNotifier{})...)
	require.NoError(t, err)
	_, err = svc.CreateFolder("", "Docs")
	require.NoError(t, err)
	_, err = svc.CreateFile("Docs", "plan.md")
	require.NoError(t, err)
	_, err = svc.Write("docs/PLAN.md", "# Plan\n\nShip it.")
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	reopened, err := New(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, migration.OutcomeExisting, reopened.MigrationReport().Outcome)
	active, err := reopened.Active()
	require.NoError(t, err)
	assert.Equal(t, "Docs/plan.md", active.Path)

	body, err := reopened.Read("Docs/plan.md")
	require.NoError(t, err)
	assert.Equal(t, "# Plan\n\nShip it.\n", body)
}

func TestFileOperations(t *testing.T) {
	svc, _ := newEphemeral(t)

	_, err := svc.CreateFolder("", "Docs")
	require.NoError(t, err)
	_, err = svc.CreateFile("Docs", "Untitled.md")
	require.NoError(t, err)
	second, err := svc.CreateFile("Docs", "untitled.md")
	require.NoError(t, err)
	assert.Equal(t, "untitled 2.md", second.Name)

	_, err = svc.CreateFile("Untitled.md", "x.md")
	assert.ErrorIs(t, err, ErrNotFolder)
	_, err = svc.CreateFile("Missing", "x.md")
	assert.ErrorIs(t, err, ErrNotFound)

	renamed, err := svc.Rename("Docs/untitled 2.md", "notes.md")
	require.NoError(t, err)
	assert.Equal(t, "notes.md", renamed.Name)

	moved, err := svc.Move("Docs/Untitled.md", "/")
	require.NoError(t, err)
	assert.Equal(t, "Untitled 2.md", moved.Name, "collision with the root file is resolved")

	_, err = svc.Move("Docs", "Docs")
	assert.ErrorIs(t, err, ErrNotAllowed)

	items, err := svc.List("", false)
	require.NoError(t, err)
	var paths []string
	for _, item := range items {
		paths = append(paths, item.Path)
	}
	assert.Equal(t, []string{"Docs", "Docs/notes.md", "Untitled 2.md", "Untitled.md"}, paths)

	found, err := svc.Find("Docs/**/*.md")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Docs/notes.md", found[0].Path)

	toggled, err := svc.Toggle("Docs")
	require.NoError(t, err)
	assert.True(t, toggled.Collapsed)
	collapsed, err := svc.List("", true)
	require.NoError(t, err)
	assert.Len(t, collapsed, 3)
}

func TestDeleteActiveFileLoadsReplacement(t *testing.T) {
	svc, _ := newEphemeral(t)

	_, err := svc.CreateFile("", "other.md")
	require.NoError(t, err)
	_, err = svc.Write("other.md", "other body")
	require.NoError(t, err)
	_, err = svc.Write("Untitled.md", "doomed")
	require.NoError(t, err)

	removed, err := svc.Delete("Untitled.md")
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	active, err := svc.Active()
	require.NoError(t, err)
	assert.Equal(t, "other.md", active.Path)
	assert.Equal(t, "other body\n", svc.Document.Markdown())
}

func TestEditUsesEditor(t *testing.T) {
	var edited string
	svc, _ := newEphemeral(t, WithEditorRunner(func(path string) error {
		edited = path
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(path, append(data, []byte("\nAdded line.\n")...), 0600)
	}))
	_, err := svc.Write("Untitled.md", "# Title")
	require.NoError(t, err)

	changed, err := svc.Edit("Untitled.md")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, strings.HasSuffix(edited, "Untitled.md"))

	body, err := svc.Read("Untitled.md")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nAdded line.\n", body)
}

func TestEditWithoutChanges(t *testing.T) {
	svc, _ := newEphemeral(t, WithEditorRunner(func(string) error { return nil }))

	changed, err := svc.Edit("Untitled.md")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestImportMarkdownUsesFrontmatterTitle(t *testing.T) {
	svc, _ := newEphemeral(t)

	n, err := svc.ImportMarkdown("", "", "---\ntitle: Meeting\n---\n\n# Agenda\n")
	require.NoError(t, err)
	assert.Equal(t, "Meeting.md", n.Name)

	body, err := svc.Read("Meeting.md")
	require.NoError(t, err)
	assert.Equal(t, "# Agenda\n", body)
}

func TestImportMarkdownWarnsOnBadFrontmatter(t *testing.T) {
	svc, notifier := newEphemeral(t)

	n, err := svc.ImportMarkdown("", "bad.md", "---\ntitle: [invalid\n---\n\nBody")
	require.NoError(t, err)
	assert.Equal(t, "bad.md", n.Name)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "ignoring unreadable frontmatter")

	body, err := svc.Read("bad.md")
	require.NoError(t, err)
	assert.Contains(t, body, "Body")
}

func TestExportWithFrontmatter(t *testing.T) {
	svc, _ := newEphemeral(t)
	_, err := svc.Write("Untitled.md", "Body")
	require.NoError(t, err)

	export, err := svc.Export("Untitled.md", true)
	require.NoError(t, err)
	assert.Equal(t, "Untitled.md", export.Filename)
	assert.True(t, strings.HasPrefix(export.Body, "---\nid: n1\ntitle: Untitled\n"))
	assert.True(t, strings.HasSuffix(export.Body, "Body\n"))
}

func TestBackupAndRestore(t *testing.T) {
	svc, _ := newEphemeral(t)
	_, err := svc.Write("Untitled.md", "kept")
	require.NoError(t, err)

	var buf bytes.Buffer
	snap, err := svc.Backup(&buf, true)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(snap.Filename(true), ".json.gz"))

	_, err = svc.CreateFile("", "later.md")
	require.NoError(t, err)
	_, err = svc.Write("later.md", "after the backup")
	require.NoError(t, err)

	approve := snapshot.ConfirmFunc(func(context.Context, string, snapshot.Snapshot) (bool, error) { return true, nil })
	outcome := svc.Restore(context.Background(), &buf, approve)
	require.Equal(t, snapshot.OutcomeImported, outcome.Outcome)

	_, err = svc.Lookup("later.md")
	assert.ErrorIs(t, err, ErrNotFound)
	active, err := svc.Active()
	require.NoError(t, err)
	assert.Equal(t, "Untitled.md", active.Path)
	assert.Equal(t, "kept\n", svc.Document.Markdown())
}

func TestRestoreRejectsMalformed(t *testing.T) {
	svc, notifier := newEphemeral(t)
	before := len(svc.Store.Nodes())

	approve := snapshot.ConfirmFunc(func(context.Context, string, snapshot.Snapshot) (bool, error) { return true, nil })
	outcome := svc.Restore(context.Background(), strings.NewReader(`{"version":1,"store":{"nodes":{}}}`), approve)

	assert.Equal(t, snapshot.OutcomeRejected, outcome.Outcome)
	assert.Len(t, svc.Store.Nodes(), before)
	assert.NotEmpty(t, notifier.messages)
}

func TestSearch(t *testing.T) {
	svc, _ := newEphemeral(t)
	_, err := svc.CreateFolder("", "Docs")
	require.NoError(t, err)
	_, err = svc.CreateFile("Docs", "roadmap.md")
	require.NoError(t, err)
	_, err = svc.Write("Docs/roadmap.md", "Launch the importer in spring.")
	require.NoError(t, err)
	_, err = svc.Write("Untitled.md", "Unrelated.")
	require.NoError(t, err)

	hits, err := svc.Search("importer", "", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Docs/roadmap.md", hits[0].Path)

	hits, err = svc.Search("importer", "Docs", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	_, err = svc.Search("importer", "Nowhere", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDoctorAndRepair(t *testing.T) {
	svc, _ := newEphemeral(t)

	report := svc.Doctor()
	assert.Equal(t, 1, report.Files)
	assert.Empty(t, report.Problems)
	assert.Positive(t, report.Bytes)

	svc.Store.SetNode(models.Node{ID: "stray", Type: models.NodeTypeFile, Name: "stray.md", ParentID: "ghost"})
	report = svc.Doctor()
	require.NotEmpty(t, report.Problems)

	fixed := svc.Repair()
	assert.NotEmpty(t, fixed)
	assert.Empty(t, svc.Doctor().Problems)
	assert.Empty(t, svc.Repair())

	stray, err := svc.Lookup("stray.md")
	require.NoError(t, err)
	assert.True(t, stray.ParentID.IsZero())
}

func TestQuotaExceededNotifies(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, err := New(&Config{Ephemeral: true, QuotaBytes: 400}, testOptions(notifier)...)
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Write("Untitled.md", strings.Repeat("x", 1000))
	require.NoError(t, err)

	require.NotEmpty(t, notifier.messages)
	assert.Equal(t, store.QuotaWarning, notifier.messages[0])
	assert.Contains(t, svc.Store.Content("n1"), "xxxx", "in-memory state keeps the edit")
}

func TestSidebarSettings(t *testing.T) {
	svc, _ := newEphemeral(t)

	width, open := svc.Sidebar()
	assert.Equal(t, float64(models.DefaultSidebarWidth), width)
	assert.True(t, open)

	w, o := 300.0, false
	require.NoError(t, svc.SetSidebar(&w, &o))
	width, open = svc.Sidebar()
	assert.Equal(t, 300.0, width)
	assert.False(t, open)

	bad := -1.0
	assert.Error(t, svc.SetSidebar(&bad, nil))
}
