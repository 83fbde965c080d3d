package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/storage"
	"github.com/mattsolo1/grove-docfs/pkg/store"
)

var exportTime = time.Date(2024, 7, 9, 15, 4, 5, 0, time.UTC)

func sampleStore(t *testing.T) *store.Store {
	t.Helper()
	s := models.NewState()
	s.Nodes["docs"] = models.Node{ID: "docs", Type: models.NodeTypeFolder, Name: "Docs", Collapsed: true, CreatedAt: 10}
	s.Nodes["f1"] = models.Node{ID: "f1", Type: models.NodeTypeFile, Name: "a.md", ParentID: "docs", CreatedAt: 11, UpdatedAt: 12}
	s.Nodes["f2"] = models.Node{ID: "f2", Type: models.NodeTypeFile, Name: "b.md", CreatedAt: 13, UpdatedAt: 14}
	s.Content["f1"] = "# A"
	s.Content["f2"] = ""
	s.ActiveFileID = "f1"
	s.SidebarWidth = 312.5
	s.SidebarOpen = false

	st := store.New(storage.NewMemoryBackend(0))
	st.Load(s)
	return st
}

func encode(t *testing.T, snap Snapshot, compress bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, snap, compress))
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "json", true: "gzip"}[compress], func(t *testing.T) {
			st := sampleStore(t)
			snap := Export(st, exportTime)

			result := Decode(encode(t, snap, compress))
			require.True(t, result.Accepted, "problems: %v", result.Problems)
			assert.Equal(t, CurrentVersion, result.Snapshot.Version)
			assert.True(t, exportTime.Equal(result.Snapshot.ExportedAt))
			assert.Equal(t, st.State(), result.Snapshot.Store)
		})
	}
}

func TestFilename(t *testing.T) {
	snap := Export(sampleStore(t), exportTime)
	assert.Equal(t, "docfs-backup-2024-07-09.json", snap.Filename(false))
	assert.Equal(t, "docfs-backup-2024-07-09.json.gz", snap.Filename(true))
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantPath string
	}{
		{"not json", `{"version":1,`, ""},
		{"missing version", `{"store":{}}`, "version"},
		{"newer version", `{"version":2,"store":{}}`, "version"},
		{"store not object", `{"version":1,"store":[]}`, "store"},
		{"missing content", `{"version":1,"store":{"nodes":{},"activeFileId":null,"sidebarWidth":260,"sidebarOpen":true}}`, "store.content"},
		{"content not string", `{"version":1,"store":{"nodes":{},"content":{"a":1},"activeFileId":null,"sidebarWidth":260,"sidebarOpen":true}}`, "store.content.a"},
		{"bad node type", `{"version":1,"store":{"nodes":{"a":{"id":"a","type":"link","name":"x"}},"content":{},"activeFileId":null,"sidebarWidth":260,"sidebarOpen":true}}`, "store.nodes.a.type"},
		{"node id mismatch", `{"version":1,"store":{"nodes":{"a":{"id":"b","type":"file","name":"x"}},"content":{},"activeFileId":null,"sidebarWidth":260,"sidebarOpen":true}}`, "store.nodes.a.id"},
		{"missing name", `{"version":1,"store":{"nodes":{"a":{"id":"a","type":"file"}},"content":{},"activeFileId":null,"sidebarWidth":260,"sidebarOpen":true}}`, "store.nodes.a.name"},
		{"active id number", `{"version":1,"store":{"nodes":{},"content":{},"activeFileId":3,"sidebarWidth":260,"sidebarOpen":true}}`, "store.activeFileId"},
		{"width string", `{"version":1,"store":{"nodes":{},"content":{},"activeFileId":null,"sidebarWidth":"wide","sidebarOpen":true}}`, "store.sidebarWidth"},
		{"open missing", `{"version":1,"store":{"nodes":{},"content":{},"activeFileId":null,"sidebarWidth":260}}`, "store.sidebarOpen"},
		{"exportedAt date only", `{"version":1,"exportedAt":"2024-05-01","store":{"nodes":{},"content":{},"activeFileId":null,"sidebarWidth":260,"sidebarOpen":true}}`, "exportedAt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Decode([]byte(tt.input))
			assert.False(t, result.Accepted)
			require.NotEmpty(t, result.Problems)
			assert.Equal(t, tt.wantPath, result.Problems[0].Path)
			assert.Error(t, result.Err())
		})
	}
}

func TestDecodeNormalizes(t *testing.T) {
	input := `{"version":1,"exportedAt":"2024-01-01T00:00:00Z","store":{
		"nodes":{
			"f1":{"id":"f1","type":"file","name":"a.md","parentId":"gone","createdAt":1,"updatedAt":2},
			"f2":{"id":"f2","type":"file","name":"b.md","parentId":null,"createdAt":1,"updatedAt":2}
		},
		"content":{"f1":"kept","orphan":"dropped"},
		"activeFileId":"orphan","sidebarWidth":200,"sidebarOpen":true}}`

	result := Decode([]byte(input))
	require.True(t, result.Accepted, "problems: %v", result.Problems)

	s := result.Snapshot.Store
	assert.True(t, s.Nodes["f1"].ParentID.IsZero(), "dangling parent moves to root")
	assert.Equal(t, map[models.ID]string{"f1": "kept", "f2": ""}, s.Content)
	assert.True(t, s.ActiveFileID.IsZero())
	assert.Empty(t, store.CheckState(s))
}

func TestNormalizeBreaksCycles(t *testing.T) {
	s := models.NewState()
	s.Nodes["x"] = models.Node{ID: "x", Type: models.NodeTypeFolder, Name: "X", ParentID: "y"}
	s.Nodes["y"] = models.Node{ID: "y", Type: models.NodeTypeFolder, Name: "Y", ParentID: "x"}

	Normalize(s)
	assert.Empty(t, store.CheckState(s))
	assert.True(t, s.Nodes["x"].ParentID.IsZero(), "cycle is broken at the smallest id")
	assert.Equal(t, models.ID("x"), s.Nodes["y"].ParentID)
}

func TestNormalizeKeepsNodesBelowCycle(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := models.NewState()
		s.Nodes["a"] = models.Node{ID: "a", Type: models.NodeTypeFolder, Name: "A", ParentID: "b"}
		s.Nodes["b"] = models.Node{ID: "b", Type: models.NodeTypeFolder, Name: "B", ParentID: "a"}
		s.Nodes["x"] = models.Node{ID: "x", Type: models.NodeTypeFolder, Name: "X", ParentID: "a"}
		s.Nodes["f"] = models.Node{ID: "f", Type: models.NodeTypeFile, Name: "f.md", ParentID: "x"}

		Normalize(s)

		require.Empty(t, store.CheckState(s))
		assert.True(t, s.Nodes["a"].ParentID.IsZero())
		assert.Equal(t, models.ID("a"), s.Nodes["b"].ParentID)
		assert.Equal(t, models.ID("a"), s.Nodes["x"].ParentID)
		assert.Equal(t, models.ID("x"), s.Nodes["f"].ParentID)
	}
}

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) Warn(message string) {
	r.messages = append(r.messages, message)
}

func confirmWith(ok bool, err error) (Confirmer, *int) {
	calls := 0
	return ConfirmFunc(func(ctx context.Context, message string, snap Snapshot) (bool, error) {
		calls++
		return ok, err
	}), &calls
}

func TestImportReplacesStore(t *testing.T) {
	source := sampleStore(t)
	data := encode(t, Export(source, exportTime), false)

	target := store.New(storage.NewMemoryBackend(0))
	target.Load(models.NewState())
	confirmer, calls := confirmWith(true, nil)
	im := NewImporter(target, confirmer, nil, nil)

	out := im.Import(context.Background(), bytes.NewReader(data))
	assert.Equal(t, OutcomeImported, out.Outcome)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, source.State(), target.State())
}

func TestImportMalformedLeavesStoreUntouched(t *testing.T) {
	target := sampleStore(t)
	before := target.State()
	notifier := &recordingNotifier{}
	confirmer, calls := confirmWith(true, nil)
	im := NewImporter(target, confirmer, notifier, nil)

	input := `{"version":1,"exportedAt":"2024-01-01T00:00:00Z","store":{"nodes":{"z":{"id":"z","type":"file","name":"z.md"}},"activeFileId":"z","sidebarWidth":260,"sidebarOpen":true}}`
	out := im.Import(context.Background(), strings.NewReader(input))

	assert.Equal(t, OutcomeRejected, out.Outcome)
	assert.Equal(t, 0, *calls, "rejected records are never confirmed")
	assert.Len(t, target.Nodes(), len(before.Nodes))
	assert.Equal(t, before.ActiveFileID, target.ActiveFileID())
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "store.content")
}

func TestImportCancelled(t *testing.T) {
	target := store.New(storage.NewMemoryBackend(0))
	target.Load(models.NewState())
	data := encode(t, Export(sampleStore(t), exportTime), true)

	for name, confirmer := range map[string]Confirmer{
		"declined": ConfirmFunc(func(context.Context, string, Snapshot) (bool, error) { return false, nil }),
		"failed":   ConfirmFunc(func(context.Context, string, Snapshot) (bool, error) { return false, errors.New("no tty") }),
	} {
		t.Run(name, func(t *testing.T) {
			out := NewImporter(target, confirmer, nil, nil).Import(context.Background(), bytes.NewReader(data))
			assert.Equal(t, OutcomeCancelled, out.Outcome)
			assert.Empty(t, target.Nodes())
		})
	}
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	time.Sleep(time.Hour)
	return 0, io.EOF
}

func TestImportReadCancelled(t *testing.T) {
	target := sampleStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	confirmer, _ := confirmWith(true, nil)
	out := NewImporter(target, confirmer, nil, nil).Import(ctx, blockingReader{})
	assert.Equal(t, OutcomeRejected, out.Outcome)
	assert.Len(t, target.Nodes(), 3)
}
