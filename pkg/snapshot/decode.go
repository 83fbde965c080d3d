package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"

	"github.com/mattsolo1/grove-docfs/pkg/models"
)

// Problem is one reason a record was rejected. Path locates the offending
// value, e.g. "store.nodes.abc.type".
type Problem struct {
	Path    string
	Message string
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// Result is the outcome of Decode: either an accepted snapshot or the list
// of problems that rejected it.
type Result struct {
	Accepted bool
	Snapshot Snapshot
	Problems []Problem
}

func accepted(snap Snapshot) Result {
	return Result{Accepted: true, Snapshot: snap}
}

func rejected(problems ...Problem) Result {
	return Result{Problems: problems}
}

// Err summarizes a rejection as an error. It is nil for accepted results.
func (r Result) Err() error {
	if r.Accepted {
		return nil
	}
	msgs := make([]string, len(r.Problems))
	for i, p := range r.Problems {
		msgs[i] = p.String()
	}
	return fmt.Errorf("invalid backup: %s", strings.Join(msgs, "; "))
}

// migrations upgrade a record from the keyed version to the next one.
var migrations = map[int]func(map[string]any) map[string]any{}

// Decode parses, upgrades, validates and normalizes a backup record. Gzipped
// input is detected and decompressed.
func Decode(data []byte) Result {
	if mimetype.Detect(data).Is("application/gzip") {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return rejected(Problem{Message: fmt.Sprintf("decompress: %v", err)})
		}
		defer gz.Close()
		data, err = io.ReadAll(gz)
		if err != nil {
			return rejected(Problem{Message: fmt.Sprintf("decompress: %v", err)})
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return rejected(Problem{Message: fmt.Sprintf("not a JSON object: %v", err)})
	}

	version, problem := readVersion(raw)
	if problem != nil {
		return rejected(*problem)
	}
	for v := version; v < CurrentVersion; v++ {
		if migrate, ok := migrations[v]; ok {
			raw = migrate(raw)
		}
	}

	if problems := validate(raw); len(problems) > 0 {
		return rejected(problems...)
	}

	// The shape is known good, so the typed decode cannot disagree with it.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return rejected(Problem{Message: err.Error()})
	}
	var snap Snapshot
	if err := json.Unmarshal(normalized, &snap); err != nil {
		return rejected(Problem{Message: err.Error()})
	}
	snap.Version = CurrentVersion
	snap.Store.EnsureMaps()
	Normalize(snap.Store)
	return accepted(snap)
}

func readVersion(raw map[string]any) (int, *Problem) {
	v, ok := raw["version"].(float64)
	if !ok || v != math.Trunc(v) {
		return 0, &Problem{Path: "version", Message: "must be an integer"}
	}
	version := int(v)
	if version < 1 {
		return 0, &Problem{Path: "version", Message: fmt.Sprintf("unsupported version %d", version)}
	}
	if version > CurrentVersion {
		return 0, &Problem{Path: "version", Message: fmt.Sprintf("version %d is newer than supported version %d", version, CurrentVersion)}
	}
	return version, nil
}

func validate(raw map[string]any) []Problem {
	if at, present := raw["exportedAt"]; present {
		str, ok := at.(string)
		if !ok {
			return []Problem{{Path: "exportedAt", Message: "must be a string"}}
		}
		if _, err := time.Parse(time.RFC3339, str); err != nil {
			return []Problem{{Path: "exportedAt", Message: "must be an RFC 3339 timestamp"}}
		}
	}

	st, ok := raw["store"].(map[string]any)
	if !ok {
		return []Problem{{Path: "store", Message: "must be an object"}}
	}

	var problems []Problem
	add := func(path, format string, args ...any) {
		problems = append(problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if nodes, ok := st["nodes"].(map[string]any); !ok {
		add("store.nodes", "must be an object")
	} else {
		keys := make([]string, 0, len(nodes))
		for k := range nodes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			path := "store.nodes." + key
			node, ok := nodes[key].(map[string]any)
			if !ok {
				add(path, "must be an object")
				continue
			}
			if id, ok := node["id"].(string); !ok || id == "" {
				add(path+".id", "must be a non-empty string")
			} else if id != key {
				add(path+".id", "does not match its key")
			}
			if typ, _ := node["type"].(string); !models.NodeType(typ).Valid() {
				add(path+".type", "must be %q or %q", models.NodeTypeFile, models.NodeTypeFolder)
			}
			if _, ok := node["name"].(string); !ok {
				add(path+".name", "must be a string")
			}
			if !nullOrString(node, "parentId") {
				add(path+".parentId", "must be null or a string")
			}
		}
	}

	if content, ok := st["content"].(map[string]any); !ok {
		add("store.content", "must be an object")
	} else {
		for id, body := range content {
			if _, ok := body.(string); !ok {
				add("store.content."+id, "must be a string")
			}
		}
	}

	if !nullOrString(st, "activeFileId") {
		add("store.activeFileId", "must be null or a string")
	}
	if _, ok := st["sidebarWidth"].(float64); !ok {
		add("store.sidebarWidth", "must be a number")
	}
	if _, ok := st["sidebarOpen"].(bool); !ok {
		add("store.sidebarOpen", "must be a boolean")
	}

	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Path < problems[j].Path })
	return problems
}

// returnsTo reports whether following parents from id leads back to id.
func returnsTo(s *models.State, id models.ID) bool {
	seen := map[models.ID]bool{id: true}
	for current := s.Nodes[id].ParentID; !current.IsZero(); current = s.Nodes[current].ParentID {
		if seen[current] {
			return current == id
		}
		seen[current] = true
	}
	return false
}

// nullOrString accepts a missing key, null, or a string.
func nullOrString(obj map[string]any, key string) bool {
	v, present := obj[key]
	if !present || v == nil {
		return true
	}
	_, ok := v.(string)
	return ok
}

// Normalize repairs referential problems a structurally valid record may
// still carry. It leaves a consistent state untouched.
func Normalize(s *models.State) {
	for id, n := range s.Nodes {
		if !n.Type.Valid() {
			delete(s.Nodes, id)
			continue
		}
		n.ID = id
		s.Nodes[id] = n
	}
	for id, n := range s.Nodes {
		if n.IsFolder() {
			n.UpdatedAt = 0
		} else {
			n.Collapsed = false
			if _, ok := s.Content[id]; !ok {
				s.Content[id] = ""
			}
		}
		if !n.ParentID.IsZero() {
			if parent, ok := s.Nodes[n.ParentID]; !ok || !parent.IsFolder() {
				n.ParentID = ""
			}
		}
		s.Nodes[id] = n
	}

	// Break each parent cycle at its smallest id. Nodes hanging below a
	// cycle keep their parent.
	ids := make([]models.ID, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if returnsTo(s, id) {
			n := s.Nodes[id]
			n.ParentID = ""
			s.Nodes[id] = n
		}
	}

	for id := range s.Content {
		if n, ok := s.Nodes[id]; !ok || !n.IsFile() {
			delete(s.Content, id)
		}
	}

	if n, ok := s.Nodes[s.ActiveFileID]; !ok || !n.IsFile() {
		s.ActiveFileID = ""
	}
}
