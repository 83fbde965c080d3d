// Package tree implements the structural operations over the flat node map:
// queries, create, rename, move, collapse and cascading delete.
package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"

	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/store"
)

// Default names for new nodes.
const (
	DefaultFileName   = "Untitled.md"
	DefaultFolderName = "New Folder"
)

// Tree runs structural operations against a store.
type Tree struct {
	store  *store.Store
	newID  func() models.ID
	logger *logrus.Entry
}

// Option configures a Tree.
type Option func(*Tree)

// WithIDGenerator overrides how ids for new nodes are produced.
func WithIDGenerator(fn func() models.ID) Option {
	return func(t *Tree) {
		t.newID = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(t *Tree) {
		t.logger = logger
	}
}

// New creates a Tree over st.
func New(st *store.Store, opts ...Option) *Tree {
	t := &Tree{
		store: st,
		newID: func() models.ID { return models.ID(uuid.New().String()) },
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logrus.NewEntry(logrus.New())
	}
	t.logger = t.logger.WithField("component", "tree")
	return t
}

// foldName is the key names are compared by.
func foldName(name string) string {
	return cases.Fold().String(name)
}

// sortNodes orders folders before files, then by case-folded name.
func sortNodes(nodes []models.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}
		fa, fb := foldName(a.Name), foldName(b.Name)
		if fa != fb {
			return fa < fb
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

// Children returns the nodes directly under parentID (zero for the root) in
// display order.
func (t *Tree) Children(parentID models.ID) []models.Node {
	var children []models.Node
	for _, n := range t.store.Nodes() {
		if n.ParentID == parentID {
			children = append(children, n)
		}
	}
	sortNodes(children)
	return children
}

// childIndex groups every node id by its parent.
func childIndex(nodes []models.Node) map[models.ID][]models.ID {
	index := make(map[models.ID][]models.ID)
	for _, n := range nodes {
		index[n.ParentID] = append(index[n.ParentID], n.ID)
	}
	return index
}

// DescendantIDs returns every node transitively parented under folderID. It
// only follows child edges outward and never revisits a node, so it
// terminates on malformed graphs.
func (t *Tree) DescendantIDs(folderID models.ID) []models.ID {
	index := childIndex(t.store.Nodes())

	seen := map[models.ID]bool{folderID: true}
	var result []models.ID
	queue := []models.ID{folderID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range index[current] {
			if seen[child] {
				continue
			}
			seen[child] = true
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result
}

// splitExt separates the final ".ext" from name. A leading dot does not start
// an extension.
func splitExt(name string) (stem, ext string) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}

// UniqueName returns base, or base with a numeric suffix before its
// extension, such that no sibling under parentID other than exclude has the
// same case-folded name.
func (t *Tree) UniqueName(parentID models.ID, base string, exclude models.ID) string {
	taken := make(map[string]bool)
	for _, n := range t.store.Nodes() {
		if n.ParentID == parentID && n.ID != exclude {
			taken[foldName(n.Name)] = true
		}
	}
	if !taken[foldName(base)] {
		return base
	}

	stem, ext := splitExt(base)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s %d%s", stem, i, ext)
		if !taken[foldName(candidate)] {
			return candidate
		}
	}
}

// isContainer reports whether id may be used as a parent.
func (t *Tree) isContainer(id models.ID) bool {
	if id.IsZero() {
		return true
	}
	n, ok := t.store.Node(id)
	return ok && n.IsFolder()
}

func (t *Tree) create(kind models.NodeType, parentID models.ID, name, fallback string) models.Node {
	if !t.isContainer(parentID) {
		t.logger.WithField("parent", parentID).Warn("Parent is not a folder, creating at root")
		parentID = ""
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}

	now := t.store.Now()
	n := models.Node{
		ID:        t.newID(),
		Type:      kind,
		Name:      t.UniqueName(parentID, name, ""),
		ParentID:  parentID,
		CreatedAt: now,
	}
	if kind == models.NodeTypeFile {
		n.UpdatedAt = now
	}
	t.store.SetNode(n)

	t.logger.WithFields(logrus.Fields{
		"id":   n.ID,
		"type": n.Type,
		"name": n.Name,
	}).Debug("Created node")
	return n
}

// CreateFile adds an empty file under parentID. A blank name uses
// DefaultFileName.
func (t *Tree) CreateFile(parentID models.ID, name string) models.Node {
	return t.create(models.NodeTypeFile, parentID, name, DefaultFileName)
}

// CreateFolder adds a folder under parentID. A blank name uses
// DefaultFolderName.
func (t *Tree) CreateFolder(parentID models.ID, name string) models.Node {
	return t.create(models.NodeTypeFolder, parentID, name, DefaultFolderName)
}

// Rename changes a node's name. Blank names are ignored; a name taken by a
// sibling gets a numeric suffix. It reports whether the node was renamed.
func (t *Tree) Rename(id models.ID, newName string) bool {
	name := strings.TrimSpace(newName)
	if name == "" {
		return false
	}
	n, ok := t.store.Node(id)
	if !ok {
		return false
	}

	n.Name = t.UniqueName(n.ParentID, name, id)
	if n.IsFile() {
		n.UpdatedAt = t.store.Now()
	}
	t.store.SetNode(n)
	return true
}

// Move reparents a node. Moving a folder into itself or one of its
// descendants, or under anything that is not a folder, is refused. It
// reports whether the move was accepted.
func (t *Tree) Move(id, newParentID models.ID) bool {
	n, ok := t.store.Node(id)
	if !ok || !t.isContainer(newParentID) {
		return false
	}
	if n.IsFolder() {
		if newParentID == id {
			return false
		}
		for _, d := range t.DescendantIDs(id) {
			if d == newParentID {
				return false
			}
		}
	}
	if n.ParentID == newParentID {
		return true
	}

	n.ParentID = newParentID
	n.Name = t.UniqueName(newParentID, n.Name, id)
	if n.IsFile() {
		n.UpdatedAt = t.store.Now()
	}
	t.store.SetNode(n)
	return true
}

// Toggle flips a folder's collapsed state.
func (t *Tree) Toggle(id models.ID) bool {
	n, ok := t.store.Node(id)
	if !ok || !n.IsFolder() {
		return false
	}
	n.Collapsed = !n.Collapsed
	t.store.SetNode(n)
	return true
}

// CollapseAll collapses every expanded folder.
func (t *Tree) CollapseAll() {
	for _, n := range t.store.Nodes() {
		if n.IsFolder() && !n.Collapsed {
			n.Collapsed = true
			t.store.SetNode(n)
		}
	}
}

// Delete removes a node and, for folders, everything beneath it. It returns
// the ids removed. When the active file is among them another file is made
// active, or none if no file remains.
func (t *Tree) Delete(id models.ID) []models.ID {
	n, ok := t.store.Node(id)
	if !ok {
		return nil
	}

	removed := []models.ID{id}
	if n.IsFolder() {
		removed = append(removed, t.DescendantIDs(id)...)
	}
	for _, rid := range removed {
		t.store.RemoveNode(rid)
	}

	active := t.store.ActiveFileID()
	for _, rid := range removed {
		if rid == active {
			t.store.SetActiveFileID(t.fallbackActive())
			break
		}
	}

	t.logger.WithFields(logrus.Fields{
		"id":      id,
		"removed": len(removed),
	}).Debug("Deleted node")
	return removed
}

// fallbackActive picks the most recently updated remaining file.
func (t *Tree) fallbackActive() models.ID {
	var best models.Node
	found := false
	for _, n := range t.store.Nodes() {
		if !n.IsFile() {
			continue
		}
		if !found ||
			n.UpdatedAt > best.UpdatedAt ||
			(n.UpdatedAt == best.UpdatedAt && n.ID < best.ID) {
			best = n
			found = true
		}
	}
	return best.ID
}
