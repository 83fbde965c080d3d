package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mattsolo1/grove-docfs/pkg/models"
)

// Path returns the slash-joined names from the root down to id.
func (t *Tree) Path(id models.ID) string {
	var parts []string
	seen := make(map[models.ID]bool)
	for current := id; !current.IsZero() && !seen[current]; {
		seen[current] = true
		n, ok := t.store.Node(current)
		if !ok {
			break
		}
		parts = append(parts, n.Name)
		current = n.ParentID
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Resolve finds the node at a slash-separated path, matching names
// case-insensitively. A raw node id is accepted too. The empty path and "/"
// resolve to the root (zero ID).
func (t *Tree) Resolve(path string) (models.ID, bool) {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return "", true
	}

	var current models.ID
	found := true
	for _, part := range strings.Split(trimmed, "/") {
		if part == "" {
			continue
		}
		next, ok := t.child(current, part)
		if !ok {
			found = false
			break
		}
		current = next
	}
	if found {
		return current, true
	}

	if _, ok := t.store.Node(models.ID(trimmed)); ok {
		return models.ID(trimmed), true
	}
	return "", false
}

func (t *Tree) child(parentID models.ID, name string) (models.ID, bool) {
	want := foldName(name)
	for _, n := range t.Children(parentID) {
		if foldName(n.Name) == want {
			return n.ID, true
		}
	}
	return "", false
}

// Items lists the subtree under parentID depth-first in display order. When
// honorCollapsed is set the children of collapsed folders are skipped.
func (t *Tree) Items(parentID models.ID, honorCollapsed bool) []Item {
	index := make(map[models.ID][]models.Node)
	for _, n := range t.store.Nodes() {
		index[n.ParentID] = append(index[n.ParentID], n)
	}
	for _, children := range index {
		sortNodes(children)
	}

	prefix := t.Path(parentID)
	seen := map[models.ID]bool{parentID: true}
	var items []Item

	var walk func(id models.ID, path string, depth int)
	walk = func(id models.ID, path string, depth int) {
		for _, n := range index[id] {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true

			p := n.Name
			if path != "" {
				p = path + "/" + n.Name
			}
			items = append(items, Item{
				Node:        n,
				Path:        p,
				Depth:       depth,
				HasChildren: len(index[n.ID]) > 0,
			})
			if n.IsFolder() && !(honorCollapsed && n.Collapsed) {
				walk(n.ID, p, depth+1)
			}
		}
	}
	walk(parentID, prefix, 0)
	return items
}

// Glob returns every node whose path matches a doublestar pattern, such as
// "Docs/**/*.md".
func (t *Tree) Glob(pattern string) ([]Item, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	var matches []Item
	for _, item := range t.Items("", false) {
		ok, err := doublestar.Match(pattern, item.Path)
		if err != nil {
			return nil, fmt.Errorf("match %s: %w", item.Path, err)
		}
		if ok {
			matches = append(matches, item)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Path < matches[j].Path
	})
	return matches, nil
}
