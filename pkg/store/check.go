package store

import (
	"fmt"
	"sort"

	"github.com/mattsolo1/grove-docfs/pkg/models"
)

// Problem describes one broken invariant in a state.
type Problem struct {
	ID      models.ID
	Message string
}

func (p Problem) String() string {
	if p.ID.IsZero() {
		return p.Message
	}
	return fmt.Sprintf("%s: %s", p.ID, p.Message)
}

// Check reports invariant violations in the live state without changing it.
func (s *Store) Check() []Problem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CheckState(s.state)
}

// CheckState reports invariant violations in state. Problems are ordered by
// node id for stable output.
func CheckState(state *models.State) []Problem {
	var problems []Problem

	for id, n := range state.Nodes {
		if n.ID != id {
			problems = append(problems, Problem{ID: id, Message: fmt.Sprintf("stored under a different key than its id %q", n.ID)})
		}
		if !n.Type.Valid() {
			problems = append(problems, Problem{ID: id, Message: fmt.Sprintf("unknown node type %q", n.Type)})
		}
		if !n.ParentID.IsZero() {
			parent, ok := state.Nodes[n.ParentID]
			switch {
			case !ok:
				problems = append(problems, Problem{ID: id, Message: fmt.Sprintf("parent %s does not exist", n.ParentID)})
			case !parent.IsFolder():
				problems = append(problems, Problem{ID: id, Message: fmt.Sprintf("parent %s is not a folder", n.ParentID)})
			}
		}
		if n.IsFile() {
			if _, ok := state.Content[id]; !ok {
				problems = append(problems, Problem{ID: id, Message: "file has no content entry"})
			}
		}
		if n.IsFolder() && inCycle(state, id) {
			problems = append(problems, Problem{ID: id, Message: "folder is its own ancestor"})
		}
	}

	for id := range state.Content {
		if n, ok := state.Nodes[id]; !ok || !n.IsFile() {
			problems = append(problems, Problem{ID: id, Message: "content entry has no file"})
		}
	}

	if active := state.ActiveFileID; !active.IsZero() {
		if n, ok := state.Nodes[active]; !ok || !n.IsFile() {
			problems = append(problems, Problem{Message: fmt.Sprintf("active id %s is not an existing file", active)})
		}
	}

	sort.SliceStable(problems, func(i, j int) bool {
		return problems[i].ID < problems[j].ID
	})
	return problems
}

// inCycle walks parent links upward from id and reports whether it comes back.
func inCycle(state *models.State, id models.ID) bool {
	seen := map[models.ID]bool{id: true}
	current := state.Nodes[id].ParentID
	for !current.IsZero() {
		if seen[current] {
			return current == id
		}
		seen[current] = true
		next, ok := state.Nodes[current]
		if !ok {
			return false
		}
		current = next.ParentID
	}
	return false
}
