package tree

import (
	"github.com/mattsolo1/grove-docfs/pkg/models"
)

// Item is a node placed in the display tree.
type Item struct {
	models.Node

	// Path is the slash-joined chain of names from the root, e.g. "Docs/a.md".
	Path string
	// Depth is 0 for root-level nodes.
	Depth int
	// HasChildren is set for folders with at least one child.
	HasChildren bool
}
