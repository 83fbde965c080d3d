package coordinator

import (
	"strings"

	"github.com/mattsolo1/grove-docfs/pkg/editor"
	"github.com/mattsolo1/grove-docfs/pkg/frontmatter"
	"github.com/mattsolo1/grove-docfs/pkg/models"
)

// ExportOptions controls markdown export.
type ExportOptions struct {
	// Frontmatter prepends a YAML header with the file's id, path and
	// timestamps.
	Frontmatter bool
}

// Export is a single file rendered as markdown.
type Export struct {
	Filename string
	Body     string
}

// ExportMarkdown renders a file as markdown. Pending edits are flushed first
// when id is the open file so the export matches what the user sees.
func (c *Coordinator) ExportMarkdown(id models.ID, opts ExportOptions) (Export, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.store.Node(id)
	if !ok || !n.IsFile() {
		return Export{}, false
	}
	if id == c.store.ActiveFileID() {
		c.flushLocked()
	}

	filename := n.Name
	if !strings.HasSuffix(strings.ToLower(filename), ".md") {
		filename += ".md"
	}
	body := editor.ToMarkdown(c.store.Content(id))

	if opts.Frontmatter {
		fm := &frontmatter.Frontmatter{
			ID:       string(n.ID),
			Title:    strings.TrimSuffix(filename, ".md"),
			Path:     c.pathLocked(id),
			Created:  frontmatter.FormatMillis(n.CreatedAt),
			Modified: frontmatter.FormatMillis(n.UpdatedAt),
		}
		withHeader, err := frontmatter.BuildContent(fm, body)
		if err != nil {
			c.logger.WithError(err).Warn("Failed to build frontmatter, exporting body only")
		} else {
			body = withHeader
		}
	}

	return Export{Filename: filename, Body: body}, true
}

func (c *Coordinator) pathLocked(id models.ID) string {
	var parts []string
	seen := make(map[models.ID]bool)
	for current := id; !current.IsZero() && !seen[current]; {
		seen[current] = true
		n, ok := c.store.Node(current)
		if !ok {
			break
		}
		parts = append([]string{n.Name}, parts...)
		current = n.ParentID
	}
	return strings.Join(parts, "/")
}
