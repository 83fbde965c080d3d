package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattsolo1/grove-docfs/pkg/coordinator"
	"github.com/mattsolo1/grove-docfs/pkg/frontmatter"
	"github.com/mattsolo1/grove-docfs/pkg/models"
)

// Read returns the file at path as markdown.
func (s *Service) Read(path string) (string, error) {
	export, err := s.Export(path, false)
	if err != nil {
		return "", err
	}
	return export.Body, nil
}

// Export renders the file at path as a markdown document, optionally with a
// frontmatter header.
func (s *Service) Export(path string, withFrontmatter bool) (coordinator.Export, error) {
	n, err := s.file(path)
	if err != nil {
		return coordinator.Export{}, err
	}
	export, ok := s.Coordinator.ExportMarkdown(n.ID, coordinator.ExportOptions{Frontmatter: withFrontmatter})
	if !ok {
		return coordinator.Export{}, fmt.Errorf("%s: %w", path, ErrNotFile)
	}
	return export, nil
}

// Write opens the file at path and replaces its content with markdown, as
// if it had been typed into the editor, then saves it.
func (s *Service) Write(path, markdown string) (models.Node, error) {
	n, err := s.Open(path)
	if err != nil {
		return models.Node{}, err
	}
	s.Document.Edit(markdown)
	s.Coordinator.Flush()

	saved, _ := s.Store.Node(n.ID)
	return saved, nil
}

// ImportMarkdown creates a file from a markdown document. A frontmatter
// title names the file when name is blank; the header itself is dropped.
func (s *Service) ImportMarkdown(parentPath, name, document string) (models.Node, error) {
	fm, body, err := frontmatter.Parse(document)
	if err != nil {
		s.logger.WithError(err).Warn("Ignoring unreadable frontmatter")
		s.notifier.Warn(fmt.Sprintf("ignoring unreadable frontmatter: %v", err))
		body = document
	}
	if strings.TrimSpace(name) == "" && fm != nil && fm.Title != "" {
		name = fm.Title
		if !strings.HasSuffix(strings.ToLower(name), ".md") {
			name += ".md"
		}
	}

	n, err := s.CreateFile(parentPath, name)
	if err != nil {
		return models.Node{}, err
	}
	return s.Write(n.ID.String(), body)
}

// Edit opens the file at path in the external editor and saves the result.
// It reports whether the content changed.
func (s *Service) Edit(path string) (bool, error) {
	n, err := s.file(path)
	if err != nil {
		return false, err
	}
	before, err := s.Read(path)
	if err != nil {
		return false, err
	}

	dir, err := os.MkdirTemp("", "docfs-edit-")
	if err != nil {
		return false, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	name := n.Name
	if !strings.HasSuffix(strings.ToLower(name), ".md") {
		name += ".md"
	}
	tmp := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(tmp, []byte(before), 0600); err != nil {
		return false, fmt.Errorf("write temp file: %w", err)
	}

	if err := s.edit(tmp); err != nil {
		return false, fmt.Errorf("run editor: %w", err)
	}

	after, err := os.ReadFile(tmp)
	if err != nil {
		return false, fmt.Errorf("read edited file: %w", err)
	}
	if string(after) == before {
		return false, nil
	}
	if _, err := s.Write(n.ID.String(), string(after)); err != nil {
		return false, err
	}
	return true, nil
}
