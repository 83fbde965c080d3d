package service

import (
	"errors"
	"fmt"

	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/tree"
)

var (
	ErrNotFound    = errors.New("no such file or folder")
	ErrNotFile     = errors.New("not a file")
	ErrNotFolder   = errors.New("not a folder")
	ErrNotAllowed  = errors.New("operation not allowed")
	ErrNoActiveDoc = errors.New("no file is open")
)

// Lookup resolves a path (or raw id) to a node.
func (s *Service) Lookup(path string) (models.Node, error) {
	id, ok := s.Tree.Resolve(path)
	if !ok {
		return models.Node{}, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if id.IsZero() {
		return models.Node{}, fmt.Errorf("%s: %w", path, ErrNotAllowed)
	}
	n, _ := s.Store.Node(id)
	return n, nil
}

func (s *Service) folder(path string) (models.ID, error) {
	id, ok := s.Tree.Resolve(path)
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if id.IsZero() {
		return "", nil
	}
	if n, _ := s.Store.Node(id); !n.IsFolder() {
		return "", fmt.Errorf("%s: %w", path, ErrNotFolder)
	}
	return id, nil
}

func (s *Service) file(path string) (models.Node, error) {
	n, err := s.Lookup(path)
	if err != nil {
		return models.Node{}, err
	}
	if !n.IsFile() {
		return models.Node{}, fmt.Errorf("%s: %w", path, ErrNotFile)
	}
	return n, nil
}

// CreateFile creates a file in the folder at parentPath. The name may be
// adjusted to stay unique.
func (s *Service) CreateFile(parentPath, name string) (models.Node, error) {
	parent, err := s.folder(parentPath)
	if err != nil {
		return models.Node{}, err
	}
	return s.Tree.CreateFile(parent, name), nil
}

// CreateFolder creates a folder in the folder at parentPath.
func (s *Service) CreateFolder(parentPath, name string) (models.Node, error) {
	parent, err := s.folder(parentPath)
	if err != nil {
		return models.Node{}, err
	}
	return s.Tree.CreateFolder(parent, name), nil
}

// Rename gives the node at path a new name and returns the name it ended up
// with.
func (s *Service) Rename(path, newName string) (models.Node, error) {
	n, err := s.Lookup(path)
	if err != nil {
		return models.Node{}, err
	}
	if !s.Tree.Rename(n.ID, newName) {
		return models.Node{}, fmt.Errorf("rename %s: %w", path, ErrNotAllowed)
	}
	renamed, _ := s.Store.Node(n.ID)
	return renamed, nil
}

// Move puts the node at path into the folder at destPath.
func (s *Service) Move(path, destPath string) (models.Node, error) {
	n, err := s.Lookup(path)
	if err != nil {
		return models.Node{}, err
	}
	dest, err := s.folder(destPath)
	if err != nil {
		return models.Node{}, err
	}
	if !s.Tree.Move(n.ID, dest) {
		return models.Node{}, fmt.Errorf("move %s into %s: %w", path, destPath, ErrNotAllowed)
	}
	moved, _ := s.Store.Node(n.ID)
	return moved, nil
}

// Delete removes the node at path, and everything below it for folders. If
// the open file goes away the coordinator loads its replacement.
func (s *Service) Delete(path string) ([]models.ID, error) {
	n, err := s.Lookup(path)
	if err != nil {
		return nil, err
	}
	// Settle pending edits while they still belong to the open file.
	s.Coordinator.Flush()
	activeBefore := s.Store.ActiveFileID()
	removed := s.Tree.Delete(n.ID)
	if s.Store.ActiveFileID() != activeBefore {
		s.Coordinator.Reload()
	}
	return removed, nil
}

// Toggle flips a folder's collapsed state.
func (s *Service) Toggle(path string) (models.Node, error) {
	id, err := s.folder(path)
	if err != nil {
		return models.Node{}, err
	}
	if id.IsZero() || !s.Tree.Toggle(id) {
		return models.Node{}, fmt.Errorf("toggle %s: %w", path, ErrNotAllowed)
	}
	n, _ := s.Store.Node(id)
	return n, nil
}

// CollapseAll collapses every folder.
func (s *Service) CollapseAll() {
	s.Tree.CollapseAll()
}

// Open makes the file at path the active document.
func (s *Service) Open(path string) (models.Node, error) {
	n, err := s.file(path)
	if err != nil {
		return models.Node{}, err
	}
	s.Coordinator.SwitchFile(n.ID)
	return n, nil
}

// Active returns the open file and its path.
func (s *Service) Active() (tree.Item, error) {
	n, ok := s.Coordinator.ActiveFile()
	if !ok {
		return tree.Item{}, ErrNoActiveDoc
	}
	return tree.Item{Node: n, Path: s.Tree.Path(n.ID)}, nil
}

// List returns the subtree below the folder at path in display order.
func (s *Service) List(path string, honorCollapsed bool) ([]tree.Item, error) {
	id, err := s.folder(path)
	if err != nil {
		return nil, err
	}
	return s.Tree.Items(id, honorCollapsed), nil
}

// Find returns every node whose path matches a glob pattern.
func (s *Service) Find(pattern string) ([]tree.Item, error) {
	return s.Tree.Glob(pattern)
}

// Sidebar returns the persisted sidebar settings.
func (s *Service) Sidebar() (width float64, open bool) {
	return s.Store.Sidebar()
}

// SetSidebar updates the sidebar settings. A nil argument leaves that
// setting alone.
func (s *Service) SetSidebar(width *float64, open *bool) error {
	if width != nil {
		if *width <= 0 {
			return fmt.Errorf("sidebar width must be positive, got %v", *width)
		}
		s.Store.SetSidebarWidth(*width)
	}
	if open != nil {
		s.Store.SetSidebarOpen(*open)
	}
	return nil
}
