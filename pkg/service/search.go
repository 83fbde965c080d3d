package service

import (
	"fmt"

	"github.com/mattsolo1/grove-docfs/pkg/editor"
	"github.com/mattsolo1/grove-docfs/pkg/search"
)

// Reindex rebuilds the search index from the current store.
func (s *Service) Reindex() error {
	s.Coordinator.Flush()

	var entries []search.Entry
	for _, item := range s.Tree.Items("", false) {
		if !item.IsFile() {
			continue
		}
		entries = append(entries, search.Entry{
			ID:        item.ID.String(),
			Path:      item.Path,
			Name:      item.Name,
			Content:   editor.ToMarkdown(s.Store.Content(item.ID)),
			UpdatedAt: item.UpdatedAt,
		})
	}
	if err := s.Index.Rebuild(entries); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	return nil
}

// Search finds files whose name or content matches query, optionally below
// the folder at folderPath.
func (s *Service) Search(query, folderPath string, limit int) ([]search.Hit, error) {
	if folderPath != "" {
		if _, err := s.folder(folderPath); err != nil {
			return nil, err
		}
	}
	if err := s.Reindex(); err != nil {
		return nil, err
	}
	return s.Index.Search(query, &search.Options{Folder: folderPath, Limit: limit})
}
