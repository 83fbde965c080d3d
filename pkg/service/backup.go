package service

import (
	"context"
	"fmt"
	"io"

	"github.com/mattsolo1/grove-docfs/pkg/snapshot"
)

// Backup writes the whole store to w and returns the snapshot that was
// written, so callers can name the file after it.
func (s *Service) Backup(w io.Writer, compress bool) (snapshot.Snapshot, error) {
	s.Coordinator.Flush()
	snap := snapshot.Export(s.Store, s.now())
	if err := snapshot.Encode(w, snap, compress); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("write backup: %w", err)
	}
	return snap, nil
}

// Restore replaces the store with the backup read from r once confirmer
// approves. The open document is reloaded afterwards.
func (s *Service) Restore(ctx context.Context, r io.Reader, confirmer snapshot.Confirmer) snapshot.ImportOutcome {
	importer := snapshot.NewImporter(s.Store, confirmer, s.notifier, s.logger)
	outcome := importer.Import(ctx, r)
	if outcome.Outcome == snapshot.OutcomeImported {
		s.Coordinator.Reload()
	}
	return outcome
}
