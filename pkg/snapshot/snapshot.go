// Package snapshot exports the whole store as a portable backup and restores
// it again after validating the record.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/store"
)

// CurrentVersion is the interchange format written by Export.
const CurrentVersion = 1

// Snapshot is the interchange record: the full store plus a format version
// and the time it was taken.
type Snapshot struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exportedAt"`
	Store      *models.State `json:"store"`
}

// Export takes a deep copy of the store.
func Export(st *store.Store, now time.Time) Snapshot {
	return Snapshot{
		Version:    CurrentVersion,
		ExportedAt: now.UTC().Truncate(time.Second),
		Store:      st.State(),
	}
}

// Filename is the suggested download name, dated by the export time.
func (s Snapshot) Filename(compressed bool) string {
	name := fmt.Sprintf("docfs-backup-%s.json", s.ExportedAt.Format("2006-01-02"))
	if compressed {
		name += ".gz"
	}
	return name
}

// Encode writes the snapshot as indented JSON, gzipped when compress is set.
func Encode(w io.Writer, snap Snapshot, compress bool) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	if !compress {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		return nil
	}

	gz := gzip.NewWriter(w)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	return nil
}
