package service

import (
	"encoding/json"

	"github.com/mattsolo1/grove-docfs/pkg/migration"
	"github.com/mattsolo1/grove-docfs/pkg/snapshot"
	"github.com/mattsolo1/grove-docfs/pkg/store"
)

// DoctorReport summarizes the health of the store.
type DoctorReport struct {
	Files     int
	Folders   int
	Bytes     int
	Quota     int64
	FullText  bool
	Migration *migration.MigrationReport
	Problems  []store.Problem
}

// Doctor inspects the store without changing it.
func (s *Service) Doctor() DoctorReport {
	s.Coordinator.Flush()

	state := s.Store.State()
	report := DoctorReport{
		Quota:     s.Config.QuotaBytes,
		FullText:  s.Index.FullText(),
		Migration: s.report,
		Problems:  s.Store.Check(),
	}
	for _, n := range state.Nodes {
		if n.IsFile() {
			report.Files++
		} else {
			report.Folders++
		}
	}
	if data, err := json.Marshal(state); err == nil {
		report.Bytes = len(data)
	}
	return report
}

// Repair normalizes the store the same way a restored backup is normalized
// and returns the problems that were fixed.
func (s *Service) Repair() []store.Problem {
	problems := s.Store.Check()
	if len(problems) == 0 {
		return nil
	}

	s.Coordinator.Flush()
	state := s.Store.State()
	snapshot.Normalize(state)
	s.Store.ReplaceState(state)
	s.Coordinator.Reload()

	s.logger.WithField("problems", len(problems)).Info("Repaired filesystem state")
	return problems
}
