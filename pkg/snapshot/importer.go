package snapshot

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-docfs/pkg/store"
)

// RestoreWarning is the question put to the user before a restore.
const RestoreWarning = "Restoring a backup replaces all current files and folders. Continue?"

// Confirmer asks the user to approve a destructive restore.
type Confirmer interface {
	Confirm(ctx context.Context, message string, snap Snapshot) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string, snap Snapshot) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, message string, snap Snapshot) (bool, error) {
	return f(ctx, message, snap)
}

// Outcome is how an import ended.
type Outcome string

const (
	OutcomeImported  Outcome = "imported"
	OutcomeRejected  Outcome = "rejected"
	OutcomeCancelled Outcome = "cancelled"
)

// ImportOutcome reports an import. Problems is set for rejections.
type ImportOutcome struct {
	Outcome  Outcome
	Snapshot Snapshot
	Problems []Problem
}

// Importer restores backups into a store.
type Importer struct {
	store     *store.Store
	confirmer Confirmer
	notifier  store.Notifier
	logger    *logrus.Entry
}

// NewImporter creates an importer. A nil notifier discards messages; a nil
// logger uses a default one.
func NewImporter(st *store.Store, confirmer Confirmer, notifier store.Notifier, logger *logrus.Entry) *Importer {
	if notifier == nil {
		notifier = store.NotifierFunc(func(string) {})
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Importer{
		store:     st,
		confirmer: confirmer,
		notifier:  notifier,
		logger:    logger.WithField("component", "snapshot"),
	}
}

// Import reads a backup from r, validates it, asks for confirmation and
// replaces the store. The store is only touched when the outcome is
// OutcomeImported. Operations that run while r is being read are overwritten
// by the restore.
func (im *Importer) Import(ctx context.Context, r io.Reader) ImportOutcome {
	data, err := readAll(ctx, r)
	if err != nil {
		return im.reject(Problem{Message: fmt.Sprintf("read backup: %v", err)})
	}

	result := Decode(data)
	if !result.Accepted {
		return im.reject(result.Problems...)
	}

	ok, err := im.confirmer.Confirm(ctx, RestoreWarning, result.Snapshot)
	if err != nil {
		im.logger.WithError(err).Warn("Confirmation failed, restore cancelled")
		return ImportOutcome{Outcome: OutcomeCancelled, Snapshot: result.Snapshot}
	}
	if !ok {
		im.logger.Info("Restore cancelled by user")
		return ImportOutcome{Outcome: OutcomeCancelled, Snapshot: result.Snapshot}
	}

	im.store.ReplaceState(result.Snapshot.Store)
	im.logger.WithFields(logrus.Fields{
		"nodes":       len(result.Snapshot.Store.Nodes),
		"exported_at": result.Snapshot.ExportedAt,
	}).Info("Restored backup")
	return ImportOutcome{Outcome: OutcomeImported, Snapshot: result.Snapshot}
}

func (im *Importer) reject(problems ...Problem) ImportOutcome {
	err := Result{Problems: problems}.Err()
	im.logger.WithError(err).Warn("Rejected backup")
	im.notifier.Warn(err.Error())
	return ImportOutcome{Outcome: OutcomeRejected, Problems: problems}
}

// readAll reads r on its own goroutine so a cancelled ctx abandons the read.
func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(r)
		done <- result{data, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.data, res.err
	}
}
