package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-docfs/pkg/coordinator"
	"github.com/mattsolo1/grove-docfs/pkg/editor"
	"github.com/mattsolo1/grove-docfs/pkg/migration"
	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/search"
	"github.com/mattsolo1/grove-docfs/pkg/storage"
	"github.com/mattsolo1/grove-docfs/pkg/store"
	"github.com/mattsolo1/grove-docfs/pkg/tree"
)

// Service is the document filesystem with every collaborator wired up.
type Service struct {
	Config      *Config
	Store       *store.Store
	Tree        *tree.Tree
	Document    *editor.Document
	Coordinator *coordinator.Coordinator
	Index       *search.Index

	backend  storage.Backend
	report   *migration.MigrationReport
	notifier store.Notifier
	logger   *logrus.Entry
	now      func() time.Time
	newID    func() models.ID
	edit     func(path string) error
}

// Config holds service configuration
type Config struct {
	DataDir       string
	Editor        string
	QuotaBytes    int64
	Debounce      time.Duration
	FilesystemKey string
	LegacyKey     string
	// Ephemeral keeps everything in memory; nothing is read from or written
	// to DataDir.
	Ephemeral bool
}

// Option customizes a Service.
type Option func(*Service)

// WithNotifier routes user-facing warnings.
func WithNotifier(n store.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides node id generation.
func WithIDGenerator(fn func() models.ID) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithBackend uses backend instead of opening one from the config.
func WithBackend(backend storage.Backend) Option {
	return func(s *Service) {
		s.backend = backend
	}
}

// WithEditorRunner replaces the external editor invocation used by Edit.
func WithEditorRunner(fn func(path string) error) Option {
	return func(s *Service) {
		s.edit = fn
	}
}

// New opens storage, migrates it if needed and boots the coordinator so the
// active file is loaded into the document.
func New(config *Config, opts ...Option) (*Service, error) {
	s := &Service{
		Config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.NewEntry(logrus.New())
	}
	if s.notifier == nil {
		s.notifier = store.NotifierFunc(func(msg string) {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
		})
	}
	if s.edit == nil {
		s.edit = s.openInEditor
	}

	if s.backend == nil {
		backend, err := openBackend(config)
		if err != nil {
			return nil, err
		}
		s.backend = backend
	}

	indexPath := search.MemoryPath
	if !config.Ephemeral {
		indexPath = filepath.Join(config.DataDir, "index.db")
	}
	index, err := search.NewIndex(indexPath)
	if err != nil {
		s.backend.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}
	s.Index = index

	storeOpts := []store.Option{
		store.WithNotifier(s.notifier),
		store.WithLogger(s.logger),
		store.WithClock(s.now),
	}
	if config.FilesystemKey != "" {
		storeOpts = append(storeOpts, store.WithKey(config.FilesystemKey))
	}
	s.Store = store.New(s.backend, storeOpts...)

	treeOpts := []tree.Option{tree.WithLogger(s.logger)}
	if s.newID != nil {
		treeOpts = append(treeOpts, tree.WithIDGenerator(s.newID))
	}
	s.Tree = tree.New(s.Store, treeOpts...)

	s.Document = editor.NewDocument()
	coordOpts := []coordinator.Option{coordinator.WithLogger(s.logger)}
	if config.Debounce > 0 {
		coordOpts = append(coordOpts, coordinator.WithDebounce(config.Debounce))
	}
	s.Coordinator = coordinator.New(s.Store, s.Document, coordOpts...)

	s.Coordinator.Boot(func() {
		migrationOpts := migration.MigrationOptions{
			FilesystemKey: config.FilesystemKey,
			LegacyKey:     config.LegacyKey,
			Now:           s.now,
		}
		if s.newID != nil {
			migrationOpts.NewID = func() string { return string(s.newID()) }
		}
		state, report := migration.MigrateIfNeeded(s.backend, migrationOpts, s.logger)
		s.report = report
		s.Store.Load(state)
	})

	return s, nil
}

func openBackend(config *Config) (storage.Backend, error) {
	if config.Ephemeral {
		return storage.NewMemoryBackend(config.QuotaBytes), nil
	}
	if config.DataDir == "" {
		return nil, fmt.Errorf("data directory is not configured")
	}
	backend, err := storage.NewSQLiteBackend(
		filepath.Join(config.DataDir, "docfs.db"),
		storage.WithQuota(config.QuotaBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return backend, nil
}

// MigrationReport describes what happened to storage at startup.
func (s *Service) MigrationReport() *migration.MigrationReport {
	return s.report
}

// openInEditor opens a file in the configured editor
func (s *Service) openInEditor(path string) error {
	editor := s.Config.Editor
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vim" // fallback
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// Close flushes pending edits and releases storage.
func (s *Service) Close() error {
	s.Coordinator.Flush()

	var firstErr error
	if s.Index != nil {
		if err := s.Index.Close(); err != nil {
			firstErr = fmt.Errorf("close index: %w", err)
		}
	}
	if err := s.backend.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close storage: %w", err)
	}
	return firstErr
}
