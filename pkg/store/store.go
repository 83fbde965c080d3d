// Package store owns the live filesystem state and persists it, as a single
// record, after every mutation.
package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/storage"
)

// DefaultKey is the backend key the filesystem record is stored under.
const DefaultKey = "docfs:filesystem"

// QuotaWarning is shown to the user when a write is refused for capacity.
const QuotaWarning = "Storage is full: your latest changes are kept in memory but were not saved. Export a backup, then delete some files to free space."

// Notifier surfaces messages the user has to act on.
type Notifier interface {
	Warn(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Warn(message string) { f(message) }

// Store is the single source of truth for the filesystem state.
type Store struct {
	mu       sync.RWMutex
	backend  storage.Backend
	key      string
	state    *models.State
	notifier Notifier
	logger   *logrus.Entry
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the backend key.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithNotifier sets where user-facing warnings go.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store over backend holding an empty state. Call Load to read
// the persisted record.
func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		state:   models.NewState(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.NewEntry(logrus.New())
	}
	s.logger = s.logger.WithField("component", "store")
	if s.notifier == nil {
		s.notifier = NotifierFunc(func(message string) {
			s.logger.Warn(message)
		})
	}
	return s
}

// Now returns the store clock in milliseconds since the epoch.
func (s *Store) Now() int64 {
	return s.now().UnixMilli()
}

// Load adopts initial when given and persists it. Otherwise it reads the
// persisted record; a missing or unreadable record leaves the empty default
// in place.
func (s *Store) Load(initial *models.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if initial != nil {
		s.state = initial.Clone()
		s.state.EnsureMaps()
		s.persistLocked()
		return
	}

	raw, ok, err := s.backend.Get(s.key)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read filesystem record, starting empty")
		return
	}
	if !ok {
		return
	}

	state := models.NewState()
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		s.logger.WithError(err).Error("Filesystem record is corrupt, starting empty")
		return
	}
	state.EnsureMaps()
	s.state = state
}

// Persist writes the whole state under the store key.
func (s *Store) Persist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}

func (s *Store) persistLocked() {
	data, err := json.Marshal(s.state)
	if err != nil {
		s.logger.WithError(err).Error("Failed to serialize filesystem state")
		return
	}

	if err := s.backend.Set(s.key, string(data)); err != nil {
		if storage.IsQuotaExceeded(err) {
			s.logger.WithField("bytes", len(data)).Warn("Storage quota exceeded, state kept in memory")
			s.notifier.Warn(QuotaWarning)
			return
		}
		s.logger.WithError(err).Error("Failed to persist filesystem state")
	}
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id models.ID) (models.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.state.Nodes[id]
	return n, ok
}

// Nodes returns a copy of every node, in no particular order.
func (s *Store) Nodes() []models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := make([]models.Node, 0, len(s.state.Nodes))
	for _, n := range s.state.Nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// SetNode upserts n by id. A file seen for the first time gets an empty
// content entry.
func (s *Store) SetNode(n models.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Nodes[n.ID] = n
	if n.IsFile() {
		if _, ok := s.state.Content[n.ID]; !ok {
			s.state.Content[n.ID] = ""
		}
	}
	s.persistLocked()
}

// RemoveNode deletes a node together with its content entry.
func (s *Store) RemoveNode(id models.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.state.Nodes, id)
	delete(s.state.Content, id)
	s.persistLocked()
}

// Content returns the stored body of a file, or "" when there is none.
func (s *Store) Content(id models.ID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Content[id]
}

// SaveFileContent stores content for a file and bumps its updatedAt.
// Unknown ids and folders are ignored.
func (s *Store) SaveFileContent(id models.ID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.state.Nodes[id]
	if !ok || !n.IsFile() {
		s.logger.WithField("id", id).Debug("Ignoring content save for unknown file")
		return
	}
	n.UpdatedAt = s.Now()
	s.state.Nodes[id] = n
	s.state.Content[id] = content
	s.persistLocked()
}

// ActiveFileID returns the currently open file, or the zero ID.
func (s *Store) ActiveFileID() models.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActiveFileID
}

// SetActiveFileID records which file is open.
func (s *Store) SetActiveFileID(id models.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ActiveFileID = id
	s.persistLocked()
}

// Sidebar returns the persisted sidebar width and visibility.
func (s *Store) Sidebar() (width float64, open bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SidebarWidth, s.state.SidebarOpen
}

func (s *Store) SetSidebarWidth(width float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SidebarWidth = width
	s.persistLocked()
}

func (s *Store) SetSidebarOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SidebarOpen = open
	s.persistLocked()
}

// State returns a deep copy of the live state.
func (s *Store) State() *models.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// ReplaceState swaps the whole state for a copy of next and persists it.
func (s *Store) ReplaceState(next *models.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next.Clone()
	s.state.EnsureMaps()
	s.persistLocked()
}
