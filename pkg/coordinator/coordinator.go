// Package coordinator decides which document is open and makes sure the
// editor's content reaches the right file before another one is loaded.
package coordinator

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-docfs/pkg/editor"
	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/store"
)

// DefaultDebounce is how long edits must settle before they are saved.
const DefaultDebounce = 500 * time.Millisecond

// Phase is the coordinator's lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitializing
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Coordinator mediates between the editor surface and the store.
type Coordinator struct {
	// mu serializes saves against switches so an edit is never written to a
	// file other than the one it was made in.
	mu        sync.Mutex
	store     *store.Store
	surface   editor.Surface
	debouncer *editor.Debouncer
	save      func(content string)
	phase     Phase
	logger    *logrus.Entry

	// notifies is set when the surface reports its own edits; saves are then
	// skipped until dirty says an edit happened.
	notifies bool
	dirty    atomic.Bool
}

// Option configures a Coordinator.
type Option func(*config)

type config struct {
	debounce time.Duration
	logger   *logrus.Entry
}

// WithDebounce sets the edit debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		c.debounce = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New wires a coordinator between st and surface. When the surface reports
// edits they are saved to the active file after the debounce interval.
func New(st *store.Store, surface editor.Surface, opts ...Option) *Coordinator {
	cfg := config{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logrus.NewEntry(logrus.New())
	}

	c := &Coordinator{
		store:   st,
		surface: surface,
		logger:  cfg.logger.WithField("component", "coordinator"),
	}
	c.save = c.SaveHandler()
	c.debouncer = editor.NewDebouncer(cfg.debounce, c.debouncedSave)

	if notifier, ok := surface.(editor.ChangeNotifier); ok {
		c.notifies = true
		notifier.OnChange(c.Changed)
	}
	return c
}

// Boot runs load (migration and store load) and then opens the active file
// in the surface.
func (c *Coordinator) Boot(load func()) {
	c.mu.Lock()
	c.phase = PhaseInitializing
	c.mu.Unlock()

	load()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadActiveLocked()
	c.phase = PhaseReady
}

// Phase reports where the coordinator is in its lifecycle.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// SaveHandler returns the closure the editor's save callback is bound to. It
// writes content to whichever file is active when it is called.
func (c *Coordinator) SaveHandler() func(content string) {
	return func(content string) {
		active := c.store.ActiveFileID()
		if active.IsZero() {
			return
		}
		c.store.SaveFileContent(active, content)
	}
}

// Changed is the editor's "content changed" signal. It reschedules the
// debounced save.
func (c *Coordinator) Changed() {
	c.dirty.Store(true)
	c.debouncer.Trigger()
}

func (c *Coordinator) debouncedSave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveSurfaceLocked()
}

// saveSurfaceLocked writes the surface content to the active file unless it
// already matches what is stored.
func (c *Coordinator) saveSurfaceLocked() bool {
	active := c.store.ActiveFileID()
	if active.IsZero() {
		return false
	}
	if c.notifies && !c.dirty.Load() {
		return false
	}
	c.dirty.Store(false)
	content := c.surface.Content()
	if content == c.store.Content(active) {
		return false
	}
	c.save(content)
	return true
}

// Flush saves the surface content to the active file now and drops any
// pending debounced save.
func (c *Coordinator) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
}

func (c *Coordinator) flushLocked() {
	c.debouncer.Cancel()
	if c.saveSurfaceLocked() {
		c.logger.WithField("file", c.store.ActiveFileID()).Debug("Flushed pending edits")
	}
}

// SwitchFile makes id the active file: pending edits are saved to the
// current file first, then the new file's content replaces the surface.
// Switching to the active file, or to anything that is not a file, does
// nothing. It reports whether the active file changed.
func (c *Coordinator) SwitchFile(id models.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == c.store.ActiveFileID() {
		return false
	}
	n, ok := c.store.Node(id)
	if !ok || !n.IsFile() {
		return false
	}

	c.flushLocked()
	c.store.SetActiveFileID(id)
	c.dirty.Store(false)
	c.surface.SetContent(c.store.Content(id))

	c.logger.WithFields(logrus.Fields{
		"file": id,
		"name": n.Name,
	}).Debug("Switched active file")
	return true
}

// ActiveFile returns the open file, if any.
func (c *Coordinator) ActiveFile() (models.Node, bool) {
	active := c.store.ActiveFileID()
	if active.IsZero() {
		return models.Node{}, false
	}
	n, ok := c.store.Node(active)
	if !ok || !n.IsFile() {
		return models.Node{}, false
	}
	return n, true
}

// Reload discards pending edits and loads the active file into the surface
// again. Used after the whole store has been replaced.
func (c *Coordinator) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debouncer.Cancel()
	c.loadActiveLocked()
}

func (c *Coordinator) loadActiveLocked() {
	c.dirty.Store(false)
	active := c.store.ActiveFileID()
	if n, ok := c.store.Node(active); !ok || !n.IsFile() {
		c.surface.SetContent("")
		return
	}
	c.surface.SetContent(c.store.Content(active))
}
