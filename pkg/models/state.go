package models

// Default sidebar UI state for a fresh store.
const (
	DefaultSidebarWidth = 260
	DefaultSidebarOpen  = true
)

// State is the root aggregate: every node, every file body and the session UI
// state. It is read, written and replaced as a whole.
type State struct {
	Nodes        map[ID]Node   `json:"nodes"`
	Content      map[ID]string `json:"content"`
	ActiveFileID ID            `json:"activeFileId"`
	SidebarWidth float64       `json:"sidebarWidth"`
	SidebarOpen  bool          `json:"sidebarOpen"`
}

// NewState returns an empty store with default UI settings.
func NewState() *State {
	return &State{
		Nodes:        make(map[ID]Node),
		Content:      make(map[ID]string),
		SidebarWidth: DefaultSidebarWidth,
		SidebarOpen:  DefaultSidebarOpen,
	}
}

// Clone returns a deep copy that shares nothing with s.
func (s *State) Clone() *State {
	c := &State{
		Nodes:        make(map[ID]Node, len(s.Nodes)),
		Content:      make(map[ID]string, len(s.Content)),
		ActiveFileID: s.ActiveFileID,
		SidebarWidth: s.SidebarWidth,
		SidebarOpen:  s.SidebarOpen,
	}
	for id, n := range s.Nodes {
		c.Nodes[id] = n
	}
	for id, body := range s.Content {
		c.Content[id] = body
	}
	return c
}

// EnsureMaps replaces nil maps left behind by decoding a sparse record.
func (s *State) EnsureMaps() {
	if s.Nodes == nil {
		s.Nodes = make(map[ID]Node)
	}
	if s.Content == nil {
		s.Content = make(map[ID]string)
	}
}

// Files returns the ids of every file node, in no particular order.
func (s *State) Files() []ID {
	var ids []ID
	for id, n := range s.Nodes {
		if n.IsFile() {
			ids = append(ids, id)
		}
	}
	return ids
}
