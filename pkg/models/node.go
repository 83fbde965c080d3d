package models

import (
	"encoding/json"
	"fmt"
)

// NodeType discriminates files from folders.
type NodeType string

const (
	NodeTypeFile   NodeType = "file"
	NodeTypeFolder NodeType = "folder"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	return t == NodeTypeFile || t == NodeTypeFolder
}

// ID identifies a node. The zero value means "no node": a root parent or an
// empty active file. It is encoded as JSON null.
type ID string

// IsZero reports whether the id refers to no node.
func (id ID) IsZero() bool {
	return id == ""
}

func (id ID) String() string {
	return string(id)
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(s)
	return nil
}

// Node is a file or folder entry in the flat map.
type Node struct {
	ID       ID       `json:"id"`
	Type     NodeType `json:"type"`
	Name     string   `json:"name"`
	ParentID ID       `json:"parentId"`

	// CreatedAt and UpdatedAt are milliseconds since the epoch.
	// UpdatedAt is only meaningful for files.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`

	// Collapsed is folder UI state.
	Collapsed bool `json:"collapsed"`
}

func (n Node) IsFile() bool   { return n.Type == NodeTypeFile }
func (n Node) IsFolder() bool { return n.Type == NodeTypeFolder }

type fileJSON struct {
	ID        ID       `json:"id"`
	Type      NodeType `json:"type"`
	Name      string   `json:"name"`
	ParentID  ID       `json:"parentId"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
}

type folderJSON struct {
	ID        ID       `json:"id"`
	Type      NodeType `json:"type"`
	Name      string   `json:"name"`
	ParentID  ID       `json:"parentId"`
	Collapsed bool     `json:"collapsed"`
	CreatedAt int64    `json:"createdAt"`
}

// MarshalJSON writes only the fields that belong to the node's type.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.Type == NodeTypeFolder {
		return json.Marshal(folderJSON{
			ID:        n.ID,
			Type:      n.Type,
			Name:      n.Name,
			ParentID:  n.ParentID,
			Collapsed: n.Collapsed,
			CreatedAt: n.CreatedAt,
		})
	}
	return json.Marshal(fileJSON{
		ID:        n.ID,
		Type:      n.Type,
		Name:      n.Name,
		ParentID:  n.ParentID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	})
}
