package editor

import (
	"sync"
)

// Document is a structured-document buffer. Its serialized form is
// structured-document JSON; it also accepts raw markdown.
type Document struct {
	mu        sync.Mutex
	blocks    []Block
	listeners []func()
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Content returns the document as structured-document JSON, or "" when the
// document is empty.
func (d *Document) Content() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.blocks) == 0 {
		return ""
	}
	return EncodeStructured(d.blocks)
}

// SetContent loads content without signalling an edit. Empty content clears
// the document; structured JSON is tried first, then markdown.
func (d *Document) SetContent(content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blocks = parseAny(content)
}

func parseAny(content string) []Block {
	if content == "" {
		return nil
	}
	if blocks, err := ParseStructured(content); err == nil {
		return blocks
	}
	return ParseMarkdown(content)
}

// Edit replaces the document as a user edit would and notifies listeners.
func (d *Document) Edit(content string) {
	d.mu.Lock()
	d.blocks = parseAny(content)
	listeners := append([]func(){}, d.listeners...)
	d.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// OnChange registers fn to run after every Edit.
func (d *Document) OnChange(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// Markdown renders the document as markdown.
func (d *Document) Markdown() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return RenderMarkdown(d.blocks)
}

// Blocks returns a copy of the document blocks.
func (d *Document) Blocks() []Block {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Block, len(d.blocks))
	copy(out, d.blocks)
	return out
}

// Empty reports whether the document has no blocks.
func (d *Document) Empty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.blocks) == 0
}
