// Package editor holds the contract the filesystem expects from an editing
// surface, a structured-document implementation of it, and the debounce
// timer used for content saves.
package editor

// Surface is the editing component a document is loaded into.
type Surface interface {
	// Content serializes the current document.
	Content() string
	// SetContent replaces the document. An empty string clears it.
	SetContent(content string)
}

// ChangeNotifier is implemented by surfaces that report user edits.
type ChangeNotifier interface {
	OnChange(fn func())
}
