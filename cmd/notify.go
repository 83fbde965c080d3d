package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattsolo1/grove-docfs/pkg/store"
)

// NewNotifier prints user-facing warnings the way the rest of the CLI
// reports non-fatal failures.
func NewNotifier(w io.Writer) store.Notifier {
	if w == nil {
		w = os.Stderr
	}
	return store.NotifierFunc(func(message string) {
		fmt.Fprintf(w, "Warning: %s\n", message)
	})
}
