package cmd

import (
	"fmt"
	"io"
	"os"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/service"
)

var newUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.new")

func NewNewCmd(svc **service.Service) *cobra.Command {
	var (
		parent    string
		fromFile  string
		fromStdin bool
		open      bool
		edit      bool
	)

	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a file",
		Long: `Create a new file. Names that clash with a sibling get a numeric suffix.

Examples:
  docfs new                          # Untitled.md at the root
  docfs new plan.md --in Docs        # Docs/plan.md
  docfs new --from notes.md          # import a markdown file
  echo "# Hi" | docfs new hi.md --stdin`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			var name string
			if len(args) > 0 {
				name = args[0]
			}

			var (
				node models.Node
				err  error
			)
			switch {
			case fromFile != "" || fromStdin:
				var data []byte
				if fromStdin {
					data, err = io.ReadAll(cmd.InOrStdin())
				} else {
					data, err = os.ReadFile(fromFile)
				}
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				node, err = s.ImportMarkdown(parent, name, string(data))
			default:
				node, err = s.CreateFile(parent, name)
			}
			if err != nil {
				return err
			}

			path := s.Tree.Path(node.ID)
			if open || edit {
				if _, err := s.Open(path); err != nil {
					return err
				}
			}
			if edit {
				if _, err := s.Edit(path); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to open editor: %v\n", err)
				}
			}

			newUlog.Success("File created").
				Field("id", node.ID).
				Field("path", path).
				Pretty(fmt.Sprintf("Created: %s", path)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "in", "", "Folder to create the file in")
	cmd.Flags().StringVar(&fromFile, "from", "", "Import the content of a markdown file")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the content from stdin")
	cmd.Flags().BoolVar(&open, "open", false, "Make the new file the active document")
	cmd.Flags().BoolVarP(&edit, "edit", "e", false, "Open the new file in $EDITOR")

	return cmd
}

func NewMkdirCmd(svc **service.Service) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "mkdir [name]",
		Short: "Create a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			var name string
			if len(args) > 0 {
				name = args[0]
			}
			node, err := s.CreateFolder(parent, name)
			if err != nil {
				return err
			}

			path := s.Tree.Path(node.ID)
			newUlog.Success("Folder created").
				Field("id", node.ID).
				Field("path", path).
				Pretty(fmt.Sprintf("Created folder: %s", path)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "in", "", "Folder to create the folder in")
	return cmd
}
