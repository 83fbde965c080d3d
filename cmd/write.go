package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/service"
)

var writeUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.write")

func NewWriteCmd(svc **service.Service) *cobra.Command {
	var (
		fromFile string
		appendTo bool
	)

	cmd := &cobra.Command{
		Use:   "write [path] [text...]",
		Short: "Replace a file's content",
		Long: `Replace a file's content with markdown from the arguments, a file or
stdin. The file becomes the active document.

Examples:
  docfs write plan.md "# Plan"
  docfs write plan.md --from draft.md
  cat draft.md | docfs write plan.md
  docfs write plan.md --append "- one more item"`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			path, err := targetPath(s, args)
			if err != nil {
				return err
			}

			var text string
			switch {
			case len(args) > 1:
				text = strings.Join(args[1:], " ")
			case fromFile != "":
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return fmt.Errorf("read %s: %w", fromFile, err)
				}
				text = string(data)
			default:
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			if appendTo {
				current, err := s.Read(path)
				if err != nil {
					return err
				}
				if current != "" {
					text = strings.TrimRight(current, "\n") + "\n\n" + text
				}
			}

			node, err := s.Write(path, text)
			if err != nil {
				return err
			}

			writeUlog.Success("Saved").
				Field("id", node.ID).
				Field("path", s.Tree.Path(node.ID)).
				Field("bytes", len(text)).
				Pretty(fmt.Sprintf("Saved: %s", s.Tree.Path(node.ID))).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFile, "from", "", "Read the content from a file")
	cmd.Flags().BoolVar(&appendTo, "append", false, "Append instead of replacing")
	return cmd
}

func NewEditCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [path]",
		Short: "Edit a file in $EDITOR (the active file by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			path, err := targetPath(s, args)
			if err != nil {
				return err
			}
			changed, err := s.Edit(path)
			if err != nil {
				return err
			}

			if !changed {
				writeUlog.Info("No changes").
					Field("path", path).
					Pretty("No changes").
					PrettyOnly().
					Emit()
				return nil
			}
			writeUlog.Success("Saved").
				Field("path", path).
				Pretty(fmt.Sprintf("Saved: %s", path)).
				PrettyOnly().
				Emit()
			return nil
		},
	}
	return cmd
}
