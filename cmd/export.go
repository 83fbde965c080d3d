package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/service"
)

var exportUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.export")

func NewExportCmd(svc **service.Service) *cobra.Command {
	var (
		outDir          string
		withFrontmatter bool
		toStdout        bool
	)

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export a file as a markdown document",
		Long: `Write a file out as <name>.md. Unsaved edits are saved first.

Examples:
  docfs export plan.md -o ~/Desktop
  docfs export --frontmatter --stdout`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			path, err := targetPath(s, args)
			if err != nil {
				return err
			}
			export, err := s.Export(path, withFrontmatter)
			if err != nil {
				return err
			}

			if toStdout {
				fmt.Fprint(cmd.OutOrStdout(), export.Body)
				return nil
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			dest := filepath.Join(outDir, export.Filename)
			if err := os.WriteFile(dest, []byte(export.Body), 0644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			exportUlog.Success("Exported").
				Field("path", path).
				Field("dest", dest).
				Pretty(fmt.Sprintf("Exported: %s", dest)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "Directory to write the document to")
	cmd.Flags().BoolVar(&withFrontmatter, "frontmatter", false, "Prepend a YAML frontmatter header")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print instead of writing a file")
	return cmd
}
