package cmd

import (
	"fmt"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/service"
)

var removeUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.rm")

func NewRemoveCmd(svc **service.Service) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or folder",
		Long: `Delete a file, or a folder and everything in it (requires -r).
If the open file is deleted, the most recently edited remaining file opens.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			node, err := s.Lookup(args[0])
			if err != nil {
				return err
			}
			if node.IsFolder() && !recursive && len(s.Tree.Children(node.ID)) > 0 {
				return fmt.Errorf("%s is not empty (use -r to delete it with its contents)", args[0])
			}

			path := s.Tree.Path(node.ID)
			removed, err := s.Delete(args[0])
			if err != nil {
				return err
			}

			removeUlog.Success("Deleted").
				Field("path", path).
				Field("removed", len(removed)).
				Pretty(fmt.Sprintf("Deleted: %s (%d item(s))", path, len(removed))).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Delete folders with their contents")
	return cmd
}
