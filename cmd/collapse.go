package cmd

import (
	"fmt"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/service"
)

var collapseUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.collapse")

func NewCollapseCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collapse [folder]",
		Short: "Toggle a folder open or closed, or collapse every folder",
		Long: `With a folder argument, flip that folder between collapsed and expanded.
Without one, collapse every folder.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			if len(args) == 0 {
				s.CollapseAll()
				collapseUlog.Success("Collapsed all folders").
					Pretty("Collapsed all folders").
					PrettyOnly().
					Emit()
				return nil
			}

			node, err := s.Toggle(args[0])
			if err != nil {
				return err
			}
			state := "expanded"
			if node.Collapsed {
				state = "collapsed"
			}
			collapseUlog.Success("Toggled folder").
				Field("path", args[0]).
				Field("collapsed", node.Collapsed).
				Pretty(fmt.Sprintf("%s: %s", s.Tree.Path(node.ID), state)).
				PrettyOnly().
				Emit()
			return nil
		},
	}
	return cmd
}
