package cmd

import (
	"fmt"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/service"
)

var moveUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.move")

func NewMoveCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv <path> <folder>",
		Short: "Move a file or folder into another folder",
		Long: `Move a file or folder. Use "/" for the root. A folder cannot be moved
into itself or one of its descendants.

Examples:
  docfs mv plan.md Docs
  docfs mv Docs/Archive /`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			node, err := s.Move(args[0], args[1])
			if err != nil {
				return err
			}

			path := s.Tree.Path(node.ID)
			moveUlog.Success("Moved").
				Field("from", args[0]).
				Field("to", path).
				Pretty(fmt.Sprintf("Moved: %s -> %s", args[0], path)).
				PrettyOnly().
				Emit()
			return nil
		},
	}
	return cmd
}

func NewRenameCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a file or folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			node, err := s.Rename(args[0], args[1])
			if err != nil {
				return err
			}

			path := s.Tree.Path(node.ID)
			moveUlog.Success("Renamed").
				Field("from", args[0]).
				Field("to", path).
				Pretty(fmt.Sprintf("Renamed: %s -> %s", args[0], path)).
				PrettyOnly().
				Emit()
			return nil
		},
	}
	return cmd
}
