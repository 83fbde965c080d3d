package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/service"
)

func NewCatCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat [path]",
		Short: "Print a file as markdown (the active file by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			path, err := targetPath(s, args)
			if err != nil {
				return err
			}
			body, err := s.Read(path)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), body)
			return nil
		},
	}
	return cmd
}

// targetPath is the path argument when given, otherwise the active file.
func targetPath(s *service.Service, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	active, err := s.Active()
	if err != nil {
		return "", err
	}
	return active.Path, nil
}
