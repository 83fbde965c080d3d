package cmd

import (
	"fmt"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/service"
)

var sidebarUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.sidebar")

func NewSidebarCmd(svc **service.Service) *cobra.Command {
	var (
		width float64
		show  bool
		hide  bool
	)

	cmd := &cobra.Command{
		Use:   "sidebar",
		Short: "Show or change the persisted sidebar settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			if show && hide {
				return fmt.Errorf("--show and --hide cannot be combined")
			}

			var widthArg *float64
			if cmd.Flags().Changed("width") {
				widthArg = &width
			}
			var openArg *bool
			if show || hide {
				open := show
				openArg = &open
			}
			if err := s.SetSidebar(widthArg, openArg); err != nil {
				return err
			}

			w, open := s.Sidebar()
			sidebarUlog.Info("Sidebar").
				Field("width", w).
				Field("open", open).
				Pretty(fmt.Sprintf("Sidebar: %.0fpx, open=%t", w, open)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().Float64Var(&width, "width", 0, "Sidebar width in pixels")
	cmd.Flags().BoolVar(&show, "show", false, "Open the sidebar")
	cmd.Flags().BoolVar(&hide, "hide", false, "Close the sidebar")
	return cmd
}
