package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/service"
)

var openUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.open")

func NewOpenCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <path>",
		Short: "Make a file the active document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			node, err := s.Open(args[0])
			if err != nil {
				return err
			}

			path := s.Tree.Path(node.ID)
			openUlog.Success("Opened").
				Field("id", node.ID).
				Field("path", path).
				Pretty(fmt.Sprintf("Active: %s", path)).
				PrettyOnly().
				Emit()
			return nil
		},
	}
	return cmd
}

func NewStatusCmd(svc **service.Service) *cobra.Command {
	var statusJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active document and store summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *svc

			report := s.Doctor()
			width, open := s.Sidebar()
			active, err := s.Active()
			if err != nil && !errors.Is(err, service.ErrNoActiveDoc) {
				return err
			}

			status := map[string]any{
				"active":       active.Path,
				"files":        report.Files,
				"folders":      report.Folders,
				"bytes":        report.Bytes,
				"quota":        report.Quota,
				"sidebarWidth": width,
				"sidebarOpen":  open,
			}
			if statusJSON {
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal status to JSON: %w", err)
				}
				openUlog.Info("Status").
					Pretty(string(data)).
					PrettyOnly().
					Log(ctx)
				return nil
			}

			var b strings.Builder
			if active.Path != "" {
				fmt.Fprintf(&b, "Active:  %s\n", active.Path)
			} else {
				b.WriteString("Active:  (none)\n")
			}
			fmt.Fprintf(&b, "Files:   %d in %d folder(s)\n", report.Files, report.Folders)
			if report.Quota > 0 {
				fmt.Fprintf(&b, "Storage: %d of %d bytes (%.0f%%)\n", report.Bytes, report.Quota, 100*float64(report.Bytes)/float64(report.Quota))
			} else {
				fmt.Fprintf(&b, "Storage: %d bytes\n", report.Bytes)
			}
			fmt.Fprintf(&b, "Sidebar: %.0fpx, open=%t", width, open)

			openUlog.Info("Status").
				Field("active", active.Path).
				Field("files", report.Files).
				Field("bytes", report.Bytes).
				Pretty(b.String()).
				PrettyOnly().
				Log(ctx)
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	return cmd
}
