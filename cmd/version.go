package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-core/version"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/snapshot"
)

var versionUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.version")

func NewVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display the build information for docfs and the backup format it writes",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()

			pretty := fmt.Sprintf("%s\nBackup format: v%d", info.String(), snapshot.CurrentVersion)
			if jsonOutput {
				data, err := json.MarshalIndent(map[string]any{
					"version":      info.Version,
					"commit":       info.Commit,
					"branch":       info.Branch,
					"backupFormat": snapshot.CurrentVersion,
				}, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal version info: %w", err)
				}
				pretty = string(data)
			}

			versionUlog.Info("Version info").
				Field("version", info.Version).
				Field("commit", info.Commit).
				Field("backup_format", snapshot.CurrentVersion).
				Pretty(pretty).
				PrettyOnly().
				Log(context.Background())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version information in JSON format")

	return cmd
}
