package cmd

import (
	"fmt"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/service"
)

var doctorUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.doctor")

func NewDoctorCmd(svc **service.Service) *cobra.Command {
	var doctorFix bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check and repair the document store",
		Long: `The doctor command checks the store for broken references and offers
to repair them.

Issues it can detect and fix:
- Files or folders whose parent folder no longer exists
- Folders nested inside themselves
- Content left behind by deleted files, or files without content
- An active document that does not exist`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			report := s.Doctor()

			var b strings.Builder
			fmt.Fprintf(&b, "Files:     %d\n", report.Files)
			fmt.Fprintf(&b, "Folders:   %d\n", report.Folders)
			fmt.Fprintf(&b, "Size:      %d bytes", report.Bytes)
			if report.Quota > 0 {
				fmt.Fprintf(&b, " of %d", report.Quota)
			}
			b.WriteString("\n")
			search := "full-text (FTS5)"
			if !report.FullText {
				search = "substring (FTS5 unavailable)"
			}
			fmt.Fprintf(&b, "Search:    %s\n", search)
			if m := report.Migration; m != nil {
				fmt.Fprintf(&b, "Startup:   %s", m.Outcome)
				if m.CorruptRecord {
					b.WriteString(" (previous record was unreadable)")
				}
				b.WriteString("\n")
			}

			doctorUlog.Info("Store summary").
				Field("files", report.Files).
				Field("folders", report.Folders).
				Field("bytes", report.Bytes).
				Pretty(b.String()).
				PrettyOnly().
				Emit()

			if len(report.Problems) == 0 {
				doctorUlog.Success("No issues found").
					Pretty("✅ No issues found").
					PrettyOnly().
					Emit()
				return nil
			}

			for _, p := range report.Problems {
				doctorUlog.Info("Issue").
					Field("id", p.ID).
					Field("problem", p.Message).
					Pretty(fmt.Sprintf("❗ %s", p)).
					PrettyOnly().
					Emit()
			}

			if !doctorFix {
				doctorUlog.Info("Issues found").
					Field("count", len(report.Problems)).
					Pretty(fmt.Sprintf("\nFound %d issue(s). Run with --fix to repair them.", len(report.Problems))).
					PrettyOnly().
					Emit()
				return nil
			}

			fixed := s.Repair()
			doctorUlog.Success("Repaired").
				Field("count", len(fixed)).
				Pretty(fmt.Sprintf("\nRepaired %d issue(s).", len(fixed))).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().BoolVar(&doctorFix, "fix", false, "Automatically fix issues")
	return cmd
}
