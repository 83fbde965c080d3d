package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/internal/tui/confirm"
	"github.com/mattsolo1/grove-docfs/pkg/service"
	"github.com/mattsolo1/grove-docfs/pkg/snapshot"
)

var backupUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.backup")

func NewBackupCmd(svc **service.Service) *cobra.Command {
	var (
		outDir   string
		compress bool
		toStdout bool
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export every file and folder to a backup file",
		Long: `Write the whole store to docfs-backup-<date>.json (or .json.gz with
--gzip). Restore it with "docfs restore".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			if toStdout {
				_, err := s.Backup(cmd.OutOrStdout(), compress)
				return err
			}

			var buf bytes.Buffer
			snap, err := s.Backup(&buf, compress)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			dest := filepath.Join(outDir, snap.Filename(compress))
			if err := os.WriteFile(dest, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}

			backupUlog.Success("Backup written").
				Field("dest", dest).
				Field("nodes", len(snap.Store.Nodes)).
				Field("bytes", buf.Len()).
				Pretty(fmt.Sprintf("Backup written: %s (%d items)", dest, len(snap.Store.Nodes))).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "Directory to write the backup to")
	cmd.Flags().BoolVar(&compress, "gzip", false, "Compress the backup")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Write the backup to stdout")
	return cmd
}

func NewRestoreCmd(svc **service.Service) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <backup-file|->",
		Short: "Replace everything with the contents of a backup",
		Long: `Validate a backup and, once confirmed, replace all current files and
folders with it. Plain and gzipped backups are accepted. Use "-" to read
stdin, which requires --yes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
			if !yes && (args[0] == "-" || !interactive) {
				return errors.New("confirmation requires an interactive terminal; pass --yes to restore anyway")
			}

			var r io.Reader
			if args[0] == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open backup: %w", err)
				}
				defer f.Close()
				r = f
			}

			outcome := s.Restore(ctx, r, restoreConfirmer(yes))
			switch outcome.Outcome {
			case snapshot.OutcomeImported:
				backupUlog.Success("Backup restored").
					Field("source", args[0]).
					Field("nodes", len(outcome.Snapshot.Store.Nodes)).
					Pretty(fmt.Sprintf("Restored %d items from %s", len(outcome.Snapshot.Store.Nodes), args[0])).
					PrettyOnly().
					Emit()
				return nil
			case snapshot.OutcomeCancelled:
				backupUlog.Info("Restore cancelled").
					Field("source", args[0]).
					Pretty("Restore cancelled, nothing was changed").
					PrettyOnly().
					Emit()
				return nil
			default:
				return errors.New("backup rejected, nothing was changed")
			}
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Restore without asking")
	return cmd
}

// restoreConfirmer shows the dialog unless --yes was given.
func restoreConfirmer(yes bool) snapshot.Confirmer {
	return snapshot.ConfirmFunc(func(ctx context.Context, message string, snap snapshot.Snapshot) (bool, error) {
		if yes {
			return true, nil
		}
		return confirm.Run(ctx, os.Stdin, os.Stderr, message, describe(snap))
	})
}

func describe(snap snapshot.Snapshot) string {
	files, folders := 0, 0
	for _, n := range snap.Store.Nodes {
		if n.IsFile() {
			files++
		} else {
			folders++
		}
	}
	return fmt.Sprintf("Backup from %s: %d file(s), %d folder(s)",
		snap.ExportedAt.Local().Format("2006-01-02 15:04"), files, folders)
}
