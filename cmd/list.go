package cmd

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/models"
	"github.com/mattsolo1/grove-docfs/pkg/service"
	"github.com/mattsolo1/grove-docfs/pkg/tree"
)

var listUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.list")

func NewListCmd(svc **service.Service) *cobra.Command {
	var (
		listAll  bool
		listJSON bool
	)

	cmd := &cobra.Command{
		Use:     "ls [folder]",
		Short:   "List files and folders",
		Aliases: []string{"list"},
		Long: `List the tree below a folder (the root by default), folders first.
Collapsed folders are shown closed unless --all is given.

Examples:
  docfs ls
  docfs ls Docs --all
  docfs ls --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			var folder string
			if len(args) > 0 {
				folder = args[0]
			}
			items, err := s.List(folder, !listAll)
			if err != nil {
				return err
			}

			if listJSON {
				return outputJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				listUlog.Info("No files found").
					Field("folder", folder).
					Pretty("No files found").
					PrettyOnly().
					Emit()
				return nil
			}

			var active models.ID
			if a, err := s.Active(); err == nil {
				active = a.ID
			}
			listUlog.Info("Tree").
				Field("folder", folder).
				Field("count", len(items)).
				Pretty(renderTree(items, active)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&listAll, "all", "a", false, "Expand collapsed folders")
	cmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")

	return cmd
}

func renderTree(items []tree.Item, active models.ID) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(strings.Repeat("  ", item.Depth))
		switch {
		case item.IsFolder():
			marker := "▾"
			if item.Collapsed {
				marker = "▸"
			}
			b.WriteString(theme.DefaultTheme.Muted.Render(marker) + " " + theme.IconFolderTree + " " + item.Name + "/")
		case item.ID == active:
			b.WriteString(theme.DefaultTheme.Highlight.Render("▶ "+theme.IconNote+" "+item.Name) + " " +
				theme.DefaultTheme.Muted.Render(formatMillis(item.UpdatedAt)))
		default:
			b.WriteString("  " + theme.IconNote + " " + item.Name + " " + theme.DefaultTheme.Muted.Render(formatMillis(item.UpdatedAt)))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

type itemJSON struct {
	ID        models.ID       `json:"id"`
	Type      models.NodeType `json:"type"`
	Name      string          `json:"name"`
	ParentID  models.ID       `json:"parentId"`
	Path      string          `json:"path"`
	Depth     int             `json:"depth"`
	UpdatedAt int64           `json:"updatedAt,omitempty"`
	Collapsed bool            `json:"collapsed,omitempty"`
}

func outputJSON(w io.Writer, items []tree.Item) error {
	out := make([]itemJSON, 0, len(items))
	for _, item := range items {
		out = append(out, itemJSON{
			ID:        item.ID,
			Type:      item.Type,
			Name:      item.Name,
			ParentID:  item.ParentID,
			Path:      item.Path,
			Depth:     item.Depth,
			UpdatedAt: item.UpdatedAt,
			Collapsed: item.Collapsed,
		})
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func NewFindCmd(svc **service.Service) *cobra.Command {
	var findJSON bool

	cmd := &cobra.Command{
		Use:   "find <pattern>",
		Short: "Find files and folders by path pattern",
		Long: `Match node paths against a glob pattern. ** crosses folders.

Examples:
  docfs find "**/*.md"
  docfs find "Docs/**/draft*"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			items, err := s.Find(args[0])
			if err != nil {
				return err
			}
			if findJSON {
				return outputJSON(cmd.OutOrStdout(), items)
			}

			if len(items) == 0 {
				listUlog.Info("No matches").
					Field("pattern", args[0]).
					Pretty("No matches").
					PrettyOnly().
					Emit()
				return nil
			}
			for _, item := range items {
				listUlog.Info("Match").
					Field("pattern", args[0]).
					Field("path", item.Path).
					Field("type", item.Type).
					Pretty(item.Path).
					PrettyOnly().
					Emit()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&findJSON, "json", false, "Output as JSON")
	return cmd
}
