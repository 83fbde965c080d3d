package cmd

import (
	"fmt"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/pkg/service"
)

var searchUlog = grovelogging.NewUnifiedLogger("grove-docfs.cmd.search")

func NewSearchCmd(svc **service.Service) *cobra.Command {
	var (
		searchIn    string
		searchLimit int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search file names and contents",
		Long: `Search for files matching the query.

Examples:
  docfs search "authentication"
  docfs search todo --in Docs`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			query := strings.Join(args, " ")
			results, err := s.Search(query, searchIn, searchLimit)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				searchUlog.Info("No results found").
					Field("query", query).
					Pretty("No results found").
					PrettyOnly().
					Emit()
				return nil
			}

			searchUlog.Info("Search results").
				Field("query", query).
				Field("result_count", len(results)).
				Pretty(fmt.Sprintf("Found %d results:\n", len(results))).
				PrettyOnly().
				Emit()

			for i, hit := range results {
				var prettyStr strings.Builder
				prettyStr.WriteString(fmt.Sprintf("%d. %s\n", i+1, hit.Path))
				if hit.Snippet != "" {
					prettyStr.WriteString(fmt.Sprintf("   %s\n", hit.Snippet))
				}

				searchUlog.Info("Search result").
					Field("query", query).
					Field("result_index", i+1).
					Field("id", hit.ID).
					Field("path", hit.Path).
					Pretty(prettyStr.String()).
					PrettyOnly().
					Emit()
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&searchIn, "in", "", "Only search below this folder")
	cmd.Flags().IntVar(&searchLimit, "limit", 50, "Maximum results")

	return cmd
}
