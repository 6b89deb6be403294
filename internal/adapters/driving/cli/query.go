package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

var (
	queryNotebook string
	queryUser     string
	queryTopK     int
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search a notebook or a user's whole library",
	Long: `Embeds the query and returns the closest chunks by L2 distance.
Exactly one of --notebook or --user selects the scope.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryNotebook, "notebook", "", "notebook to search")
	queryCmd.Flags().StringVar(&queryUser, "user", "", "user whose notebooks are searched")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", domain.DefaultTopK, "number of results (1-20)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	queryCmd.MarkFlagsMutuallyExclusive("notebook", "user")
	queryCmd.MarkFlagsOneRequired("notebook", "user")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	scope := domain.QueryScope{Kind: domain.ScopeNotebook, ID: queryNotebook}
	if queryUser != "" {
		scope = domain.QueryScope{Kind: domain.ScopeUser, ID: queryUser}
	}
	if scope.ID == "" {
		return errors.New("one of --notebook or --user is required")
	}

	resp, err := a.Query.Query(cmd.Context(), scope, strings.Join(args, " "), queryTopK)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return printJSON(cmd, resp)
	}
	return outputQueryTable(cmd, resp)
}

func outputQueryTable(cmd *cobra.Command, resp *domain.QueryResponse) error {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%.0fms):\n\n", resp.SearchTimeMs)
	for i := range resp.Results {
		r := &resp.Results[i]
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, bold(r.ChunkID), r.Score)
		cmd.Printf("      %s\n", snippet(r.Text, 200))
		cmd.Println()
	}
	return nil
}

// snippet collapses whitespace and truncates to n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
