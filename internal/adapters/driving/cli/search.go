package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Prints the passages most similar to the query, exactly as the advisor
would receive them. No question routing or answer synthesis is performed,
which makes this the quickest way to check what the index knows.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePipeline(); err != nil {
			return err
		}
		result, err := assistantService.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return writeSearchResult(cmd, result)
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func writeSearchResult(cmd *cobra.Command, result *domain.RetrievalResult) error {
	out := cmd.OutOrStdout()
	switch {
	case searchJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case !result.Found || len(result.Passages) == 0:
		fmt.Fprintln(out, domain.NoInformationMessage)
	default:
		fmt.Fprintf(out, "Results:\n\n")
		printPassages(out, result.Passages)
	}
	return nil
}
