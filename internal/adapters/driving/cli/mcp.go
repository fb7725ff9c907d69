package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serves the ask_tax_question and search_tax_documents tools, the
taxadvisor:// resources and the grounded_answer prompt over the Model Context
Protocol. Stdio is used unless --port is given.

Register it with a client as:

  {"mcpServers": {"taxadvisor": {"command": "taxadvisor", "args": ["mcp", "serve"]}}}`,
	Example: `  taxadvisor mcp serve
  taxadvisor mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requirePipeline(); err != nil {
			return err
		}
		server, err := mcp.NewServer(&mcp.Ports{Assistant: assistantService, Index: indexService}, mcp.WithVersion(version))
		if err != nil {
			return err
		}
		if mcpPort <= 0 {
			return server.Run(cmd.Context())
		}
		addr := fmt.Sprintf(":%d", mcpPort)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	},
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
