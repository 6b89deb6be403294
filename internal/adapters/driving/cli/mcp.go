package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-server/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve notebooks to MCP clients",
	Long: `Expose semantic queries and ingestion status to MCP clients.

The server speaks JSON-RPC over stdio unless --port is given, in which case
it serves the streamable HTTP transport on that port.

Tools:     query_notebook, query_library, document_status
Resources: sercha://queue, sercha://documents/{documentId}/status`,
	Example: `  sercha-server mcp serve
  sercha-server mcp serve --port 8081`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	if err := a.resume(cmd.Context()); err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Query:    a.Query,
		Document: a.Documents,
		Queue:    a.Queue,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if mcpPort <= 0 {
		return server.Run(cmd.Context())
	}

	addr := fmt.Sprintf(":%d", mcpPort)
	fmt.Fprintf(cmd.ErrOrStderr(), "%s MCP server on http://localhost%s\n", green("▸"), addr)
	return server.RunHTTP(cmd.Context(), addr)
}
