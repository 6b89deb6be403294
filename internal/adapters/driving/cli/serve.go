package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-server/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the REST API. Ingestion runs in the background while the server
is up; documents interrupted by a previous shutdown are resumed at startup.

Examples:
  sercha-server serve
  sercha-server serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	if err := a.resume(cmd.Context()); err != nil {
		return err
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Users:     a.Users,
		Notebooks: a.Notebooks,
		Documents: a.Documents,
		Query:     a.Query,
		Queue:     a.Queue,
	}, a.HTTP)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = a.Addr
	}
	if addr == "" {
		addr = ":8080"
	}

	cmd.Printf("%s listening on %s\n", bold("sercha-server"), addr)
	return server.Run(cmd.Context(), addr)
}
