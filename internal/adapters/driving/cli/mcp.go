package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ghminer/internal/adapters/driven/storage"
	"github.com/custodia-labs/ghminer/internal/adapters/driving/mcp"
	"github.com/custodia-labs/ghminer/internal/core/services"
	"github.com/custodia-labs/ghminer/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored graph over MCP",
	Long: `Start a read-only Model Context Protocol server over the graph store.

It exposes the vertex_counts and project_freshness tools, the ghminer://kinds
resource and the ghminer://projects/{owner}/{name}/freshness template. No
remote calls are made.

By default the server communicates over stdio. Use --port to serve HTTP.

Examples:
  ghminer mcp serve
  ghminer mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Closing graph store: %v", err)
		}
	}()

	server, err := mcp.NewServer(&mcp.Ports{
		Inspector: services.NewInspectService(store, services.NewStalenessPolicy(cfg.Harvest.MinAge())),
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}
